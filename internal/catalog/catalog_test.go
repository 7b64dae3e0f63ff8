package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemByID(t *testing.T) {
	c := New()

	item, ok := c.ItemByID("nft_sword")
	require.True(t, ok)
	assert.Equal(t, "Меч новичка", item.Name)
	assert.Equal(t, "0.5", item.Price.String())

	_, ok = c.ItemByID("nft_bazooka")
	assert.False(t, ok)
}

func TestDefaultCatalog(t *testing.T) {
	c := New()
	assert.Equal(t, len(defaultItems), c.Size())
	assert.Len(t, c.All(), c.Size())

	// У каждого предмета положительная цена и характеристики
	for _, item := range c.All() {
		assert.True(t, item.Price.IsPositive(), item.ID)
		assert.Greater(t, item.Power, 0, item.ID)
		assert.Greater(t, item.Durability, 0, item.ID)
	}
}
