package common

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPluralizeCoins(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{1, "монета"},
		{21, "монета"},
		{101, "монета"},
		{2, "монеты"},
		{3, "монеты"},
		{4, "монеты"},
		{22, "монеты"},
		{0, "монет"},
		{5, "монет"},
		{11, "монет"},
		{12, "монет"},
		{14, "монет"},
		{100, "монет"},
		{111, "монет"},
		{-2, "монеты"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, PluralizeCoins(tc.n), "n=%d", tc.n)
	}
}

func TestPluralizeClicks(t *testing.T) {
	assert.Equal(t, "клик", PluralizeClicks(1))
	assert.Equal(t, "клика", PluralizeClicks(3))
	assert.Equal(t, "кликов", PluralizeClicks(11))
	assert.Equal(t, "кликов", PluralizeClicks(100))
}

func TestFormatCoins(t *testing.T) {
	assert.Equal(t, "150 монет", FormatCoins(150))
	assert.Equal(t, "1 монета", FormatCoins(1))
}

func TestFormatGems(t *testing.T) {
	assert.Equal(t, "1.5 гемов", FormatGems(decimal.RequireFromString("1.5")))
	assert.Equal(t, "0.01 гемов", FormatGems(decimal.RequireFromString("0.01")))
	assert.Equal(t, "0 гемов", FormatGems(decimal.Zero))
}

func TestMoscowLocation(t *testing.T) {
	loc := MoscowLocation()
	assert.NotNil(t, loc)
	// GetMoscowTime обязан вернуть время именно в этой зоне
	assert.Equal(t, loc.String(), GetMoscowTime().Location().String())
}
