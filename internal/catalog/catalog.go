// Package catalog содержит статический каталог NFT-предметов магазина.
// Каталог загружается один раз при старте процесса и никогда не мутируется:
// леджер только читает его при покупке.
package catalog

import "github.com/shopspring/decimal"

// Item — один предмет каталога. Цена в гемах (премиум-валюта).
type Item struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`       // Отображаемое имя
	Price      decimal.Decimal `json:"price"`      // Цена в гемах
	Power      int             `json:"power"`      // Сила в PvP
	Durability int             `json:"durability"` // Прочность (здоровье)
}

// Catalog — неизменяемая таблица предметов.
type Catalog struct {
	items map[string]Item
}

// New создаёт каталог со стандартным набором предметов.
func New() *Catalog {
	return newFromItems(defaultItems)
}

func newFromItems(items []Item) *Catalog {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return &Catalog{items: m}
}

// ItemByID возвращает предмет по ID. Второе значение false, если предмета нет.
func (c *Catalog) ItemByID(id string) (Item, bool) {
	it, ok := c.items[id]
	return it, ok
}

// Size возвращает количество предметов в каталоге.
func (c *Catalog) Size() int {
	return len(c.items)
}

// All возвращает копию списка предметов (для витрины магазина).
func (c *Catalog) All() []Item {
	out := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		out = append(out, it)
	}
	return out
}

// Стандартный набор предметов. Цены подобраны под курс 100000 монет за гем.
var defaultItems = []Item{
	{ID: "nft_sword", Name: "Меч новичка", Price: decimal.RequireFromString("0.5"), Power: 10, Durability: 100},
	{ID: "nft_shield", Name: "Щит стража", Price: decimal.RequireFromString("0.75"), Power: 4, Durability: 250},
	{ID: "nft_axe", Name: "Топор берсерка", Price: decimal.RequireFromString("1"), Power: 18, Durability: 80},
	{ID: "nft_bow", Name: "Лук охотника", Price: decimal.RequireFromString("1.25"), Power: 14, Durability: 120},
	{ID: "nft_golden_cursor", Name: "Золотой курсор", Price: decimal.RequireFromString("2"), Power: 25, Durability: 150},
	{ID: "nft_dragon", Name: "Дракон-хранитель", Price: decimal.RequireFromString("5"), Power: 50, Durability: 500},
}
