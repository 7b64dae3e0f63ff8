// Package ledger управляет экономическим состоянием игроков: балансы,
// рефералы, инвентарь, статистика матчей.
// models.go описывает запись аккаунта — то, что лежит в хранилище.
package ledger

import "github.com/shopspring/decimal"

// Account представляет постоянное состояние одного игрока.
// Имена JSON-полей стабильны: документ совместим со старым users.json.
//
// Инварианты (держатся после каждой успешной операции):
//   - Balance >= 0, PremiumBalance >= 0
//   - TotalEarned, Clicks, AdsWatched, PvPWins, PvPLosses не убывают
//   - Referrer выставляется максимум один раз и никогда не равен своему ID
//   - Referrals и NFTs — множества: ID встречается максимум один раз
type Account struct {
	ID             int64           `json:"-"` // Telegram user ID (ключ документа)
	Balance        int64           `json:"balance"`
	PremiumBalance decimal.Decimal `json:"premium_balance"`
	TotalEarned    int64           `json:"total_earned"`
	Clicks         int64           `json:"clicks"`
	AdsWatched     int64           `json:"ads_watched"`
	Referrer       int64           `json:"referrer"` // 0 — реферера нет
	Referrals      []int64         `json:"referrals"`
	NFTs           []string        `json:"nfts"`
	Language       string          `json:"language"`
	PvPWins        int64           `json:"pvp_wins"`
	PvPLosses      int64           `json:"pvp_losses"`
}

// NewAccount возвращает аккаунт с нулевыми счётчиками.
func NewAccount(id int64, language string) *Account {
	return &Account{
		ID:             id,
		PremiumBalance: decimal.Zero,
		Language:       language,
	}
}

// HasReferral проверяет, есть ли id в списке приглашённых.
func (a *Account) HasReferral(id int64) bool {
	for _, r := range a.Referrals {
		if r == id {
			return true
		}
	}
	return false
}

// AddReferral добавляет id в список приглашённых.
// Повторное добавление — no-op, список остаётся множеством.
func (a *Account) AddReferral(id int64) {
	if a.HasReferral(id) {
		return
	}
	a.Referrals = append(a.Referrals, id)
}

// HasNFT проверяет, куплен ли предмет.
func (a *Account) HasNFT(itemID string) bool {
	for _, n := range a.NFTs {
		if n == itemID {
			return true
		}
	}
	return false
}

// AddNFT добавляет предмет в инвентарь. Повторное добавление — no-op.
func (a *Account) AddNFT(itemID string) {
	if a.HasNFT(itemID) {
		return
	}
	a.NFTs = append(a.NFTs, itemID)
}

// Clone возвращает глубокую копию аккаунта.
// Хранилища отдают наружу только копии, чтобы вызывающий код
// не мог мутировать состояние мимо Commit.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Referrals = append([]int64(nil), a.Referrals...)
	cp.NFTs = append([]string(nil), a.NFTs...)
	return &cp
}
