// service.go — бизнес-логика леджера: начисления, списания, клики,
// просмотры рекламы, смена языка, агрегаты.
// Все операции читают актуальное состояние и пишут новое в одном Commit,
// поэтому конкурентные события не теряют обновлений.
package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"clickerton.ru/clicker-bot/internal/catalog"
	"clickerton.ru/clicker-bot/internal/common"
	"clickerton.ru/clicker-bot/internal/config"
)

// Service выполняет операции над аккаунтами игроков.
type Service struct {
	store   AccountStore
	catalog *catalog.Catalog
	cfg     *config.Config
}

// NewService создаёт сервис леджера.
func NewService(store AccountStore, cat *catalog.Catalog, cfg *config.Config) *Service {
	return &Service{store: store, catalog: cat, cfg: cfg}
}

// GetAccount возвращает аккаунт, создавая его при первом обращении.
func (s *Service) GetAccount(ctx context.Context, id int64) (*Account, error) {
	return s.store.Get(ctx, id)
}

// CreditBalance изменяет баланс монет на amount (может быть отрицательным —
// списание). Списание ниже нуля отклоняется. Положительные начисления
// увеличивают total_earned — счётчик заработанного за всё время.
func (s *Service) CreditBalance(ctx context.Context, id int64, amount int64) (*Account, error) {
	if amount == 0 {
		return nil, common.ErrInvalidAmount
	}
	return s.store.Commit(ctx, id, func(acc *Account) error {
		if acc.Balance+amount < 0 {
			return common.ErrInsufficientFunds
		}
		acc.Balance += amount
		if amount > 0 {
			acc.TotalEarned += amount
		}
		return nil
	})
}

// CreditPremium изменяет баланс гемов. Правила знака те же, что и у монет.
func (s *Service) CreditPremium(ctx context.Context, id int64, amount decimal.Decimal) (*Account, error) {
	if amount.IsZero() {
		return nil, common.ErrInvalidAmount
	}
	return s.store.Commit(ctx, id, func(acc *Account) error {
		next := acc.PremiumBalance.Add(amount)
		if next.IsNegative() {
			return common.ErrInsufficientFunds
		}
		acc.PremiumBalance = next
		return nil
	})
}

// RecordClick засчитывает клик: +1 к счётчику и coins монет на баланс.
// Счётчик и начисление пишутся одним Commit — событие либо учтено
// целиком, либо не учтено вовсе.
func (s *Service) RecordClick(ctx context.Context, id int64, coins int64) (*Account, error) {
	if coins <= 0 {
		return nil, common.ErrInvalidAmount
	}
	return s.store.Commit(ctx, id, func(acc *Account) error {
		acc.Clicks++
		acc.Balance += coins
		acc.TotalEarned += coins
		return nil
	})
}

// RecordAdView засчитывает просмотр рекламы: +1 к счётчику и reward монет.
func (s *Service) RecordAdView(ctx context.Context, id int64, reward int64) (*Account, error) {
	if reward <= 0 {
		return nil, common.ErrInvalidAmount
	}
	return s.store.Commit(ctx, id, func(acc *Account) error {
		acc.AdsWatched++
		acc.Balance += reward
		acc.TotalEarned += reward
		return nil
	})
}

// SetLanguage меняет язык интерфейса игрока.
func (s *Service) SetLanguage(ctx context.Context, id int64, tag string) (*Account, error) {
	if !s.cfg.IsSupportedLanguage(tag) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedLanguage, tag)
	}
	return s.store.Commit(ctx, id, func(acc *Account) error {
		acc.Language = tag
		return nil
	})
}

// Totals — агрегаты по всей экономике (для статистики в логах).
type Totals struct {
	Accounts    int
	Coins       int64
	TotalEarned int64
	Gems        decimal.Decimal
	Clicks      int64
	AdsWatched  int64
}

// Totals обходит все аккаунты и считает суммарные показатели.
func (s *Service) Totals(ctx context.Context) (*Totals, error) {
	t := &Totals{Gems: decimal.Zero}
	err := s.store.ForEach(ctx, func(acc *Account) error {
		t.Accounts++
		t.Coins += acc.Balance
		t.TotalEarned += acc.TotalEarned
		t.Gems = t.Gems.Add(acc.PremiumBalance)
		t.Clicks += acc.Clicks
		t.AdsWatched += acc.AdsWatched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// TopByBalance возвращает n богатейших игроков (для /top).
func (s *Service) TopByBalance(ctx context.Context, n int) ([]*Account, error) {
	var all []*Account
	err := s.store.ForEach(ctx, func(acc *Account) error {
		all = append(all, acc)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Простая вставка в топ — аккаунтов немного, сортировать всё незачем.
	var top []*Account
	for _, acc := range all {
		top = insertTop(top, acc, n)
	}
	return top, nil
}

func insertTop(top []*Account, acc *Account, n int) []*Account {
	pos := len(top)
	for i, t := range top {
		if acc.Balance > t.Balance {
			pos = i
			break
		}
	}
	if pos >= n {
		return top
	}
	top = append(top, nil)
	copy(top[pos+1:], top[pos:])
	top[pos] = acc
	if len(top) > n {
		top = top[:n]
	}
	return top
}
