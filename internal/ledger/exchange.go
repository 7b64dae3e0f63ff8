// exchange.go — обмен монет на гемы и обратно по фиксированному курсу.
package ledger

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"clickerton.ru/clicker-bot/internal/common"
)

// ExchangeDirection — направление обмена.
type ExchangeDirection string

const (
	// DirectionCoinsToGems — монеты → гемы
	DirectionCoinsToGems ExchangeDirection = "coins_to_gems"
	// DirectionGemsToCoins — гемы → монеты
	DirectionGemsToCoins ExchangeDirection = "gems_to_coins"
)

// Exchange конвертирует amount гемов между валютами по курсу
// cfg.ExchangeRate монет за гем. Обе ноги выполняются в одном Commit:
// валюта не создаётся и не уничтожается ни на каком пути выхода.
//
// amount задаётся в гемах для обоих направлений; эквивалент в монетах
// обязан быть целым (0.01 гема при курсе 100000 — это ровно 1000 монет).
func (s *Service) Exchange(ctx context.Context, id int64, amount decimal.Decimal, direction ExchangeDirection) (*Account, error) {
	if !amount.IsPositive() {
		return nil, common.ErrInvalidAmount
	}

	coinsLeg := amount.Mul(decimal.NewFromInt(s.cfg.ExchangeRate))
	if !coinsLeg.IsInteger() {
		return nil, common.ErrInvalidAmount
	}
	coins := coinsLeg.IntPart()

	acc, err := s.store.Commit(ctx, id, func(acc *Account) error {
		switch direction {
		case DirectionCoinsToGems:
			if acc.Balance < coins {
				return common.ErrInsufficientFunds
			}
			acc.Balance -= coins
			acc.PremiumBalance = acc.PremiumBalance.Add(amount)
		case DirectionGemsToCoins:
			if acc.PremiumBalance.LessThan(amount) {
				return common.ErrInsufficientFunds
			}
			acc.PremiumBalance = acc.PremiumBalance.Sub(amount)
			acc.Balance += coins
		default:
			return common.ErrInvalidAmount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":   id,
		"direction": direction,
		"gems":      amount.String(),
		"coins":     coins,
	}).Info("Обмен валюты выполнен")
	return acc, nil
}
