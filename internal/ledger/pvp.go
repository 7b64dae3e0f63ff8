// pvp.go — учёт результатов PvP-матчей.
//
// Результат приходит от клиента и здесь НЕ проверяется на подлинность —
// это осознанная граница доверия. Серверный арбитр матчей, если появится,
// должен стоять выше по стеку и сверять battle_id.
package ledger

import (
	"context"

	log "github.com/sirupsen/logrus"

	"clickerton.ru/clicker-bot/internal/common"
)

// MatchOutcome — исход матча со слов клиента.
type MatchOutcome string

const (
	OutcomeWin  MatchOutcome = "win"
	OutcomeLose MatchOutcome = "lose"
)

// RecordMatchResult записывает исход матча. Победа даёт фиксированную
// награду монетами и гемами, поражение только увеличивает счётчик.
func (s *Service) RecordMatchResult(ctx context.Context, id int64, battleID string, outcome MatchOutcome) (*Account, error) {
	if outcome != OutcomeWin && outcome != OutcomeLose {
		return nil, common.ErrUnknownOutcome
	}

	winCoins := s.cfg.PvPWinCoins
	winGems := s.cfg.PvPWinGems

	acc, err := s.store.Commit(ctx, id, func(acc *Account) error {
		if outcome == OutcomeWin {
			acc.PvPWins++
			acc.Balance += winCoins
			acc.TotalEarned += winCoins
			acc.PremiumBalance = acc.PremiumBalance.Add(winGems)
		} else {
			acc.PvPLosses++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":   id,
		"battle_id": battleID,
		"outcome":   outcome,
	}).Info("Результат матча записан")
	return acc, nil
}
