// referral.go — реферальная система.
// Связка «пригласивший → приглашённый» и бонус рефереру пишутся одной
// транзакцией на пару аккаунтов: старый бот делал это двумя отдельными
// записями, и между ними событие могло потеряться.
package ledger

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

// errAlreadyLinked — внутренний маркер «связка уже есть».
// Наружу не выходит: повторная привязка — это no-op, а не ошибка.
var errAlreadyLinked = errors.New("реферальная связка уже существует")

// LinkReferral привязывает приглашённого к рефереру и начисляет рефереру
// бонус. Возвращает true, если связка создана этим вызовом.
//
// Тихо возвращает (false, nil), когда:
//   - игрок пытается пригласить сам себя;
//   - аккаунт реферера не существует;
//   - у приглашённого уже есть реферер или он уже в списке у реферера.
//
// Операция идемпотентна: повторный вызов с той же парой ничего не меняет.
func (s *Service) LinkReferral(ctx context.Context, refereeID, referrerID int64) (bool, error) {
	if refereeID == referrerID {
		log.WithField("user_id", refereeID).Debug("Попытка пригласить самого себя")
		return false, nil
	}

	// Реферер должен существовать: ссылка со случайным ID не создаёт аккаунт.
	exists, err := s.store.Exists(ctx, referrerID)
	if err != nil {
		return false, err
	}
	if !exists {
		log.WithFields(log.Fields{"referee": refereeID, "referrer": referrerID}).
			Debug("Реферер не найден, связка пропущена")
		return false, nil
	}

	bonus := s.cfg.ReferralBonus
	err = s.store.CommitPair(ctx, refereeID, referrerID, func(referee, referrer *Account) error {
		// Проверки под блокировками обоих аккаунтов: конкурентный /start
		// по той же ссылке не создаст дубль и не выдаст бонус дважды.
		if referee.Referrer != 0 || referrer.HasReferral(refereeID) {
			return errAlreadyLinked
		}
		referee.Referrer = referrerID
		referrer.AddReferral(refereeID)
		referrer.Balance += bonus
		referrer.TotalEarned += bonus
		return nil
	})
	if errors.Is(err, errAlreadyLinked) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	log.WithFields(log.Fields{
		"referee":  refereeID,
		"referrer": referrerID,
		"bonus":    bonus,
	}).Info("Реферальная связка создана")
	return true, nil
}
