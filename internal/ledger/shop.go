// shop.go — покупка NFT-предметов из каталога за гемы.
package ledger

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"clickerton.ru/clicker-bot/internal/catalog"
	"clickerton.ru/clicker-bot/internal/common"
)

// PurchaseItem покупает предмет itemID за гемы.
//
// Повторная покупка уже имеющегося предмета отклоняется с
// common.ErrItemAlreadyOwned ДО списания: старый бот в этом случае
// молча снимал деньги, не выдавая дубликат.
func (s *Service) PurchaseItem(ctx context.Context, id int64, itemID string) (*Account, catalog.Item, error) {
	item, ok := s.catalog.ItemByID(itemID)
	if !ok {
		return nil, catalog.Item{}, fmt.Errorf("%w: %q", common.ErrUnknownItem, itemID)
	}

	acc, err := s.store.Commit(ctx, id, func(acc *Account) error {
		if acc.HasNFT(itemID) {
			return common.ErrItemAlreadyOwned
		}
		if acc.PremiumBalance.LessThan(item.Price) {
			return common.ErrInsufficientFunds
		}
		acc.PremiumBalance = acc.PremiumBalance.Sub(item.Price)
		acc.AddNFT(itemID)
		return nil
	})
	if err != nil {
		return nil, catalog.Item{}, err
	}

	log.WithFields(log.Fields{
		"user_id": id,
		"item":    itemID,
		"price":   item.Price.String(),
	}).Info("Предмет куплен")
	return acc, item, nil
}
