// router.go — маршрутизатор событий: разбирает payload мини-приложения
// и вызывает соответствующую операцию леджера.
package events

import (
	"context"

	log "github.com/sirupsen/logrus"
	"github.com/shopspring/decimal"

	"clickerton.ru/clicker-bot/internal/catalog"
	"clickerton.ru/clicker-bot/internal/config"
	"clickerton.ru/clicker-bot/internal/ledger"
)

// Router превращает события в вызовы леджера.
type Router struct {
	ledger *ledger.Service
	cfg    *config.Config
}

// NewRouter создаёт маршрутизатор событий.
func NewRouter(svc *ledger.Service, cfg *config.Config) *Router {
	return &Router{ledger: svc, cfg: cfg}
}

// Outcome — результат обработки события для слоя сообщений.
type Outcome struct {
	Type    Type
	Account *ledger.Account

	// Заполняются в зависимости от типа события.
	Coins     int64        // click/ad_watched: сколько начислено; exchange: нога в монетах
	Item      catalog.Item // buy_nft
	Direction ledger.ExchangeDirection
	MatchWon  bool // pvp_result
}

// Dispatch разбирает raw и выполняет событие для игрока userID.
// Возвращает типизированный результат; ошибки леджера пробрасываются
// как есть, чтобы обработчик показал игроку осмысленный текст.
func (r *Router) Dispatch(ctx context.Context, userID int64, raw []byte) (*Outcome, error) {
	ev, err := Decode(raw)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"user_id": userID, "type": ev.Type}).Debug("Событие мини-приложения")

	out := &Outcome{Type: ev.Type}
	switch ev.Type {
	case TypeClick:
		coins := r.cfg.ClickCoins
		if ev.Coins != nil {
			coins = *ev.Coins
		}
		out.Account, err = r.ledger.RecordClick(ctx, userID, coins)
		out.Coins = coins

	case TypeAdWatched:
		reward := r.cfg.AdRewardCoins
		if ev.Reward != nil {
			reward = *ev.Reward
		}
		out.Account, err = r.ledger.RecordAdView(ctx, userID, reward)
		out.Coins = reward

	case TypeLanguageChange:
		out.Account, err = r.ledger.SetLanguage(ctx, userID, ev.Language)

	case TypeExchange:
		out.Direction = ledger.ExchangeDirection(ev.Direction)
		out.Account, err = r.ledger.Exchange(ctx, userID, *ev.Amount, out.Direction)
		if err == nil {
			out.Coins = ev.Amount.Mul(decimal.NewFromInt(r.cfg.ExchangeRate)).IntPart()
		}

	case TypeBuyNFT:
		out.Account, out.Item, err = r.ledger.PurchaseItem(ctx, userID, ev.NFTID)

	case TypePvPResult:
		outcome := ledger.MatchOutcome(ev.Result)
		out.Account, err = r.ledger.RecordMatchResult(ctx, userID, ev.BattleID, outcome)
		out.MatchWon = outcome == ledger.OutcomeWin
	}

	if err != nil {
		return nil, err
	}
	return out, nil
}
