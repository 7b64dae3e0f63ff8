// Package events — схема событий мини-приложения и их маршрутизация
// в операции леджера.
// events.go описывает входящий формат: один тегированный JSON-объект
// на событие, как их шлёт web_app_data.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"clickerton.ru/clicker-bot/internal/common"
)

// Type — тег события.
type Type string

const (
	TypeClick          Type = "click"
	TypeAdWatched      Type = "ad_watched"
	TypeLanguageChange Type = "language_change"
	TypeExchange       Type = "exchange"
	TypeBuyNFT         Type = "buy_nft"
	TypePvPResult      Type = "pvp_result"
)

// Event — разобранное событие. Заполнены только поля своего типа.
// Указатели отличают «поле не прислали» от нулевого значения:
// для coins/reward отсутствие означает «взять дефолт из конфига».
type Event struct {
	Type      Type             `json:"type"`
	Coins     *int64           `json:"coins,omitempty"`     // click
	Reward    *int64           `json:"reward,omitempty"`    // ad_watched
	Language  string           `json:"language,omitempty"`  // language_change
	Amount    *decimal.Decimal `json:"amount,omitempty"`    // exchange, в гемах
	Direction string           `json:"direction,omitempty"` // exchange
	NFTID     string           `json:"nft_id,omitempty"`    // buy_nft
	BattleID  string           `json:"battle_id,omitempty"` // pvp_result
	Result    string           `json:"result,omitempty"`    // pvp_result: win|lose
}

// Decode разбирает сырой payload события и проверяет обязательные поля.
// Любая проблема формата заворачивается в common.ErrMalformedEvent —
// граница транспорта отвечает за валидацию, леджер получает только
// типизированные вызовы.
func Decode(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, malformed("не JSON: %v", err)
	}

	switch ev.Type {
	case TypeClick:
		if ev.Coins != nil && *ev.Coins <= 0 {
			return nil, malformed("coins должно быть > 0")
		}
	case TypeAdWatched:
		if ev.Reward != nil && *ev.Reward <= 0 {
			return nil, malformed("reward должно быть > 0")
		}
	case TypeLanguageChange:
		if ev.Language == "" {
			return nil, malformed("нет поля language")
		}
	case TypeExchange:
		if ev.Amount == nil {
			return nil, malformed("нет поля amount")
		}
		if ev.Direction == "" {
			return nil, malformed("нет поля direction")
		}
	case TypeBuyNFT:
		if ev.NFTID == "" {
			return nil, malformed("нет поля nft_id")
		}
	case TypePvPResult:
		if ev.Result == "" {
			return nil, malformed("нет поля result")
		}
	case "":
		return nil, malformed("нет поля type")
	default:
		return nil, malformed("неизвестный тип %q", ev.Type)
	}
	return &ev, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrMalformedEvent, fmt.Sprintf(format, args...))
}
