package events_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickerton.ru/clicker-bot/internal/catalog"
	"clickerton.ru/clicker-bot/internal/common"
	"clickerton.ru/clicker-bot/internal/config"
	"clickerton.ru/clicker-bot/internal/events"
	"clickerton.ru/clicker-bot/internal/ledger"
	"clickerton.ru/clicker-bot/internal/store/jsonfile"
)

func newTestRouter(t *testing.T) (*events.Router, *ledger.Service) {
	t.Helper()

	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "users.json"), "ru")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		ClickCoins:         1,
		AdRewardCoins:      15,
		ReferralBonus:      50,
		ExchangeRate:       100000,
		PvPWinCoins:        100,
		PvPWinGems:         decimal.RequireFromString("0.01"),
		SupportedLanguages: []string{"ru", "en"},
		DefaultLanguage:    "ru",
	}
	svc := ledger.NewService(store, catalog.New(), cfg)
	return events.NewRouter(svc, cfg), svc
}

// Клик без поля coins берёт дефолт из конфига.
func TestDispatchClickDefault(t *testing.T) {
	router, _ := newTestRouter(t)
	ctx := context.Background()

	out, err := router.Dispatch(ctx, 1, []byte(`{"type":"click"}`))
	require.NoError(t, err)
	assert.Equal(t, events.TypeClick, out.Type)
	assert.Equal(t, int64(1), out.Coins)
	assert.Equal(t, int64(1), out.Account.Balance)
	assert.Equal(t, int64(1), out.Account.Clicks)
}

func TestDispatchClickExplicitCoins(t *testing.T) {
	router, _ := newTestRouter(t)

	out, err := router.Dispatch(context.Background(), 1, []byte(`{"type":"click","coins":5}`))
	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Coins)
	assert.Equal(t, int64(5), out.Account.Balance)
}

func TestDispatchAdWatched(t *testing.T) {
	router, _ := newTestRouter(t)

	out, err := router.Dispatch(context.Background(), 1, []byte(`{"type":"ad_watched"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(15), out.Coins)
	assert.Equal(t, int64(1), out.Account.AdsWatched)
}

func TestDispatchLanguageChange(t *testing.T) {
	router, _ := newTestRouter(t)
	ctx := context.Background()

	out, err := router.Dispatch(ctx, 1, []byte(`{"type":"language_change","language":"en"}`))
	require.NoError(t, err)
	assert.Equal(t, "en", out.Account.Language)

	_, err = router.Dispatch(ctx, 1, []byte(`{"type":"language_change","language":"de"}`))
	assert.ErrorIs(t, err, common.ErrUnsupportedLanguage)
}

func TestDispatchExchange(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	_, err := svc.CreditBalance(ctx, 1, 100000)
	require.NoError(t, err)

	out, err := router.Dispatch(ctx, 1,
		[]byte(`{"type":"exchange","amount":"1","direction":"coins_to_gems"}`))
	require.NoError(t, err)
	assert.Equal(t, ledger.DirectionCoinsToGems, out.Direction)
	assert.Equal(t, int64(100000), out.Coins)
	assert.Equal(t, int64(0), out.Account.Balance)
	assert.True(t, out.Account.PremiumBalance.Equal(decimal.NewFromInt(1)))
}

func TestDispatchBuyNFT(t *testing.T) {
	router, svc := newTestRouter(t)
	ctx := context.Background()

	_, err := svc.CreditPremium(ctx, 1, decimal.NewFromInt(1))
	require.NoError(t, err)

	out, err := router.Dispatch(ctx, 1, []byte(`{"type":"buy_nft","nft_id":"nft_sword"}`))
	require.NoError(t, err)
	assert.Equal(t, "nft_sword", out.Item.ID)
	assert.True(t, out.Account.HasNFT("nft_sword"))
}

func TestDispatchPvPResult(t *testing.T) {
	router, _ := newTestRouter(t)
	ctx := context.Background()

	out, err := router.Dispatch(ctx, 1,
		[]byte(`{"type":"pvp_result","battle_id":"b1","result":"win"}`))
	require.NoError(t, err)
	assert.True(t, out.MatchWon)
	assert.Equal(t, int64(1), out.Account.PvPWins)

	out, err = router.Dispatch(ctx, 1,
		[]byte(`{"type":"pvp_result","battle_id":"b2","result":"lose"}`))
	require.NoError(t, err)
	assert.False(t, out.MatchWon)
	assert.Equal(t, int64(1), out.Account.PvPLosses)
}

// Ошибки леджера доходят до вызывающего кода как есть.
func TestDispatchPropagatesLedgerErrors(t *testing.T) {
	router, _ := newTestRouter(t)
	ctx := context.Background()

	_, err := router.Dispatch(ctx, 1, []byte(`{"type":"buy_nft","nft_id":"nft_dragon"}`))
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	_, err = router.Dispatch(ctx, 1, []byte(`{"type":"oops"}`))
	assert.ErrorIs(t, err, common.ErrMalformedEvent)
}
