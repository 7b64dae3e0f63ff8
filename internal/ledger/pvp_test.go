package ledger_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickerton.ru/clicker-bot/internal/common"
	"clickerton.ru/clicker-bot/internal/ledger"
)

func TestRecordMatchResultWin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	acc, err := svc.RecordMatchResult(ctx, 1, "battle-1", ledger.OutcomeWin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.PvPWins)
	assert.Equal(t, int64(0), acc.PvPLosses)
	assert.Equal(t, int64(100), acc.Balance)
	assert.Equal(t, int64(100), acc.TotalEarned)
	assert.True(t, acc.PremiumBalance.Equal(decimal.RequireFromString("0.01")))
}

func TestRecordMatchResultLose(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	acc, err := svc.RecordMatchResult(ctx, 1, "battle-2", ledger.OutcomeLose)
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.PvPLosses)
	// Поражение не трогает балансы
	assert.Equal(t, int64(0), acc.Balance)
	assert.True(t, acc.PremiumBalance.IsZero())
}

func TestRecordMatchResultUnknownOutcome(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordMatchResult(ctx, 1, "battle-3", ledger.MatchOutcome("draw"))
	assert.ErrorIs(t, err, common.ErrUnknownOutcome)
}
