package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkReferral(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Реферер должен существовать до перехода по ссылке
	_, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)

	linked, err := svc.LinkReferral(ctx, 200, 100)
	require.NoError(t, err)
	assert.True(t, linked)

	referrer, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{200}, referrer.Referrals)
	assert.Equal(t, int64(50), referrer.Balance)
	assert.Equal(t, int64(50), referrer.TotalEarned)

	referee, err := svc.GetAccount(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(100), referee.Referrer)
	// Бонус получает только пригласивший
	assert.Equal(t, int64(0), referee.Balance)
}

// Повторный /start по той же ссылке не выдаёт бонус второй раз.
func TestLinkReferralIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)

	linked, err := svc.LinkReferral(ctx, 200, 100)
	require.NoError(t, err)
	require.True(t, linked)

	linked, err = svc.LinkReferral(ctx, 200, 100)
	require.NoError(t, err)
	assert.False(t, linked)

	referrer, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(50), referrer.Balance)
	assert.Len(t, referrer.Referrals, 1)
}

func TestLinkReferralSelf(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)

	linked, err := svc.LinkReferral(ctx, 100, 100)
	require.NoError(t, err)
	assert.False(t, linked)

	acc, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), acc.Balance)
	assert.Empty(t, acc.Referrals)
}

// Ссылка со случайным ID не создаёт аккаунт-призрак.
func TestLinkReferralUnknownReferrer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	linked, err := svc.LinkReferral(ctx, 200, 555)
	require.NoError(t, err)
	assert.False(t, linked)
}

// У приглашённого уже есть реферер — второй не перезаписывает первого.
func TestLinkReferralKeepsFirstReferrer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetAccount(ctx, 100)
	require.NoError(t, err)
	_, err = svc.GetAccount(ctx, 101)
	require.NoError(t, err)

	linked, err := svc.LinkReferral(ctx, 200, 100)
	require.NoError(t, err)
	require.True(t, linked)

	linked, err = svc.LinkReferral(ctx, 200, 101)
	require.NoError(t, err)
	assert.False(t, linked)

	referee, err := svc.GetAccount(ctx, 200)
	require.NoError(t, err)
	assert.Equal(t, int64(100), referee.Referrer)

	second, err := svc.GetAccount(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Balance)
}
