package jsonfile_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickerton.ru/clicker-bot/internal/common"
	"clickerton.ru/clicker-bot/internal/ledger"
	"clickerton.ru/clicker-bot/internal/store/jsonfile"
)

func openTestStore(t *testing.T) (*jsonfile.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.json")
	s, err := jsonfile.Open(path, "ru")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpenCreatesEmptyFile(t *testing.T) {
	_, path := openTestStore(t)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(raw))
}

// Данные переживают перезапуск процесса, ключи — строковые ID
// в формате старого users.json.
func TestPersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")

	s, err := jsonfile.Open(path, "ru")
	require.NoError(t, err)

	ctx := context.Background()
	_, err = s.Commit(ctx, 42, func(acc *ledger.Account) error {
		acc.Balance = 100
		acc.PremiumBalance = decimal.RequireFromString("1.5")
		acc.AddNFT("nft_sword")
		acc.AddReferral(7)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Ключ документа — строка "42"
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, "42")

	s2, err := jsonfile.Open(path, "ru")
	require.NoError(t, err)
	defer s2.Close()

	acc, err := s2.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(100), acc.Balance)
	assert.True(t, acc.PremiumBalance.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, []string{"nft_sword"}, acc.NFTs)
	assert.Equal(t, []int64{7}, acc.Referrals)
}

// Ошибка мутации откатывает операцию целиком.
func TestCommitRollbackOnError(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Commit(ctx, 1, func(acc *ledger.Account) error {
		acc.Balance = 50
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Commit(ctx, 1, func(acc *ledger.Account) error {
		acc.Balance = 9999
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acc, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), acc.Balance)
}

// Get отдаёт копию: мутации результата не просачиваются в хранилище.
func TestGetReturnsClone(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	acc, err := s.Get(ctx, 1)
	require.NoError(t, err)
	acc.Balance = 777
	acc.AddNFT("nft_sword")

	fresh, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fresh.Balance)
	assert.Empty(t, fresh.NFTs)
}

func TestExistsWithoutAutoCreate(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, 5)
	require.NoError(t, err)

	ok, err = s.Exists(ctx, 5)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCommitPair(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	err := s.CommitPair(ctx, 1, 2, func(a, b *ledger.Account) error {
		a.Referrer = 2
		b.AddReferral(1)
		b.Balance += 50
		return nil
	})
	require.NoError(t, err)

	a, err := s.Get(ctx, 1)
	require.NoError(t, err)
	b, err := s.Get(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Referrer)
	assert.Equal(t, []int64{1}, b.Referrals)
	assert.Equal(t, int64(50), b.Balance)
}

func TestCommitPairSameID(t *testing.T) {
	s, _ := openTestStore(t)

	err := s.CommitPair(context.Background(), 3, 3, func(a, b *ledger.Account) error {
		return nil
	})
	assert.Error(t, err)
}

// Ошибка парной мутации не оставляет половину изменений.
func TestCommitPairRollback(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.CommitPair(ctx, 1, 2, func(a, b *ledger.Account) error {
		a.Balance = 100
		b.Balance = 100
		return boom
	})
	assert.ErrorIs(t, err, boom)

	ok, err := s.Exists(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

// Ошибка записи на диск — это не ошибка мутации: операция обязана
// вернуть ErrPersistence и оставить состояние в памяти нетронутым.
func TestCommitRollbackOnPersistenceFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	s, err := jsonfile.Open(path, "ru")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Commit(ctx, 1, func(acc *ledger.Account) error {
		acc.Balance = 50
		return nil
	})
	require.NoError(t, err)

	// Ломаем запись: tmp-путь занят каталогом
	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	_, err = s.Commit(ctx, 1, func(acc *ledger.Account) error {
		acc.Balance = 9999
		return nil
	})
	assert.ErrorIs(t, err, common.ErrPersistence)

	acc, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), acc.Balance)

	// После «починки диска» хранилище снова работает
	require.NoError(t, os.Remove(path+".tmp"))
	acc, err = s.Commit(ctx, 1, func(acc *ledger.Account) error {
		acc.Balance++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(51), acc.Balance)
	require.NoError(t, s.Close())
}

// Неудачная запись парной мутации откатывает ОБА аккаунта:
// существующий возвращается к прежнему состоянию, новый не создаётся.
func TestCommitPairRollbackOnPersistenceFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	s, err := jsonfile.Open(path, "ru")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = s.Commit(ctx, 1, func(acc *ledger.Account) error {
		acc.Balance = 50
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, os.Mkdir(path+".tmp", 0o755))

	err = s.CommitPair(ctx, 1, 2, func(a, b *ledger.Account) error {
		a.Balance = 9999
		b.Balance = 9999
		return nil
	})
	assert.ErrorIs(t, err, common.ErrPersistence)

	acc, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), acc.Balance)

	ok, err := s.Exists(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.Remove(path+".tmp"))
	require.NoError(t, s.Close())
}

func TestConcurrentCommits(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := s.Commit(ctx, 10, func(acc *ledger.Account) error {
				acc.Balance++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	acc, err := s.Get(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(n), acc.Balance)
}

func TestForEachSortedByID(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for _, id := range []int64{30, 10, 20} {
		_, err := s.Get(ctx, id)
		require.NoError(t, err)
	}

	var seen []int64
	err := s.ForEach(ctx, func(acc *ledger.Account) error {
		seen = append(seen, acc.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 20, 30}, seen)
}

func TestBackup(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	_, err := s.Commit(ctx, 1, func(acc *ledger.Account) error {
		acc.Balance = 42
		return nil
	})
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, s.Backup(ctx, dir, "users-20260831.json"))

	raw, err := os.ReadFile(filepath.Join(dir, "users-20260831.json"))
	require.NoError(t, err)
	var doc map[string]*ledger.Account
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Contains(t, doc, "1")
	assert.Equal(t, int64(42), doc["1"].Balance)
}
