// Package postgres — хранилище аккаунтов в PostgreSQL.
// Используется пул соединений pgxpool для работы из нескольких горутин.
//
// Каждый аккаунт — строка таблицы accounts с JSONB-документом в том же
// формате, что и файловый бэкенд. Сериализация мутаций по аккаунту
// достигается блокировкой строки (SELECT ... FOR UPDATE) внутри
// транзакции: конкурентные Commit на один ID выстраиваются в очередь,
// по разным ID идут параллельно.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"clickerton.ru/clicker-bot/internal/common"
	"clickerton.ru/clicker-bot/internal/config"
	"clickerton.ru/clicker-bot/internal/ledger"
)

// Store реализует ledger.AccountStore поверх PostgreSQL.
type Store struct {
	pool            *pgxpool.Pool
	defaultLanguage string
}

// Open подключается к базе, прогоняет миграции и возвращает хранилище.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("база данных недоступна: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	log.Info("Подключение к PostgreSQL установлено")
	return &Store{pool: pool, defaultLanguage: cfg.DefaultLanguage}, nil
}

// Get возвращает аккаунт, создавая его при первом обращении.
func (s *Store) Get(ctx context.Context, id int64) (*ledger.Account, error) {
	return s.Commit(ctx, id, func(*ledger.Account) error { return nil })
}

// Exists сообщает, существует ли аккаунт.
func (s *Store) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: проверка аккаунта %d: %v", common.ErrPersistence, id, err)
	}
	return exists, nil
}

// Commit применяет fn к аккаунту под блокировкой строки и сохраняет документ.
func (s *Store) Commit(ctx context.Context, id int64, fn ledger.MutateFunc) (*ledger.Account, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: начало транзакции: %v", common.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	acc, err := s.lockAccount(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := fn(acc); err != nil {
		// Ошибка бизнес-логики — откат, не ErrPersistence.
		return nil, err
	}

	if err := s.saveAccount(ctx, tx, acc); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: фиксация транзакции: %v", common.ErrPersistence, err)
	}
	return acc, nil
}

// CommitPair применяет fn к двум разным аккаунтам в одной транзакции.
// Строки блокируются в порядке возрастания ID — защита от дедлока
// при встречных операциях.
func (s *Store) CommitPair(ctx context.Context, idA, idB int64, fn ledger.PairMutateFunc) error {
	if idA == idB {
		return fmt.Errorf("CommitPair: одинаковые ID %d", idA)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: начало транзакции: %v", common.ErrPersistence, err)
	}
	defer tx.Rollback(ctx)

	first, second := idA, idB
	if first > second {
		first, second = second, first
	}

	firstAcc, err := s.lockAccount(ctx, tx, first)
	if err != nil {
		return err
	}
	secondAcc, err := s.lockAccount(ctx, tx, second)
	if err != nil {
		return err
	}

	accA, accB := firstAcc, secondAcc
	if first != idA {
		accA, accB = secondAcc, firstAcc
	}

	if err := fn(accA, accB); err != nil {
		return err
	}

	if err := s.saveAccount(ctx, tx, accA); err != nil {
		return err
	}
	if err := s.saveAccount(ctx, tx, accB); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: фиксация транзакции: %v", common.ErrPersistence, err)
	}
	return nil
}

// ForEach обходит все аккаунты в порядке возрастания ID.
func (s *Store) ForEach(ctx context.Context, fn func(acc *ledger.Account) error) error {
	rows, err := s.pool.Query(ctx, `SELECT user_id, doc FROM accounts ORDER BY user_id`)
	if err != nil {
		return fmt.Errorf("%w: выборка аккаунтов: %v", common.ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  int64
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("%w: чтение строки: %v", common.ErrPersistence, err)
		}
		acc, err := decodeAccount(id, raw)
		if err != nil {
			return err
		}
		if err := fn(acc); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: обход аккаунтов: %v", common.ErrPersistence, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// lockAccount блокирует строку аккаунта (создавая её при необходимости)
// и возвращает десериализованный документ.
func (s *Store) lockAccount(ctx context.Context, tx pgx.Tx, id int64) (*ledger.Account, error) {
	var raw []byte
	err := tx.QueryRow(ctx,
		`SELECT doc FROM accounts WHERE user_id = $1 FOR UPDATE`, id,
	).Scan(&raw)

	if errors.Is(err, pgx.ErrNoRows) {
		acc := ledger.NewAccount(id, s.defaultLanguage)
		doc, mErr := json.Marshal(acc)
		if mErr != nil {
			return nil, fmt.Errorf("%w: сериализация аккаунта %d: %v", common.ErrPersistence, id, mErr)
		}
		// Конкурент мог вставить строку первым — тогда просто блокируем её.
		_, err = tx.Exec(ctx,
			`INSERT INTO accounts (user_id, doc) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`,
			id, doc,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: создание аккаунта %d: %v", common.ErrPersistence, id, err)
		}
		err = tx.QueryRow(ctx,
			`SELECT doc FROM accounts WHERE user_id = $1 FOR UPDATE`, id,
		).Scan(&raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: чтение аккаунта %d: %v", common.ErrPersistence, id, err)
	}
	return decodeAccount(id, raw)
}

func (s *Store) saveAccount(ctx context.Context, tx pgx.Tx, acc *ledger.Account) error {
	doc, err := json.Marshal(acc)
	if err != nil {
		return fmt.Errorf("%w: сериализация аккаунта %d: %v", common.ErrPersistence, acc.ID, err)
	}
	_, err = tx.Exec(ctx,
		`UPDATE accounts SET doc = $2, updated_at = NOW() WHERE user_id = $1`,
		acc.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("%w: сохранение аккаунта %d: %v", common.ErrPersistence, acc.ID, err)
	}
	return nil
}

func decodeAccount(id int64, raw []byte) (*ledger.Account, error) {
	var acc ledger.Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return nil, fmt.Errorf("%w: разбор аккаунта %d: %v", common.ErrPersistence, id, err)
	}
	acc.ID = id
	return &acc, nil
}
