// migrations.go — встроенные SQL-миграции, применяются при старте.
// Версии отслеживаются в таблице schema_migrations, как и раньше.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// runMigrations выполняет все миграции по порядку.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ошибка создания таблицы миграций: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Accounts},
	}

	for _, m := range migrations {
		if err := execMigration(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}
	return nil
}

// execMigration выполняет одну миграцию в транзакции.
// Уже применённые версии пропускаются.
func execMigration(ctx context.Context, pool *pgxpool.Pool, version int, sql string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", version,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("ошибка проверки миграции: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("ошибка выполнения миграции %d: %w", version, err)
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version) VALUES ($1)", version,
	); err != nil {
		return fmt.Errorf("ошибка записи версии миграции: %w", err)
	}
	return tx.Commit(ctx)
}

// Документ аккаунта лежит в JSONB один в один с файловым форматом,
// поэтому миграция между бэкендами — это просто перенос документов.
var migration001Accounts = `
CREATE TABLE IF NOT EXISTS accounts (
    user_id BIGINT PRIMARY KEY,
    doc JSONB NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts (((doc->>'balance')::BIGINT) DESC);
`
