// store.go — контракт хранилища аккаунтов.
// Реализации: internal/store/jsonfile (документ users.json) и
// internal/store/postgres (таблица accounts).
package ledger

import "context"

// MutateFunc применяется к текущему состоянию аккаунта под блокировкой.
// Если функция вернула ошибку, изменения не сохраняются.
type MutateFunc func(acc *Account) error

// PairMutateFunc мутирует два аккаунта в одной транзакции
// (реферальная связка: рёбра графа + бонус).
type PairMutateFunc func(a, b *Account) error

// AccountStore — персистентное хранилище аккаунтов.
//
// Требования к реализациям:
//   - Commit сериализуется по ID аккаунта: два конкурентных Commit на один
//     ID не теряют обновления. По разным ID — полная конкурентность.
//   - Изменение либо сохранено целиком до возврата, либо не применено вовсе;
//     при ошибке записи возвращается common.ErrPersistence (обёрнутый).
//   - Запись на диск устойчива к падению процесса посреди записи.
type AccountStore interface {
	// Get возвращает аккаунт, создавая его с нулевыми значениями при
	// первом обращении. Создание сохраняется сразу.
	Get(ctx context.Context, id int64) (*Account, error)

	// Exists сообщает, существует ли аккаунт (без автосоздания).
	Exists(ctx context.Context, id int64) (bool, error)

	// Commit атомарно применяет fn к текущему состоянию аккаунта
	// (с автосозданием) и сохраняет результат. Возвращает копию
	// нового состояния.
	Commit(ctx context.Context, id int64, fn MutateFunc) (*Account, error)

	// CommitPair атомарно применяет fn к двум РАЗНЫМ аккаунтам.
	// Блокировки берутся в порядке возрастания ID — защита от дедлока.
	CommitPair(ctx context.Context, idA, idB int64, fn PairMutateFunc) error

	// ForEach вызывает fn для каждого аккаунта (копии, только чтение)
	// в порядке возрастания ID.
	ForEach(ctx context.Context, fn func(acc *Account) error) error

	// Close освобождает ресурсы хранилища.
	Close() error
}
