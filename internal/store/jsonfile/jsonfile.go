// Package jsonfile — файловое хранилище аккаунтов: один JSON-документ
// (users.json), совместимый со старым форматом бота.
//
// Старая схема «прочитать весь файл → поменять → переписать» теряла
// обновления при конкурентных событиях. Здесь документ живёт в памяти,
// мутации сериализуются по ID аккаунта (страйпы мьютексов), а запись
// на диск атомарна: временный файл + fsync + rename. Падение процесса
// посреди записи не оставляет обрезанный документ.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"

	"clickerton.ru/clicker-bot/internal/common"
	"clickerton.ru/clicker-bot/internal/ledger"
)

// Число страйпов блокировок. Хватает на сотни конкурентных игроков,
// при этом массив мьютексов остаётся крошечным.
const lockStripes = 64

// Store реализует ledger.AccountStore поверх одного JSON-документа.
type Store struct {
	path            string
	defaultLanguage string

	// mu защищает карту аккаунтов и запись файла.
	mu       sync.Mutex
	accounts map[int64]*ledger.Account

	// stripes сериализуют мутации по ID аккаунта.
	// Разные ID идут в разные страйпы и не блокируют друг друга.
	stripes [lockStripes]sync.Mutex
}

// Open загружает документ (или создаёт пустой, как старый бот) и
// возвращает готовое хранилище.
func Open(path, defaultLanguage string) (*Store, error) {
	s := &Store{
		path:            path,
		defaultLanguage: defaultLanguage,
		accounts:        make(map[int64]*ledger.Account),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// Первый запуск: сразу пишем пустой документ, чтобы проверить,
		// что путь вообще доступен для записи.
		if err := s.saveLocked(); err != nil {
			return nil, err
		}
		log.WithField("path", path).Info("Создан новый файл хранилища")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: чтение %s: %v", common.ErrPersistence, path, err)
	}

	var doc map[string]*ledger.Account
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: разбор %s: %v", common.ErrPersistence, path, err)
	}
	for key, acc := range doc {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: некорректный ключ аккаунта %q", common.ErrPersistence, key)
		}
		acc.ID = id
		if acc.Language == "" {
			acc.Language = defaultLanguage
		}
		s.accounts[id] = acc
	}

	log.WithFields(log.Fields{"path": path, "accounts": len(s.accounts)}).
		Info("Хранилище аккаунтов загружено")
	return s, nil
}

func (s *Store) stripe(id int64) *sync.Mutex {
	idx := uint64(id) % lockStripes
	return &s.stripes[idx]
}

// Get возвращает копию аккаунта, создавая его при первом обращении.
func (s *Store) Get(_ context.Context, id int64) (*ledger.Account, error) {
	st := s.stripe(id)
	st.Lock()
	defer st.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[id]; ok {
		return acc.Clone(), nil
	}

	acc := ledger.NewAccount(id, s.defaultLanguage)
	s.accounts[id] = acc
	if err := s.saveLocked(); err != nil {
		delete(s.accounts, id)
		return nil, err
	}
	return acc.Clone(), nil
}

// Exists сообщает, существует ли аккаунт, без автосоздания.
func (s *Store) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[id]
	return ok, nil
}

// Commit атомарно применяет fn к аккаунту и сохраняет документ.
// При ошибке fn или ошибке записи состояние в памяти не меняется.
func (s *Store) Commit(_ context.Context, id int64, fn ledger.MutateFunc) (*ledger.Account, error) {
	st := s.stripe(id)
	st.Lock()
	defer st.Unlock()

	// Рабочая копия: fn мутирует её вне глобальной блокировки.
	s.mu.Lock()
	cur, existed := s.accounts[id]
	var work *ledger.Account
	if existed {
		work = cur.Clone()
	} else {
		work = ledger.NewAccount(id, s.defaultLanguage)
	}
	s.mu.Unlock()

	if err := fn(work); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[id] = work
	if err := s.saveLocked(); err != nil {
		// Откат: операция считается не применённой.
		if existed {
			s.accounts[id] = cur
		} else {
			delete(s.accounts, id)
		}
		return nil, err
	}
	return work.Clone(), nil
}

// CommitPair атомарно применяет fn к двум разным аккаунтам.
// Страйпы блокируются в порядке возрастания индекса — иначе два встречных
// CommitPair могли бы навечно ждать друг друга.
func (s *Store) CommitPair(_ context.Context, idA, idB int64, fn ledger.PairMutateFunc) error {
	if idA == idB {
		return fmt.Errorf("CommitPair: одинаковые ID %d", idA)
	}

	ia := uint64(idA) % lockStripes
	ib := uint64(idB) % lockStripes
	first, second := ia, ib
	if first > second {
		first, second = second, first
	}
	s.stripes[first].Lock()
	defer s.stripes[first].Unlock()
	if second != first {
		s.stripes[second].Lock()
		defer s.stripes[second].Unlock()
	}

	s.mu.Lock()
	curA, existedA := s.accounts[idA]
	curB, existedB := s.accounts[idB]
	workA := s.cloneOrNewLocked(curA, idA)
	workB := s.cloneOrNewLocked(curB, idB)
	s.mu.Unlock()

	if err := fn(workA, workB); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[idA] = workA
	s.accounts[idB] = workB
	if err := s.saveLocked(); err != nil {
		if existedA {
			s.accounts[idA] = curA
		} else {
			delete(s.accounts, idA)
		}
		if existedB {
			s.accounts[idB] = curB
		} else {
			delete(s.accounts, idB)
		}
		return err
	}
	return nil
}

func (s *Store) cloneOrNewLocked(cur *ledger.Account, id int64) *ledger.Account {
	if cur != nil {
		return cur.Clone()
	}
	return ledger.NewAccount(id, s.defaultLanguage)
}

// ForEach обходит снимок всех аккаунтов в порядке возрастания ID.
func (s *Store) ForEach(_ context.Context, fn func(acc *ledger.Account) error) error {
	s.mu.Lock()
	snapshot := make([]*ledger.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		snapshot = append(snapshot, acc.Clone())
	}
	s.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].ID < snapshot[j].ID })
	for _, acc := range snapshot {
		if err := fn(acc); err != nil {
			return err
		}
	}
	return nil
}

// Backup пишет копию текущего документа в dir (для ночного cron-бэкапа).
func (s *Store) Backup(_ context.Context, dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: создание %s: %v", common.ErrPersistence, dir, err)
	}

	s.mu.Lock()
	raw, err := s.marshalLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	target := filepath.Join(dir, name)
	if err := writeAtomic(target, raw); err != nil {
		return err
	}
	log.WithField("path", target).Info("Бэкап хранилища записан")
	return nil
}

// Close записывает финальное состояние. Вызывается на shutdown.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) marshalLocked() ([]byte, error) {
	doc := make(map[string]*ledger.Account, len(s.accounts))
	for id, acc := range s.accounts {
		doc[strconv.FormatInt(id, 10)] = acc
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: сериализация: %v", common.ErrPersistence, err)
	}
	return raw, nil
}

// saveLocked атомарно переписывает документ. Вызывать только под s.mu.
func (s *Store) saveLocked() error {
	raw, err := s.marshalLocked()
	if err != nil {
		return err
	}
	return writeAtomic(s.path, raw)
}

// writeAtomic пишет данные во временный файл рядом с целевым,
// сбрасывает их на диск и переименовывает. Rename в пределах одной
// файловой системы атомарен: читатель видит либо старый документ,
// либо новый, но никогда обрезанный.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: создание %s: %v", common.ErrPersistence, tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: запись %s: %v", common.ErrPersistence, tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: fsync %s: %v", common.ErrPersistence, tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: закрытие %s: %v", common.ErrPersistence, tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: переименование в %s: %v", common.ErrPersistence, path, err)
	}
	return nil
}
