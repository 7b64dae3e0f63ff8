// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: выбирает бэкенд хранилища, создаёт каталог,
// леджер, маршрутизатор событий, бота и планировщик.
package app

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"clickerton.ru/clicker-bot/internal/bot"
	"clickerton.ru/clicker-bot/internal/catalog"
	"clickerton.ru/clicker-bot/internal/config"
	"clickerton.ru/clicker-bot/internal/events"
	"clickerton.ru/clicker-bot/internal/jobs"
	"clickerton.ru/clicker-bot/internal/ledger"
	"clickerton.ru/clicker-bot/internal/store/jsonfile"
	"clickerton.ru/clicker-bot/internal/store/postgres"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Store     ledger.AccountStore
	API       *telego.Bot
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. Хранилище аккаунтов ===
	store, backuper, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия хранилища: %w", err)
	}

	// === 2. Каталог предметов (статический, грузится один раз) ===
	cat := catalog.New()
	log.WithField("items", cat.Size()).Info("Каталог предметов загружен")

	// === 3. Леджер и маршрутизатор событий ===
	ledgerService := ledger.NewService(store, cat, cfg)
	router := events.NewRouter(ledgerService, cfg)

	// === 4. Telegram Bot API ===
	api, err := telego.NewBot(cfg.TelegramBotToken,
		telego.WithDefaultLogger(cfg.AppEnv == "development", true),
	)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	me, err := api.GetMe(ctx)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("ошибка запроса getMe: %w", err)
	}
	log.Infof("Авторизован как @%s", me.Username)

	// === 5. Бот ===
	b := bot.New(api, cfg, ledgerService, router, cat, me.Username)

	// === 6. Планировщик задач ===
	scheduler := jobs.NewScheduler(ledgerService, backuper, cfg.StoreBackupDir)

	return &App{
		Bot:       b,
		Scheduler: scheduler,
		Store:     store,
		API:       api,
	}, nil
}

// openStore открывает выбранный в конфиге бэкенд.
// Бэкапер есть только у файлового бэкенда.
func openStore(ctx context.Context, cfg *config.Config) (ledger.AccountStore, jobs.Backuper, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendFile:
		s, err := jsonfile.Open(cfg.StoreFilePath, cfg.DefaultLanguage)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.StoreBackendPostgres:
		s, err := postgres.Open(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil

	default:
		return nil, nil, fmt.Errorf("неизвестный бэкенд хранилища %q", cfg.StoreBackend)
	}
}
