// Package bot содержит главный модуль бота — инициализацию, запуск и остановку.
// bot.go подключает фильтры и middleware, запускает polling и раздаёт
// апдейты обработчикам с ограничением параллелизма.
package bot

import (
	"context"
	"strings"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"clickerton.ru/clicker-bot/internal/bot/filters"
	"clickerton.ru/clicker-bot/internal/bot/middleware"
	"clickerton.ru/clicker-bot/internal/catalog"
	"clickerton.ru/clicker-bot/internal/config"
	"clickerton.ru/clicker-bot/internal/events"
	"clickerton.ru/clicker-bot/internal/ledger"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *telego.Bot
	cfg *config.Config

	ledger  *ledger.Service
	router  *events.Router
	catalog *catalog.Catalog

	chatFilter  *filters.ChatFilter
	rateLimiter *middleware.RateLimiter

	// username бота — для реферальных ссылок t.me/<username>?start=<id>
	username string

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *telego.Bot,
	cfg *config.Config,
	ledgerService *ledger.Service,
	router *events.Router,
	cat *catalog.Catalog,
	username string,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:         api,
		cfg:         cfg,
		ledger:      ledgerService,
		router:      router,
		catalog:     cat,
		chatFilter:  filters.NewChatFilter(),
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		username:    username,
		inflight:    make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	defer b.rateLimiter.Close()

	updates, err := b.api.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: b.cfg.BotUpdateTimeoutSeconds,
	})
	if err != nil {
		log.WithError(err).Error("Не удалось запустить long polling")
		return
	}

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd telego.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update telego.Update) {
	defer middleware.RecoverFromPanic()

	// Нажатия inline-кнопок (баланс, реф система, магазин, помощь)
	if update.CallbackQuery != nil {
		if !b.rateLimiter.Allow(update.CallbackQuery.From.ID) {
			log.WithField("user_id", update.CallbackQuery.From.ID).Debug("rate limited (callback)")
			return
		}
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	message := update.Message
	if message == nil {
		return
	}

	// Логируем входящее
	middleware.LogMessage(message)

	// Кликер работает только в личке
	if !b.chatFilter.CheckAccess(message) {
		return
	}

	// Rate limiting
	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	// Данные мини-приложения — главный игровой канал
	if message.WebAppData != nil {
		b.handleWebAppData(ctx, message)
		return
	}

	if message.Text == "" {
		return
	}

	cmd, args := parseCommand(message.Text)
	if cmd == "" {
		return
	}
	b.routeCommand(ctx, message.Chat.ID, message.From.ID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	log.WithFields(log.Fields{
		"cmd":  cmd,
		"args": args,
	}).Debug("routing command")

	switch cmd {
	case "start":
		b.handleStart(ctx, chatID, userID, args)

	case "top":
		b.handleTop(ctx, chatID)

	case "help":
		b.sendMessage(ctx, chatID, helpText)

	case "give":
		b.handleAdminCredit(ctx, chatID, userID, args, +1)

	case "take":
		b.handleAdminCredit(ctx, chatID, userID, args, -1)
	}
}

// parseCommand выделяет команду и аргументы из "/cmd arg1 arg2".
// "/cmd@botname" тоже принимается. Не команда — пустая строка.
func parseCommand(text string) (string, []string) {
	if !strings.HasPrefix(text, "/") {
		return "", nil
	}
	fields := strings.Fields(text)
	cmd := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), fields[1:]
}

// sendMessage отправляет текст в чат, ошибки только логирует.
func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) {
	_, err := b.api.SendMessage(ctx, &telego.SendMessageParams{
		ChatID: telego.ChatID{ID: chatID},
		Text:   text,
	})
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
