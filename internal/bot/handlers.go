// handlers.go — обработчики команд, inline-кнопок и данных мини-приложения.
// Тексты ответов повторяют стиль старого бота: эмодзи + короткие строки.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"

	"clickerton.ru/clicker-bot/internal/common"
	"clickerton.ru/clicker-bot/internal/events"
	"clickerton.ru/clicker-bot/internal/ledger"
)

const helpText = "ℹ️ Помощь\n\n" +
	"🎮 Кликер — кликайте по монете для заработка\n" +
	"👥 Реф система — приглашайте друзей (+50 монет за каждого)\n" +
	"📺 Реклама — смотрите рекламу за монеты\n" +
	"💎 Обмен — меняйте монеты на гемы для магазина NFT\n" +
	"⚔️ PvP — сражайтесь и получайте награды\n\n" +
	"По вопросам: @support"

// handleStart обрабатывает /start: создаёт аккаунт, привязывает реферала
// из deep-link-аргумента и показывает главное меню.
func (b *Bot) handleStart(ctx context.Context, chatID, userID int64, args []string) {
	acc, err := b.ledger.GetAccount(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка создания аккаунта")
		b.sendMessage(ctx, chatID, "❌ Ошибка, попробуйте позже")
		return
	}

	// Реферальная ссылка: /start <id пригласившего>.
	// Связка и бонус рефереру — одна транзакция внутри леджера.
	if len(args) > 0 {
		if referrerID, err := strconv.ParseInt(args[0], 10, 64); err == nil {
			if _, err := b.ledger.LinkReferral(ctx, userID, referrerID); err != nil {
				log.WithError(err).WithFields(log.Fields{
					"referee": userID, "referrer": referrerID,
				}).Error("Ошибка реферальной связки")
			}
		}
	}

	keyboard := &telego.InlineKeyboardMarkup{
		InlineKeyboard: [][]telego.InlineKeyboardButton{
			{
				{Text: "🎮 Начать игру", WebApp: &telego.WebAppInfo{URL: b.cfg.WebAppURL}},
			},
			{
				{Text: "💰 Мой баланс", CallbackData: "balance"},
				{Text: "👥 Реф система", CallbackData: "referral"},
			},
			{
				{Text: "🛒 Магазин", CallbackData: "shop"},
				{Text: "ℹ️ Помощь", CallbackData: "help"},
			},
		},
	}

	text := fmt.Sprintf(
		"👋 Добро пожаловать в Clicker Game!\n\n"+
			"💰 Ваш баланс: %s\n"+
			"🎯 Всего кликов: %d\n"+
			"📺 Просмотрено рекламы: %d\n\n"+
			"Нажмите '🎮 Начать игру' чтобы открыть кликер!",
		common.FormatCoins(acc.Balance), acc.Clicks, acc.AdsWatched,
	)

	_, err = b.api.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:      telego.ChatID{ID: chatID},
		Text:        text,
		ReplyMarkup: keyboard,
	})
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки приветствия")
	}
}

// handleCallback обрабатывает нажатия inline-кнопок.
// Ответы показываются алертом, как в старом боте.
func (b *Bot) handleCallback(ctx context.Context, query *telego.CallbackQuery) {
	userID := query.From.ID

	acc, err := b.ledger.GetAccount(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка чтения аккаунта")
		b.answerCallback(ctx, query.ID, "❌ Ошибка, попробуйте позже")
		return
	}

	var text string
	switch query.Data {
	case "balance":
		text = fmt.Sprintf(
			"💰 Ваш баланс: %s\n"+
				"💎 %s\n"+
				"🏆 Всего заработано: %s\n"+
				"🎯 Кликов: %d\n"+
				"📺 Рекламы: %d\n"+
				"⚔️ PvP: %d побед / %d поражений",
			common.FormatCoins(acc.Balance),
			common.FormatGems(acc.PremiumBalance),
			common.FormatCoins(acc.TotalEarned),
			acc.Clicks, acc.AdsWatched,
			acc.PvPWins, acc.PvPLosses,
		)

	case "referral":
		refLink := fmt.Sprintf("https://t.me/%s?start=%d", b.username, userID)
		text = fmt.Sprintf(
			"👥 Реферальная система\n\n"+
				"🔗 Ваша ссылка:\n%s\n\n"+
				"👥 Приглашено: %d человек\n"+
				"💰 Бонус за приглашение: %s",
			refLink, len(acc.Referrals), common.FormatCoins(b.cfg.ReferralBonus),
		)

	case "shop":
		var sb strings.Builder
		sb.WriteString("🛒 Магазин NFT (цены в гемах):\n\n")
		for _, item := range b.catalog.All() {
			owned := ""
			if acc.HasNFT(item.ID) {
				owned = " ✅"
			}
			sb.WriteString(fmt.Sprintf("%s — %s 💎 (сила %d, прочность %d)%s\n",
				item.Name, item.Price.String(), item.Power, item.Durability, owned))
		}
		text = sb.String()

	case "help":
		text = helpText

	default:
		log.WithField("data", query.Data).Debug("Неизвестный callback")
		return
	}

	b.answerCallback(ctx, query.ID, text)
}

func (b *Bot) answerCallback(ctx context.Context, queryID, text string) {
	err := b.api.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       true,
	})
	if err != nil {
		log.WithError(err).Error("Ошибка ответа на callback")
	}
}

// handleWebAppData обрабатывает игровые события из мини-приложения.
func (b *Bot) handleWebAppData(ctx context.Context, message *telego.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	out, err := b.router.Dispatch(ctx, userID, []byte(message.WebAppData.Data))
	if err != nil {
		b.sendMessage(ctx, chatID, userErrorText(err))
		if !isUserError(err) {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка обработки события")
		}
		return
	}

	b.sendMessage(ctx, chatID, outcomeText(out))
}

// outcomeText формирует ответ игроку по результату события.
func outcomeText(out *events.Outcome) string {
	acc := out.Account
	switch out.Type {
	case events.TypeClick:
		return fmt.Sprintf("🪙 +%s!\n💰 Баланс: %s\n🎯 Всего кликов: %d",
			common.FormatCoins(out.Coins), common.FormatCoins(acc.Balance), acc.Clicks)

	case events.TypeAdWatched:
		return fmt.Sprintf("📺 +%s за рекламу!\n💰 Баланс: %s\n🎬 Всего рекламы: %d",
			common.FormatCoins(out.Coins), common.FormatCoins(acc.Balance), acc.AdsWatched)

	case events.TypeLanguageChange:
		return fmt.Sprintf("🌐 Язык переключён: %s", acc.Language)

	case events.TypeExchange:
		if out.Direction == ledger.DirectionCoinsToGems {
			return fmt.Sprintf("💎 Обмен выполнен: -%s\n💰 Баланс: %s\n💎 %s",
				common.FormatCoins(out.Coins), common.FormatCoins(acc.Balance), common.FormatGems(acc.PremiumBalance))
		}
		return fmt.Sprintf("💰 Обмен выполнен: +%s\n💰 Баланс: %s\n💎 %s",
			common.FormatCoins(out.Coins), common.FormatCoins(acc.Balance), common.FormatGems(acc.PremiumBalance))

	case events.TypeBuyNFT:
		return fmt.Sprintf("🛒 Куплено: %s!\n💎 Осталось: %s", out.Item.Name, common.FormatGems(acc.PremiumBalance))

	case events.TypePvPResult:
		if out.MatchWon {
			return fmt.Sprintf("⚔️ Победа! Награда начислена\n💰 Баланс: %s\n💎 %s",
				common.FormatCoins(acc.Balance), common.FormatGems(acc.PremiumBalance))
		}
		return fmt.Sprintf("⚔️ Поражение. Статистика: %d/%d", acc.PvPWins, acc.PvPLosses)
	}
	return "✅ Готово"
}

// isUserError — ошибки, в которых виноват ввод игрока, а не бот.
func isUserError(err error) bool {
	return errors.Is(err, common.ErrInsufficientFunds) ||
		errors.Is(err, common.ErrUnknownItem) ||
		errors.Is(err, common.ErrItemAlreadyOwned) ||
		errors.Is(err, common.ErrUnsupportedLanguage) ||
		errors.Is(err, common.ErrMalformedEvent) ||
		errors.Is(err, common.ErrUnknownOutcome) ||
		errors.Is(err, common.ErrInvalidAmount)
}

func userErrorText(err error) string {
	switch {
	case errors.Is(err, common.ErrInsufficientFunds):
		return "❌ Недостаточно средств"
	case errors.Is(err, common.ErrUnknownItem):
		return "❌ Такого предмета нет в магазине"
	case errors.Is(err, common.ErrItemAlreadyOwned):
		return "❌ Этот предмет у вас уже есть"
	case errors.Is(err, common.ErrUnsupportedLanguage):
		return "❌ Этот язык не поддерживается"
	case errors.Is(err, common.ErrMalformedEvent), errors.Is(err, common.ErrUnknownOutcome),
		errors.Is(err, common.ErrInvalidAmount):
		return "❌ Ошибка обработки данных"
	default:
		return "❌ Ошибка, попробуйте позже"
	}
}

// handleTop показывает топ-5 игроков по балансу.
func (b *Bot) handleTop(ctx context.Context, chatID int64) {
	top, err := b.ledger.TopByBalance(ctx, 5)
	if err != nil {
		log.WithError(err).Error("Ошибка построения топа")
		b.sendMessage(ctx, chatID, "❌ Ошибка, попробуйте позже")
		return
	}
	if len(top) == 0 {
		b.sendMessage(ctx, chatID, "🏆 Пока никто не играл")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 Топ игроков:\n\n")
	for i, acc := range top {
		sb.WriteString(fmt.Sprintf("%d. id%d — %s\n", i+1, acc.ID, common.FormatCoins(acc.Balance)))
	}
	b.sendMessage(ctx, chatID, sb.String())
}

// handleAdminCredit обрабатывает /give и /take:
//
//	/give <user_id> <сумма> <пароль>
//
// Отправитель должен быть в ADMIN_IDS и знать пароль (Argon2id-хеш
// в конфиге). sign = +1 для выдачи, -1 для изъятия.
func (b *Bot) handleAdminCredit(ctx context.Context, chatID, userID int64, args []string, sign int64) {
	if !b.cfg.IsAdmin(userID) {
		b.sendMessage(ctx, chatID, "❌ У вас нет прав администратора")
		return
	}
	if len(args) < 3 {
		b.sendMessage(ctx, chatID, "❌ Формат: /give <user_id> <сумма> <пароль>")
		return
	}

	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.sendMessage(ctx, chatID, "❌ Некорректный user_id")
		return
	}
	amount, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || amount <= 0 {
		b.sendMessage(ctx, chatID, "❌ Сумма должна быть положительным числом")
		return
	}
	if b.cfg.AdminPasswordHash == "" || !verifyArgon2id(args[2], b.cfg.AdminPasswordHash) {
		log.WithField("user_id", userID).Warn("Неверный админ-пароль")
		b.sendMessage(ctx, chatID, "❌ Неверный пароль")
		return
	}

	acc, err := b.ledger.CreditBalance(ctx, targetID, sign*amount)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientFunds) {
			b.sendMessage(ctx, chatID, "❌ У игрока недостаточно монет")
			return
		}
		log.WithError(err).Error("Ошибка админ-операции")
		b.sendMessage(ctx, chatID, "❌ Ошибка, попробуйте позже")
		return
	}

	log.WithFields(log.Fields{
		"admin":  userID,
		"target": targetID,
		"amount": sign * amount,
	}).Info("Админ-операция с балансом")
	b.sendMessage(ctx, chatID, fmt.Sprintf("✅ Готово. Баланс игрока: %s", common.FormatCoins(acc.Balance)))
}
