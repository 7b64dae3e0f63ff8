// Package filters — фильтры доступа к боту.
// Кликер — игра в личке: групповые чаты и каналы игнорируются,
// чтобы бот не засорял чужие беседы ответами на команды.
package filters

import (
	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

type ChatFilter struct{}

func NewChatFilter() *ChatFilter {
	return &ChatFilter{}
}

// CheckAccess пропускает только личные сообщения от живых пользователей.
func (f *ChatFilter) CheckAccess(message *telego.Message) bool {
	if message == nil {
		log.WithField("component", "ChatFilter").Warn("nil message")
		return false
	}
	if message.From == nil {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Warn("nil message.From (service/channel message?)")
		return false
	}
	if message.From.IsBot {
		return false
	}
	if message.Chat.Type != telego.ChatTypePrivate {
		log.WithFields(log.Fields{
			"component": "ChatFilter",
			"chat_id":   message.Chat.ID,
			"chat_type": message.Chat.Type,
		}).Debug("Сообщение не из лички — игнорируем")
		return false
	}
	return true
}
