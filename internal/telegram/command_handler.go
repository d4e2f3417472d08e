package telegram

import (
	"civicdesk/backend/internal/localization"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// HandleCommand answers bot commands. /start and /chatid reply with the chat id
// an administrator pastes into their dashboard profile. Plain messages are ignored.
func HandleCommand(update *tgbotapi.Update, bot Sender, l *localization.Localizer, lang string, logger *zap.Logger) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	if from := update.Message.From; from != nil && from.LanguageCode != "" {
		lang = from.LanguageCode
	}

	chatID := update.Message.Chat.ID
	var responseText string
	switch update.Message.Command() {
	case "start", "chatid":
		responseText = l.Format(lang, "start", chatID)
	default:
		responseText = l.GetString(lang, "unknown_command")
	}

	msg := tgbotapi.NewMessage(chatID, responseText)
	if _, err := bot.Send(msg); err != nil {
		logger.Warn("failed to answer telegram command", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
