// Package telegram sends complaint notifications to administrators over a Telegram bot.
package telegram

import (
	"civicdesk/backend/internal/localization"
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotService owns the bot connection. It answers commands and backs the Notifier.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Localizer *localization.Localizer
	Language  string
	Logger    *zap.Logger
}

// NewBotService authorizes the bot token.
func NewBotService(token string, localizer *localization.Localizer, lang string, logger *zap.Logger) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	bot.Debug = false
	logger.Info("telegram bot authorized", zap.String("account", bot.Self.UserName))

	return &BotService{
		BotAPI:    bot,
		Localizer: localizer,
		Language:  lang,
		Logger:    logger,
	}, nil
}

// Notifier returns a notifier sending through this bot.
func (s *BotService) Notifier(adminChatID int64) *Notifier {
	return &Notifier{
		Sender:      s.BotAPI,
		Localizer:   s.Localizer,
		Language:    s.Language,
		AdminChatID: adminChatID,
		Logger:      s.Logger,
	}
}

// Run is the main loop for receiving Telegram updates. It returns when ctx is done.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)
	defer s.BotAPI.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			HandleCommand(&update, s.BotAPI, s.Localizer, s.Language, s.Logger)
		}
	}
}
