package telegram

import (
	"civicdesk/backend/internal/localization"
	"civicdesk/backend/internal/models"
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Recipients are the kings an event concerns, resolved by the worker.
// Either may be nil.
type Recipients struct {
	King         *models.User // current holder of the event's category
	PreviousKing *models.User // holder that lost the category
}

// Message is one outgoing text.
type Message struct {
	ChatID int64
	Text   string
}

// Notifier turns complaint events into localized Telegram messages.
type Notifier struct {
	Sender      Sender
	Localizer   *localization.Localizer
	Language    string
	AdminChatID int64 // 0 disables the admin copy
	Logger      *zap.Logger
}

// Messages builds the texts for event. Kings without a chat id are skipped and
// no message is addressed to the actor of the event.
func (n *Notifier) Messages(event models.ComplaintEvent, r Recipients) []Message {
	lang := n.Language
	var out []Message
	add := func(chatID int64, text string) {
		if chatID != 0 {
			out = append(out, Message{ChatID: chatID, Text: text})
		}
	}
	notifyKing := func(u *models.User, text string) {
		if u != nil && u.ID != event.ActorID {
			add(u.TelegramChatID, text)
		}
	}

	switch event.Type {
	case models.EventStatusChanged:
		key := "status_changed"
		if event.Status == models.StatusResolved {
			key = "status_resolved"
		}
		text := n.Localizer.Format(lang, key, event.ComplaintID, event.Category, event.Status)
		add(n.AdminChatID, text)
		notifyKing(r.King, text)

	case models.EventCategoryAssigned:
		add(n.AdminChatID, n.Localizer.Format(lang, "category_assigned_admin", displayName(r.King, event.KingID), event.Category))
		notifyKing(r.King, n.Localizer.Format(lang, "category_assigned_king", event.Category))
		if r.PreviousKing != nil && (r.King == nil || r.PreviousKing.ID != r.King.ID) {
			notifyKing(r.PreviousKing, n.Localizer.Format(lang, "category_revoked_king", event.Category))
		}

	case models.EventCategoryUnassigned:
		add(n.AdminChatID, n.Localizer.Format(lang, "category_unassigned_admin", event.Category))
		notifyKing(r.PreviousKing, n.Localizer.Format(lang, "category_revoked_king", event.Category))
	}
	return out
}

// Notify sends every message for event. It keeps going after a failed send
// and returns the joined errors.
func (n *Notifier) Notify(ctx context.Context, event models.ComplaintEvent, r Recipients) error {
	var errs []error
	for _, m := range n.Messages(event, r) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := n.Sender.Send(tgbotapi.NewMessage(m.ChatID, m.Text)); err != nil {
			errs = append(errs, fmt.Errorf("send to %d: %w", m.ChatID, err))
			continue
		}
		n.Logger.Debug("telegram notification sent", zap.String("type", string(event.Type)), zap.Int64("chat_id", m.ChatID))
	}
	return errors.Join(errs...)
}

func displayName(u *models.User, fallback string) string {
	switch {
	case u == nil:
		return fallback
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}
