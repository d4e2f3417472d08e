// Package worker runs the background consumers fed by the event queue.
package worker

import (
	"civicdesk/backend/internal/models"
	"civicdesk/backend/internal/queue"
	"civicdesk/backend/internal/storage"
	"civicdesk/backend/internal/telegram"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Consumer delivers queue bodies to a handler until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handler queue.Handler) error
}

// Notifier sends the messages for one event.
type Notifier interface {
	Notify(ctx context.Context, event models.ComplaintEvent, r telegram.Recipients) error
}

// Directory resolves the kings an event concerns.
type Directory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetAssignment(ctx context.Context, category string) (*models.CategoryAssignment, error)
}

type NotificationConsumer struct {
	consumer  Consumer
	directory Directory
	notifier  Notifier
	logger    *zap.Logger
}

func NewNotificationConsumer(consumer Consumer, directory Directory, notifier Notifier, logger *zap.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		consumer:  consumer,
		directory: directory,
		notifier:  notifier,
		logger:    logger,
	}
}

// Start blocks consuming complaint events.
func (c *NotificationConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting notification consumer")
	return c.consumer.Consume(ctx, c.Handle)
}

// Handle decodes one ComplaintEvent and notifies its recipients.
func (c *NotificationConsumer) Handle(ctx context.Context, body []byte) error {
	var event models.ComplaintEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to unmarshal complaint event: %w", err)
	}

	c.logger.Debug("processing complaint event",
		zap.String("type", string(event.Type)),
		zap.String("category", event.Category),
		zap.String("complaint_id", event.ComplaintID))

	r, err := c.recipients(ctx, event)
	if err != nil {
		return err
	}
	if err := c.notifier.Notify(ctx, event, r); err != nil {
		return fmt.Errorf("notify %s: %w", event.Type, err)
	}
	return nil
}

func (c *NotificationConsumer) recipients(ctx context.Context, event models.ComplaintEvent) (telegram.Recipients, error) {
	kingID := event.KingID
	if kingID == "" && event.Type == models.EventStatusChanged && event.Category != "" {
		a, err := c.directory.GetAssignment(ctx, event.Category)
		if err != nil {
			return telegram.Recipients{}, fmt.Errorf("lookup assignment %q: %w", event.Category, err)
		}
		if a != nil {
			kingID = a.KingID
		}
	}

	var r telegram.Recipients
	var err error
	if r.King, err = c.user(ctx, kingID); err != nil {
		return r, err
	}
	if r.PreviousKing, err = c.user(ctx, event.PreviousKingID); err != nil {
		return r, err
	}
	return r, nil
}

// user returns nil for an empty id or a deleted account.
func (c *NotificationConsumer) user(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, nil
	}
	u, err := c.directory.GetUserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		c.logger.Debug("notification recipient not found", zap.String("user_id", id))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", id, err)
	}
	return u, nil
}
