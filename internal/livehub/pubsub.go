package livehub

import (
	"civicdesk/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ChangeSource opens the Redis subscription carrying change events.
type ChangeSource interface {
	SubscribeChanges(ctx context.Context) *redis.PubSub
}

// Listen слухає Redis Pub/Sub і передає події в хаб, поки ctx не завершиться.
func (m *ManagerService) Listen(ctx context.Context, source ChangeSource) {
	pubsub := source.SubscribeChanges(ctx)
	if pubsub == nil {
		m.Logger.Warn("Change feed unavailable, live updates disabled")
		return
	}
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := m.HandlePayload(ctx, msg.Payload); err != nil {
				m.Logger.Warn("Skipping malformed change event", zap.Error(err))
			}
		}
	}
}

// HandlePayload decodes one change event and queues it for broadcast.
func (m *ManagerService) HandlePayload(ctx context.Context, payload string) error {
	var event models.ChangeEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return fmt.Errorf("decode change event: %w", err)
	}
	if event.Collection == "" {
		return errors.New("change event without collection")
	}

	select {
	case m.EventsCh <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
