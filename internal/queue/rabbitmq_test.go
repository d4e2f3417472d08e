package queue

import (
	"civicdesk/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAck struct {
	acked, nacked, requeued bool
}

func (f *fakeAck) Ack(bool) error {
	f.acked = true
	return nil
}

func (f *fakeAck) Nack(_, requeue bool) error {
	f.nacked = true
	f.requeued = requeue
	return nil
}

func TestSettle_AcksOnSuccess(t *testing.T) {
	ack := &fakeAck{}
	var got []byte

	settle(context.Background(), []byte(`{"type":"status_changed"}`), "m1", ack, func(_ context.Context, body []byte) error {
		got = body
		return nil
	}, zap.NewNop())

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	assert.JSONEq(t, `{"type":"status_changed"}`, string(got))
}

func TestSettle_NacksWithoutRequeue(t *testing.T) {
	ack := &fakeAck{}

	settle(context.Background(), []byte("garbage"), "m2", ack, func(context.Context, []byte) error {
		return errors.New("bad body")
	}, zap.NewNop())

	assert.False(t, ack.acked)
	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
}

func TestNilPublisher_DropsEvents(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.PublishEvent(context.Background(), models.ComplaintEvent{Type: models.EventStatusChanged}))
	p.Close()
}

// TestRabbitRoundTrip needs a broker; set TEST_RABBITMQ_URL to run it.
func TestRabbitRoundTrip(t *testing.T) {
	url := os.Getenv("TEST_RABBITMQ_URL")
	if url == "" {
		t.Skip("TEST_RABBITMQ_URL not set")
	}
	queueName := "civicdesk_test_" + time.Now().Format("150405.000000")

	pub, err := NewRabbitPublisher(url, queueName)
	require.NoError(t, err)
	defer pub.Close()
	con, err := NewRabbitConsumer(url, queueName, zap.NewNop())
	require.NoError(t, err)
	defer con.Close()

	sent := models.ComplaintEvent{Type: models.EventCategoryAssigned, Category: "lighting", KingID: "k1", At: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, pub.PublishEvent(context.Background(), sent))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	received := make(chan models.ComplaintEvent, 1)
	go con.Consume(ctx, func(_ context.Context, body []byte) error {
		var e models.ComplaintEvent
		if err := json.Unmarshal(body, &e); err != nil {
			return err
		}
		received <- e
		cancel()
		return nil
	})

	select {
	case got := <-received:
		assert.Equal(t, sent.Category, got.Category)
		assert.Equal(t, sent.KingID, got.KingID)
		assert.True(t, sent.At.Equal(got.At))
	case <-time.After(5 * time.Second):
		t.Fatal("no delivery")
	}
}
