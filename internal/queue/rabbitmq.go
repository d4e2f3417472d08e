// Package queue carries complaint events from the API to the notification worker over RabbitMQ.
package queue

import (
	"civicdesk/backend/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Handler processes one delivery body. A non-nil error nacks the delivery without requeue.
type Handler func(ctx context.Context, body []byte) error

type connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// dial opens a channel and declares the durable queue.
func dial(url, queue string) (*connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	return &connection{conn: conn, channel: ch, queue: queue}, nil
}

func (c *connection) Close() {
	if c == nil {
		return
	}
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// Publisher queues ComplaintEvents. A nil *Publisher drops events silently,
// which is how the API runs without a broker.
type Publisher struct {
	mu sync.Mutex // amqp channels are not safe for concurrent publishing
	c  *connection
}

// NewRabbitPublisher connects to url and declares queue.
func NewRabbitPublisher(url, queue string) (*Publisher, error) {
	c, err := dial(url, queue)
	if err != nil {
		return nil, err
	}
	return &Publisher{c: c}, nil
}

// PublishEvent sends the event as a persistent JSON message.
func (p *Publisher) PublishEvent(ctx context.Context, event models.ComplaintEvent) error {
	if p == nil || p.c == nil {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.c.channel.PublishWithContext(ctx,
		"",        // exchange
		p.c.queue, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         string(event.Type),
			Body:         body,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() {
	if p != nil {
		p.c.Close()
	}
}

// Consumer reads deliveries from the queue one at a time.
type Consumer struct {
	c      *connection
	Logger *zap.Logger
}

// NewRabbitConsumer connects to url and declares queue.
func NewRabbitConsumer(url, queue string, logger *zap.Logger) (*Consumer, error) {
	c, err := dial(url, queue)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// one unacked delivery at a time
	if err := c.channel.Qos(1, 0, false); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}
	return &Consumer{c: c, Logger: logger}, nil
}

// Consume blocks until ctx is done or the broker closes the delivery channel.
// Deliveries are acked when handler succeeds and dropped otherwise, so a
// malformed message cannot loop forever.
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	msgs, err := c.c.channel.Consume(
		c.c.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed by broker")
			}
			settle(ctx, d.Body, d.MessageId, d, handler, c.Logger)
		}
	}
}

// acknowledger is the part of amqp.Delivery that settle uses.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, body []byte, id string, ack acknowledger, handler Handler, logger *zap.Logger) {
	if err := handler(ctx, body); err != nil {
		logger.Warn("dropping queue message", zap.String("message_id", id), zap.Error(err))
		if nackErr := ack.Nack(false, false); nackErr != nil {
			logger.Error("nack failed", zap.Error(nackErr))
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		logger.Error("ack failed", zap.Error(err))
	}
}

// Close releases the channel and connection.
func (c *Consumer) Close() {
	if c != nil {
		c.c.Close()
	}
}
