package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Handler processes one decoded event message.
type Handler func(ctx context.Context, msg Message) error

// Consumer drains the events queue and hands each message to a Handler.
// Undecodable or failing messages are rejected without requeue.
type Consumer struct {
	url     string
	queue   string
	handler Handler
	logger  *zap.Logger
}

func NewConsumer(url, queue string, handler Handler, logger *zap.Logger) *Consumer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Consumer{url: url, queue: queue, handler: handler, logger: logger}
}

// Run consumes until ctx is cancelled, re-dialling with exponential backoff
// whenever the broker connection is lost.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn("dialling rabbitmq failed", zap.Error(err), zap.Duration("retryIn", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consume loop ended, reconnecting", zap.Error(err))
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("setting qos failed", zap.Error(err))
	}
	if _, err := DeclareQueue(ch, c.queue); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consuming %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(ctx, d.Body); err != nil {
				c.logger.Error("handling message failed", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes a raw message body and runs the handler on it.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decoding message: %w", err)
	}
	if msg.Event != EventConfirmed && msg.Event != EventCancelled {
		return fmt.Errorf("unknown event %q", msg.Event)
	}
	return c.handler(ctx, msg)
}

// LogHandler returns a Handler that records each event as the hand-off
// point to email delivery.
func LogHandler(logger *zap.Logger) Handler {
	return func(ctx context.Context, msg Message) error {
		logger.Info("booking event received",
			zap.String("event", string(msg.Event)),
			zap.Int64("bookingId", msg.BookingID),
			zap.Int64("userId", msg.UserID),
			zap.Int64("roomId", msg.RoomID),
			zap.String("startDate", msg.StartDate),
			zap.String("endDate", msg.EndDate),
			zap.String("totalPrice", msg.TotalPrice),
		)
		return nil
	}
}
