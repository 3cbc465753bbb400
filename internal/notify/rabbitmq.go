package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"staybook/internal/domain"
)

const DefaultQueue = "booking.events"

// RabbitMQNotifier publishes each event as a persistent JSON message on a
// durable queue. The connection is opened on first use and re-dialled after
// it drops.
type RabbitMQNotifier struct {
	url    string
	queue  string
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
}

func NewRabbitMQNotifier(url, queue string, logger *zap.Logger) *RabbitMQNotifier {
	if queue == "" {
		queue = DefaultQueue
	}
	return &RabbitMQNotifier{url: url, queue: queue, logger: logger}
}

func (n *RabbitMQNotifier) Send(ctx context.Context, event Event, booking domain.Booking) error {
	body, err := json.Marshal(NewMessage(event, booking, time.Now()))
	if err != nil {
		return fmt.Errorf("marshalling %s message: %w", event, err)
	}

	ch, err := n.channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := DeclareQueue(ch, n.queue); err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(event),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing %s: %w", event, err)
	}
	return nil
}

func (n *RabbitMQNotifier) channel() (*amqp.Channel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil || n.conn.IsClosed() {
		conn, err := amqp.Dial(n.url)
		if err != nil {
			return nil, fmt.Errorf("dialling rabbitmq: %w", err)
		}
		n.conn = conn
		n.logger.Info("rabbitmq connected", zap.String("queue", n.queue))
	}

	ch, err := n.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening rabbitmq channel: %w", err)
	}
	return ch, nil
}

func (n *RabbitMQNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil || n.conn.IsClosed() {
		return nil
	}
	return n.conn.Close()
}

// DeclareQueue declares the durable events queue. Publisher and consumer
// both call it so either may start first.
func DeclareQueue(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("declaring queue %s: %w", queue, err)
	}
	return q, nil
}
