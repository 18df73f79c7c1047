package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitPublisher publishes persistent JSON messages on durable queues using the
// default exchange. Queues are declared lazily on first use.
type RabbitPublisher struct {
	conn *amqp.Connection
	log  *slog.Logger

	mu       sync.Mutex
	ch       *amqp.Channel
	declared map[string]bool
}

// DialRabbit connects to the broker and opens a publishing channel.
func DialRabbit(url string, log *slog.Logger) (*RabbitPublisher, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	return &RabbitPublisher{
		conn:     conn,
		ch:       ch,
		log:      log.With("component", "rabbitmq"),
		declared: make(map[string]bool),
	}, nil
}

var _ Publisher = (*RabbitPublisher)(nil)

// Publish declares queue if needed and sends msg as a persistent JSON message.
func (p *RabbitPublisher) Publish(ctx context.Context, queue string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}
	if !p.declared[queue] {
		if _, err := p.ch.QueueDeclare(
			queue, // name
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			p.log.Error("rabbitmq_queue_declare_failed", "queue", queue, "error", err.Error())
			return fmt.Errorf("queue declare %s: %w", queue, err)
		}
		p.declared[queue] = true
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		p.log.Error("rabbitmq_publish_failed", "queue", queue, "error", err.Error())
		return fmt.Errorf("publish %s: %w", queue, err)
	}
	return nil
}

// ensureChannel reopens the channel after the broker closed it, e.g. on a declare error.
func (p *RabbitPublisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	p.ch = ch
	p.declared = make(map[string]bool)
	return nil
}

// Close closes the channel and the connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}
