package mq

import (
	"context"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"

	"shiftdesk/pkg/trace"
)

// Publisher publishes to the events exchange. The amqp channel is not safe for
// concurrent use, so publishes hold mu.
type Publisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	mu      sync.Mutex
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := dial(url, "shiftdesk-publisher")
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, ""); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Publisher{
		conn:    conn,
		channel: ch,
	}, nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// IsConnected checks if the publisher connection is still alive.
func (p *Publisher) IsConnected() bool {
	if p.conn == nil || p.channel == nil {
		return false
	}
	return !p.conn.IsClosed() && !p.channel.IsClosed()
}

// PublishWithContext publishes an already encoded JSON body to the events exchange.
func (p *Publisher) PublishWithContext(ctx context.Context, routingKey string, body []byte) error {
	return p.publish(ctx, ExchangeName, routingKey, body, nil)
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, body []byte, headers amqp091.Table) error {
	if headers == nil {
		headers = amqp091.Table{}
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		headers[TraceHeader] = traceID
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.channel.PublishWithContext(
		ctx,
		exchange,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Headers:      headers,
		},
	)
}
