package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"shiftdesk/pkg/trace"
)

type MessageHandler func(ctx context.Context, data json.RawMessage) error

type Consumer struct {
	channel    *amqp091.Channel
	queue      amqp091.Queue
	routingKey string
	tag        string
	handler    MessageHandler
	conn       *amqp091.Connection
	logger     *zap.Logger

	done     chan struct{}
	stopOnce sync.Once
}

// NewConsumer creates a consumer for a specific routing key. The queue is
// declared durable and bound to the events exchange; its dead letter queue is
// declared alongside it.
func NewConsumer(url, queueName, routingKey string, prefetch int, logger *zap.Logger) (*Consumer, error) {
	conn, err := dial(url, "shiftdesk-consumer:"+queueName)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	fail := func(format string, err error) (*Consumer, error) {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf(format, err)
	}

	if err := declareTopology(ch, routingKey); err != nil {
		return fail("%w", err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return fail("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, ExchangeName, false, nil); err != nil {
		return fail("failed to bind queue: %w", err)
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fail("failed to set qos: %w", err)
		}
	}

	logger.Info("Consumer initialized",
		zap.String("routing_key", routingKey),
		zap.String("queue", queueName),
		zap.String("exchange", ExchangeName),
	)

	return &Consumer{
		conn:       conn,
		channel:    ch,
		queue:      q,
		routingKey: routingKey,
		tag:        "worker-" + queueName,
		logger:     logger,
		done:       make(chan struct{}),
	}, nil
}

func (c *Consumer) SetHandler(h MessageHandler) {
	c.handler = h
}

// Stop cancels the subscription; StartConsuming returns once in-flight
// deliveries drain.
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() {
		if err := c.channel.Cancel(c.tag, false); err != nil {
			c.logger.Warn("Failed to cancel consumer", zap.String("tag", c.tag), zap.Error(err))
		}
	})
	<-c.done
}

func (c *Consumer) Close() {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// StartConsuming blocks until the delivery channel closes. Each message is
// acked on success and nacked with requeue on handler error or panic.
func (c *Consumer) StartConsuming(ctx context.Context) error {
	defer close(c.done)

	if c.handler == nil {
		return fmt.Errorf("consumer handler not set")
	}

	deliveries, err := c.channel.Consume(
		c.queue.Name,
		c.tag,
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started consuming messages",
		zap.String("routing_key", c.routingKey),
		zap.String("queue", c.queue.Name),
	)

	for msg := range deliveries {
		c.handle(ctx, msg)
	}

	c.logger.Info("Consumer stopped", zap.String("queue", c.queue.Name))
	return nil
}

func (c *Consumer) handle(ctx context.Context, msg amqp091.Delivery) {
	if id, ok := msg.Headers[TraceHeader].(string); ok && id != "" {
		ctx = trace.WithContext(ctx, id)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Handler panic recovered",
				zap.String("routing_key", c.routingKey),
				zap.Any("panic", r),
			)
			if err := msg.Nack(false, true); err != nil {
				c.logger.Error("Failed to nack message after panic", zap.Error(err))
			}
		}
	}()

	if err := c.handler(ctx, msg.Body); err != nil {
		c.logger.Error("Handler error",
			zap.String("routing_key", c.routingKey),
			zap.String("queue", c.queue.Name),
			zap.Error(err),
		)
		// handler failed: requeue so MQ retries
		if err := msg.Nack(false, true); err != nil {
			c.logger.Error("Failed to nack message", zap.Error(err))
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		c.logger.Error("Failed to ack message", zap.Error(err))
	}
}
