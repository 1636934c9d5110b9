package mq

import (
	"context"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// PublishToDLQ parks a message that exhausted its retries. The routing key is
// kept so the "<routingKey>.dlq" queue collects it.
func (p *Publisher) PublishToDLQ(ctx context.Context, routingKey string, payload []byte, cause string) error {
	return p.publish(ctx, DLQExchangeName, routingKey, payload, amqp091.Table{
		"x-dlq-reason": cause,
		"x-dlq-at":     time.Now().UTC().Format(time.RFC3339),
	})
}
