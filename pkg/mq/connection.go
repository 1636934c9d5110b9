package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName    = "shiftdesk.events"
	DLQExchangeName = "shiftdesk.events.dlq"

	// TraceHeader carries the trace id across the broker.
	TraceHeader = "x-trace-id"

	heartbeat = 10 * time.Second
)

// dial connects with a connection name so server and worker are told apart
// in the RabbitMQ console.
func dial(url, name string) (*amqp091.Connection, error) {
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(name)

	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Properties: props,
		Heartbeat:  heartbeat,
		Locale:     "en_US",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// declareTopology declares the events and dead-letter exchanges. When
// routingKey is set, the "<routingKey>.dlq" queue is declared and bound too.
func declareTopology(ch *amqp091.Channel, routingKey string) error {
	for _, name := range []string{ExchangeName, DLQExchangeName} {
		if err := ch.ExchangeDeclare(name, amqp091.ExchangeTopic, true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", name, err)
		}
	}
	if routingKey == "" {
		return nil
	}

	q, err := ch.QueueDeclare(routingKey+".dlq", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare dlq queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, DLQExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind dlq queue: %w", err)
	}
	return nil
}
