package outbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// EventWriter is satisfied by *Repository.
type EventWriter interface {
	InsertEvent(ctx context.Context, event *Event) error
}

// Enqueue marshals payload and records it as a pending event.
func Enqueue(ctx context.Context, w EventWriter, aggregateType string, aggregateID *int64, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	return w.InsertEvent(ctx, &Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		RoutingKey:    routingKey,
		Payload:       body,
		Status:        StatusPending,
	})
}
