package outbox

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"shiftdesk/pkg/trace"
)

// Store is the outbox access the Dispatcher needs.
type Store interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*Event, error)
	MarkAsSent(ctx context.Context, eventID int64) error
	MarkAsFailed(ctx context.Context, eventID int64, maxRetries int) error
}

// Publisher is satisfied by *mq.Publisher.
type Publisher interface {
	PublishWithContext(ctx context.Context, routingKey string, body []byte) error
}

// Dispatcher reads due outbox events and publishes them to MQ.
type Dispatcher struct {
	store      Store
	publisher  Publisher
	logger     *zap.Logger
	maxRetries int
	interval   time.Duration
	batchSize  int
}

func NewDispatcher(store Store, publisher Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		store:      store,
		publisher:  publisher,
		logger:     logger,
		maxRetries: 5,
		interval:   time.Second,
		batchSize:  100,
	}
}

func (d *Dispatcher) WithMaxRetries(maxRetries int) *Dispatcher {
	d.maxRetries = maxRetries
	return d
}

func (d *Dispatcher) WithInterval(interval time.Duration) *Dispatcher {
	d.interval = interval
	return d
}

func (d *Dispatcher) WithBatchSize(batchSize int) *Dispatcher {
	d.batchSize = batchSize
	return d
}

// Start blocks until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting Outbox Dispatcher",
		zap.Int("max_retries", d.maxRetries),
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize),
	)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox Dispatcher stopped")
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce publishes one batch of due events and returns how many were sent.
func (d *Dispatcher) DispatchOnce(ctx context.Context) int {
	events, err := d.store.GetPendingEvents(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("Failed to get pending events", zap.Error(err))
		return 0
	}

	sent := 0
	for _, event := range events {
		if ctx.Err() != nil {
			return sent
		}

		if err := d.publisher.PublishWithContext(withPayloadTrace(ctx, event.Payload), event.RoutingKey, event.Payload); err != nil {
			d.logger.Error("Failed to publish event",
				zap.Int64("event_id", event.ID),
				zap.String("routing_key", event.RoutingKey),
				zap.Error(err),
			)
			if err := d.store.MarkAsFailed(ctx, event.ID, d.maxRetries); err != nil {
				d.logger.Error("Failed to mark event as failed", zap.Int64("event_id", event.ID), zap.Error(err))
			}
			continue
		}

		if err := d.store.MarkAsSent(ctx, event.ID); err != nil {
			d.logger.Error("Failed to mark event as sent", zap.Int64("event_id", event.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// withPayloadTrace copies the payload's trace_id into ctx.
func withPayloadTrace(ctx context.Context, payload json.RawMessage) context.Context {
	var p struct {
		TraceID string `json:"trace_id"`
	}
	if err := json.Unmarshal(payload, &p); err == nil && p.TraceID != "" {
		return trace.WithContext(ctx, p.TraceID)
	}
	return ctx
}
