package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/pkg/db"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

var ErrEventNotFound = errors.New("outbox event not found")

// Event is one message waiting to be published.
type Event struct {
	ID            int64           `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   *int64          `json:"aggregate_id,omitempty"`
	RoutingKey    string          `json:"routing_key"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	RetryCount    int             `json:"retry_count"`
	NextRetryAt   *time.Time      `json:"next_retry_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Repository reads and writes outbox_events.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, aggregate_type, aggregate_id, routing_key, payload, status,
	retry_count, next_retry_at, created_at, updated_at`

// InsertEvent stores the event. With a transaction in ctx it commits together
// with the business rows.
func (r *Repository) InsertEvent(ctx context.Context, event *Event) error {
	if event.Status == "" {
		event.Status = StatusPending
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO outbox_events (aggregate_type, aggregate_id, routing_key, payload, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`,
		event.AggregateType,
		event.AggregateID,
		event.RoutingKey,
		event.Payload,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// GetPendingEvents returns pending events that are due.
func (r *Repository) GetPendingEvents(ctx context.Context, limit int) ([]*Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM outbox_events
		WHERE status = 'pending'
		AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending events: %w", err)
	}
	return collectEvents(rows)
}

// GetFailedEvents returns failed events, newest first.
func (r *Repository) GetFailedEvents(ctx context.Context, limit int) ([]*Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+eventColumns+`
		FROM outbox_events
		WHERE status = 'failed'
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query failed events: %w", err)
	}
	return collectEvents(rows)
}

func (r *Repository) GetEventByID(ctx context.Context, eventID int64) (*Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM outbox_events WHERE id = $1`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	events, err := collectEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	return events[0], nil
}

func (r *Repository) MarkAsSent(ctx context.Context, eventID int64) error {
	if _, err := r.pool.Exec(ctx, `
		UPDATE outbox_events
		SET status = 'sent', updated_at = NOW()
		WHERE id = $1
	`, eventID); err != nil {
		return fmt.Errorf("failed to mark event as sent: %w", err)
	}
	return nil
}

// MarkAsFailed bumps the retry count. At the limit the event becomes failed,
// otherwise it is rescheduled with a linear 5s backoff.
func (r *Repository) MarkAsFailed(ctx context.Context, eventID int64, maxRetries int) error {
	if _, err := r.pool.Exec(ctx, `
		UPDATE outbox_events
		SET retry_count = retry_count + 1,
		    status = CASE WHEN retry_count + 1 >= $2 THEN 'failed' ELSE 'pending' END,
		    next_retry_at = CASE WHEN retry_count + 1 >= $2 THEN NULL
		                         ELSE NOW() + make_interval(secs => (retry_count + 1) * 5) END,
		    updated_at = NOW()
		WHERE id = $1
	`, eventID, maxRetries); err != nil {
		return fmt.Errorf("failed to mark event as failed: %w", err)
	}
	return nil
}

// ResetEvent puts the event back to pending for the Dispatcher.
func (r *Repository) ResetEvent(ctx context.Context, eventID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE outbox_events
		SET status = 'pending', retry_count = 0, next_retry_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, eventID)
	if err != nil {
		return fmt.Errorf("failed to reset event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d", ErrEventNotFound, eventID)
	}
	return nil
}

// PurgeSent deletes sent events last updated before the cutoff.
func (r *Repository) PurgeSent(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM outbox_events WHERE status = 'sent' AND updated_at < $1
	`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge outbox: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectEvents(rows pgx.Rows) ([]*Event, error) {
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.ID,
			&e.AggregateType,
			&e.AggregateID,
			&e.RoutingKey,
			&e.Payload,
			&e.Status,
			&e.RetryCount,
			&e.NextRetryAt,
			&e.CreatedAt,
			&e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
