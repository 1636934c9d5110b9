package outbox

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ReplayStore is the outbox access replay needs.
type ReplayStore interface {
	GetEventByID(ctx context.Context, eventID int64) (*Event, error)
	GetFailedEvents(ctx context.Context, limit int) ([]*Event, error)
	ResetEvent(ctx context.Context, eventID int64) error
}

// ReplayService resets failed events to pending so the Dispatcher sends them again.
type ReplayService struct {
	store  ReplayStore
	logger *zap.Logger
}

func NewReplayService(store ReplayStore, logger *zap.Logger) *ReplayService {
	return &ReplayService{store: store, logger: logger}
}

// ReplayEvent replays one event.
func (s *ReplayService) ReplayEvent(ctx context.Context, eventID int64) error {
	event, err := s.store.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status == StatusPending {
		return nil
	}
	if err := s.store.ResetEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to replay event %d: %w", eventID, err)
	}
	s.logger.Info("Outbox event queued for replay",
		zap.Int64("event_id", eventID),
		zap.String("routing_key", event.RoutingKey),
	)
	return nil
}

// ReplayFailedEvents replays up to limit failed events and returns how many
// were reset.
func (s *ReplayService) ReplayFailedEvents(ctx context.Context, limit int) (int, error) {
	events, err := s.store.GetFailedEvents(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get failed events: %w", err)
	}

	replayed := 0
	for _, event := range events {
		if err := s.store.ResetEvent(ctx, event.ID); err != nil {
			s.logger.Warn("Failed to replay event", zap.Int64("event_id", event.ID), zap.Error(err))
			continue
		}
		replayed++
	}
	return replayed, nil
}

// ListFailed returns failed events.
func (s *ReplayService) ListFailed(ctx context.Context, limit int) ([]*Event, error) {
	return s.store.GetFailedEvents(ctx, limit)
}
