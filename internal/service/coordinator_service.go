package service

import (
	"context"

	"go.uber.org/zap"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/logger"
)

type CoordinatorService struct {
	coordinators CoordinatorStore
	logger       *zap.Logger
}

func NewCoordinatorService(coordinators CoordinatorStore, logger *zap.Logger) *CoordinatorService {
	return &CoordinatorService{coordinators: coordinators, logger: logger}
}

func (s *CoordinatorService) ListByFacility(ctx context.Context, facilityID int) ([]model.Coordinator, error) {
	return s.coordinators.ListByFacility(ctx, facilityID)
}

func (s *CoordinatorService) Get(ctx context.Context, id int) (*model.Coordinator, error) {
	return s.coordinators.GetByID(ctx, id)
}

func (s *CoordinatorService) Delete(ctx context.Context, id int) error {
	if err := s.coordinators.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Coordinator deleted", zap.Int("coordinator_id", id))
	return nil
}
