package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/logger"
)

type NurseTypeService struct {
	types  NurseTypeStore
	tx     db.TxRunner
	logger *zap.Logger
}

func NewNurseTypeService(types NurseTypeStore, tx db.TxRunner, logger *zap.Logger) *NurseTypeService {
	return &NurseTypeService{types: types, tx: tx, logger: logger}
}

func (s *NurseTypeService) Add(ctx context.Context, name string) (*model.NurseType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: nurse type is required", ErrInvalidInput)
	}
	return s.types.Create(ctx, name)
}

func (s *NurseTypeService) List(ctx context.Context) ([]model.NurseType, error) {
	return s.types.List(ctx)
}

// Delete removes the type and every template, nurse and shift using it.
func (s *NurseTypeService) Delete(ctx context.Context, id int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		nt, err := s.types.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.types.DeleteCascade(ctx, nt); err != nil {
			return err
		}
		logger.WithTrace(ctx, s.logger).Info("Nurse type deleted", zap.String("nurse_type", nt.NurseType))
		return nil
	})
}

// Rename changes the type name everywhere it is referenced.
func (s *NurseTypeService) Rename(ctx context.Context, id int, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: nurse type is required", ErrInvalidInput)
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		nt, err := s.types.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.types.RenameCascade(ctx, nt, name); err != nil {
			return err
		}
		logger.WithTrace(ctx, s.logger).Info("Nurse type renamed",
			zap.String("from", nt.NurseType),
			zap.String("to", name),
		)
		return nil
	})
}
