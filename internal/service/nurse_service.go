package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shiftdesk/internal/geo"
	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/logger"
)

type NurseInput struct {
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	ScheduleName string  `json:"scheduleName"`
	Rate         float64 `json:"rate"`
	ShiftDif     float64 `json:"shiftDif"`
	OTRate       float64 `json:"otRate"`
	Email        string  `json:"email"`
	TalentID     Text    `json:"talentId"`
	Position     string  `json:"position"`
	Phone        string  `json:"phone"`
	Location     string  `json:"location"`
	Shift        string  `json:"shift"`
}

func (in NurseInput) apply(n *model.Nurse) {
	n.FirstName = in.FirstName
	n.LastName = in.LastName
	n.ScheduleName = in.ScheduleName
	n.Rate = in.Rate
	n.ShiftDif = in.ShiftDif
	n.OTRate = in.OTRate
	n.Email = in.Email
	n.TalentID = string(in.TalentID)
	n.NurseType = in.Position
	n.MobileNumber = in.Phone
	n.Location = in.Location
	n.Shift = in.Shift
}

// AvailabilityQuery asks which nurses could cover a shift.
type AvailabilityQuery struct {
	FacilityID int
	NurseType  string
	Shift      string
	Date       model.Date
}

type NurseService struct {
	nurses     NurseStore
	facilities FacilityStore
	matcher    *Matcher
	geocoder   geo.Geocoder
	tx         db.TxRunner
	logger     *zap.Logger
}

func NewNurseService(stores Stores, matcher *Matcher, geocoder geo.Geocoder, tx db.TxRunner, logger *zap.Logger) *NurseService {
	return &NurseService{
		nurses:     stores.Nurses,
		facilities: stores.Facilities,
		matcher:    matcher,
		geocoder:   geocoder,
		tx:         tx,
		logger:     logger,
	}
}

func (s *NurseService) List(ctx context.Context, search string, page, limit int) ([]model.Nurse, model.Pagination, error) {
	var (
		list  []model.Nurse
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.nurses.List(gctx, search, limit, pageOffset(page, limit))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.nurses.Count(gctx, search)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, model.Pagination{}, err
	}
	return list, model.NewPagination(total, page, limit), nil
}

// Get returns nil without error when the nurse does not exist.
func (s *NurseService) Get(ctx context.Context, id int) (*model.Nurse, error) {
	n, err := s.nurses.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return n, err
}

func (s *NurseService) conflict(ctx context.Context, in NurseInput, excludeID int) error {
	existing, err := s.nurses.FindConflict(ctx, in.Email, in.Phone, excludeID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return &DuplicateNurseError{Nurse: existing}
}

// Add geocodes the nurse's location and stores the nurse.
func (s *NurseService) Add(ctx context.Context, in NurseInput) (*model.Nurse, error) {
	if err := s.conflict(ctx, in, 0); err != nil {
		return nil, err
	}

	n := &model.Nurse{}
	in.apply(n)

	p, err := locate(ctx, s.geocoder, s.logger, in.Location)
	if err != nil {
		return nil, err
	}
	n.Lat, n.Lng = coords(p)

	if err := s.nurses.Create(ctx, n); err != nil {
		return nil, err
	}
	logger.WithTrace(ctx, s.logger).Info("Nurse added", zap.Int("nurse_id", n.ID))
	return n, nil
}

// Edit updates the nurse and re-geocodes only when the location text changed.
// A new location without a geocoding result clears the stored coordinates.
func (s *NurseService) Edit(ctx context.Context, id int, in NurseInput) error {
	current, err := s.nurses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	moved := current.Location != in.Location

	var p *geo.Point
	if moved {
		if p, err = locate(ctx, s.geocoder, s.logger, in.Location); err != nil {
			return err
		}
	}

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.conflict(ctx, in, id); err != nil {
			return err
		}

		n, err := s.nurses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		in.apply(n)
		if err := s.nurses.Update(ctx, n); err != nil {
			return err
		}
		if !moved {
			return nil
		}
		lat, lng := coords(p)
		return s.nurses.UpdateLocation(ctx, id, lat, lng)
	})
}

func (s *NurseService) Delete(ctx context.Context, id int) error {
	if err := s.nurses.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Nurse deleted", zap.Int("nurse_id", id))
	return nil
}

// Available lists nurses who could cover the described shift.
func (s *NurseService) Available(ctx context.Context, q AvailabilityQuery) ([]model.Nurse, error) {
	f, err := s.facilities.GetByID(ctx, q.FacilityID)
	if err != nil {
		return nil, err
	}
	return s.matcher.Eligible(ctx, f, q.NurseType, q.Shift, q.Date)
}
