package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shiftdesk/internal/geo"
	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/logger"
)

// TemplateInput is one role's schedule as the admin form sends it. Times are
// HH:MM; empty means the period is not staffed.
type TemplateInput struct {
	NurseType    string  `json:"nurseType"`
	Rate         float64 `json:"rate"`
	AMTimeStart  string  `json:"amTimeStart"`
	AMTimeEnd    string  `json:"amTimeEnd"`
	PMTimeStart  string  `json:"pmTimeStart"`
	PMTimeEnd    string  `json:"pmTimeEnd"`
	NOCTimeStart string  `json:"nocTimeStart"`
	NOCTimeEnd   string  `json:"nocTimeEnd"`
	AMMealStart  string  `json:"amMealStart"`
	AMMealEnd    string  `json:"amMealEnd"`
	PMMealStart  string  `json:"pmMealStart"`
	PMMealEnd    string  `json:"pmMealEnd"`
	NOCMealStart string  `json:"nocMealStart"`
	NOCMealEnd   string  `json:"nocMealEnd"`
}

// Hours is the AM period length minus the AM meal break.
func (t TemplateInput) Hours() (float64, error) {
	var m [4]int
	for i, s := range []string{t.AMTimeStart, t.AMTimeEnd, t.AMMealStart, t.AMMealEnd} {
		v, err := clockMinutes(s)
		if err != nil {
			return 0, err
		}
		m[i] = v
	}
	return float64((m[1]-m[0])-(m[3]-m[2])) / 60, nil
}

func (t TemplateInput) toModel(facilityID int) (*model.ShiftTemplate, error) {
	hours, err := t.Hours()
	if err != nil {
		return nil, err
	}
	tpl := &model.ShiftTemplate{FacilityID: facilityID, Role: t.NurseType, Rate: t.Rate, Hours: hours}

	fields := []struct {
		in  string
		out **string
	}{
		{t.AMTimeStart, &tpl.AMTimeStart}, {t.AMTimeEnd, &tpl.AMTimeEnd},
		{t.PMTimeStart, &tpl.PMTimeStart}, {t.PMTimeEnd, &tpl.PMTimeEnd},
		{t.NOCTimeStart, &tpl.NOCTimeStart}, {t.NOCTimeEnd, &tpl.NOCTimeEnd},
		{t.AMMealStart, &tpl.AMMealStart}, {t.AMMealEnd, &tpl.AMMealEnd},
		{t.PMMealStart, &tpl.PMMealStart}, {t.PMMealEnd, &tpl.PMMealEnd},
		{t.NOCMealStart, &tpl.NOCMealStart}, {t.NOCMealEnd, &tpl.NOCMealEnd},
	}
	for _, f := range fields {
		if f.in == "" {
			continue
		}
		if _, ok := parseClock(f.in); !ok {
			return nil, fmt.Errorf("%w: bad time %q for %s", ErrInvalidInput, f.in, t.NurseType)
		}
		v := f.in
		*f.out = &v
	}
	return tpl, nil
}

type CoordinatorInput struct {
	ID        int    `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type FacilityInput struct {
	Name         string             `json:"name"`
	Address      string             `json:"address"`
	CityStateZip string             `json:"cityStateZip"`
	Multiplier   *float64           `json:"multiplier"`
	Nurses       []TemplateInput    `json:"nurses"`
	Coordinators []CoordinatorInput `json:"coordinators"`
}

// FacilityDetail is a facility with its services and coordinators.
type FacilityDetail struct {
	Facility     *model.Facility
	Services     []model.ShiftTemplate
	Coordinators []model.Coordinator
}

type FacilityService struct {
	facilities   FacilityStore
	coordinators CoordinatorStore
	templates    TemplateStore
	geocoder     geo.Geocoder
	tx           db.TxRunner
	logger       *zap.Logger
}

func NewFacilityService(stores Stores, geocoder geo.Geocoder, tx db.TxRunner, logger *zap.Logger) *FacilityService {
	return &FacilityService{
		facilities:   stores.Facilities,
		coordinators: stores.Coordinators,
		templates:    stores.Templates,
		geocoder:     geocoder,
		tx:           tx,
		logger:       logger,
	}
}

// Add stores a facility with its services and coordinators in one transaction.
func (s *FacilityService) Add(ctx context.Context, in FacilityInput) (*model.Facility, error) {
	f := &model.Facility{
		Name:               in.Name,
		Address:            in.Address,
		CityStateZip:       in.CityStateZip,
		OvertimeMultiplier: in.Multiplier,
	}

	p, err := locate(ctx, s.geocoder, s.logger, in.CityStateZip)
	if err != nil {
		return nil, err
	}
	f.Lat, f.Lng = coords(p)

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, c := range in.Coordinators {
			if err := s.checkContact(ctx, c, 0); err != nil {
				return err
			}
		}
		if err := s.facilities.Create(ctx, f); err != nil {
			return err
		}
		if err := s.saveTemplates(ctx, f.ID, in.Nurses); err != nil {
			return err
		}
		return s.saveCoordinators(ctx, f.ID, in.Coordinators)
	})
	if err != nil {
		return nil, err
	}

	logger.WithTrace(ctx, s.logger).Info("Facility added", zap.Int("facility_id", f.ID), zap.String("name", f.Name))
	return f, nil
}

// Edit updates the facility. Coordinates are refreshed only when the address
// line changed, and cleared when the new one cannot be geocoded.
func (s *FacilityService) Edit(ctx context.Context, id int, in FacilityInput) error {
	current, err := s.facilities.GetByID(ctx, id)
	if err != nil {
		return err
	}
	moved := current.CityStateZip != in.CityStateZip

	var p *geo.Point
	if moved {
		if p, err = locate(ctx, s.geocoder, s.logger, in.CityStateZip); err != nil {
			return err
		}
	}

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, c := range in.Coordinators {
			if err := s.checkContact(ctx, c, c.ID); err != nil {
				return err
			}
		}

		existing, err := s.facilities.GetByID(ctx, id)
		if err != nil {
			return err
		}
		existing.Name = in.Name
		existing.Address = in.Address
		existing.CityStateZip = in.CityStateZip
		existing.OvertimeMultiplier = in.Multiplier
		if err := s.facilities.Update(ctx, existing); err != nil {
			return err
		}
		if moved {
			lat, lng := coords(p)
			if err := s.facilities.UpdateLocation(ctx, id, lat, lng); err != nil {
				return err
			}
		}
		if err := s.saveTemplates(ctx, id, in.Nurses); err != nil {
			return err
		}
		return s.saveCoordinators(ctx, id, in.Coordinators)
	})
}

func (s *FacilityService) checkContact(ctx context.Context, c CoordinatorInput, excludeID int) error {
	taken, err := s.coordinators.ContactTaken(ctx, c.Phone, c.Email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: coordinator %s / %s", ErrDuplicate, c.Phone, c.Email)
	}
	return nil
}

func (s *FacilityService) saveTemplates(ctx context.Context, facilityID int, in []TemplateInput) error {
	for _, t := range in {
		tpl, err := t.toModel(facilityID)
		if err != nil {
			return err
		}
		if err := s.templates.Upsert(ctx, tpl); err != nil {
			return err
		}
	}
	return nil
}

func (s *FacilityService) saveCoordinators(ctx context.Context, facilityID int, in []CoordinatorInput) error {
	for _, c := range in {
		m := &model.Coordinator{
			ID:         c.ID,
			FacilityID: facilityID,
			FirstName:  c.FirstName,
			LastName:   c.LastName,
			Phone:      c.Phone,
			Email:      c.Email,
		}
		if c.ID != 0 {
			if err := s.coordinators.Update(ctx, m); err != nil {
				return err
			}
			continue
		}
		if err := s.coordinators.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// List returns one page of facilities; all=true returns every match unpaged.
func (s *FacilityService) List(ctx context.Context, search string, page, limit int, all bool) ([]model.Facility, *model.Pagination, error) {
	if all {
		list, err := s.facilities.List(ctx, search, 0, 0)
		return list, nil, err
	}

	var (
		list  []model.Facility
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.facilities.List(gctx, search, limit, pageOffset(page, limit))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.facilities.Count(gctx, search)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	p := model.NewPagination(total, page, limit)
	return list, &p, nil
}

func (s *FacilityService) Get(ctx context.Context, id int) (*FacilityDetail, error) {
	f, err := s.facilities.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	services, err := s.templates.ListByFacility(ctx, id)
	if err != nil {
		return nil, err
	}
	coordinators, err := s.coordinators.ListByFacility(ctx, id)
	if err != nil {
		return nil, err
	}
	return &FacilityDetail{Facility: f, Services: services, Coordinators: coordinators}, nil
}

func (s *FacilityService) Delete(ctx context.Context, id int) error {
	if err := s.facilities.Delete(ctx, id); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Info("Facility deleted", zap.Int("facility_id", id))
	return nil
}

// DeleteService removes the facility's schedule for one role.
func (s *FacilityService) DeleteService(ctx context.Context, facilityID int, role string) error {
	return s.templates.DeleteRole(ctx, facilityID, role)
}

// locate geocodes query. A place the geocoder does not know yields nil so the
// record is saved without coordinates.
func locate(ctx context.Context, g geo.Geocoder, log *zap.Logger, query string) (*geo.Point, error) {
	if query == "" {
		return nil, nil
	}
	p, err := g.Geocode(ctx, query)
	switch {
	case err == nil:
		return &p, nil
	case errors.Is(err, geo.ErrNoResult):
		logger.WithTrace(ctx, log).Warn("No coordinates for location", zap.String("location", query))
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrGeocodeFailed, err)
	}
}

func coords(p *geo.Point) (lat, lng *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.Lat, &p.Lng
}
