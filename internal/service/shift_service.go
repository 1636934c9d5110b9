package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shiftdesk/internal/messaging"
	"shiftdesk/internal/model"
	"shiftdesk/internal/repository"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/metrics"
)

// CalendarQuery filters the admin calendar. Facility is an exact name.
type CalendarQuery struct {
	NurseType string
	Facility  string
	Shift     string
	Status    string
}

// ShiftInput is the admin add/edit shift form.
type ShiftInput struct {
	Facility        ID      `json:"facility"`
	Coordinator     ID      `json:"coordinator"`
	Position        string  `json:"position"`
	ScheduleDate    string  `json:"scheduleDate"`
	Nurse           ID      `json:"nurse"`
	AdditionalNotes *string `json:"additionalNotes"`
	Shift           string  `json:"shift"`
}

func (in ShiftInput) validate() (model.Date, error) {
	if in.Facility.Value == nil || in.Position == "" || in.Shift == "" {
		return model.Date{}, fmt.Errorf("%w: facility, position and shift are required", ErrInvalidInput)
	}
	d, err := model.ParseDate(in.ScheduleDate)
	if err != nil {
		return model.Date{}, fmt.Errorf("%w: scheduleDate %q", ErrInvalidInput, in.ScheduleDate)
	}
	return d, nil
}

func (in ShiftInput) notes() string {
	if in.AdditionalNotes == nil || *in.AdditionalNotes == "" {
		return "none"
	}
	return *in.AdditionalNotes
}

// ShiftService is the admin view of shift_tracker rows. Every change and the
// texts it triggers commit together.
type ShiftService struct {
	shifts       ShiftStore
	facilities   FacilityStore
	coordinators CoordinatorStore
	nurses       NurseStore
	templates    TemplateStore
	notifier     messaging.Notifier
	tx           db.TxRunner
	logger       *zap.Logger
}

func NewShiftService(stores Stores, notifier messaging.Notifier, tx db.TxRunner, logger *zap.Logger) *ShiftService {
	return &ShiftService{
		shifts:       stores.Shifts,
		facilities:   stores.Facilities,
		coordinators: stores.Coordinators,
		nurses:       stores.Nurses,
		templates:    stores.Templates,
		notifier:     notifier,
		tx:           tx,
		logger:       logger,
	}
}

// Calendar returns one event per row whose facility has times for the row's
// role and period. Rows without them are left out.
func (s *ShiftService) Calendar(ctx context.Context, q CalendarQuery) ([]model.CalendarEvent, error) {
	filter := repository.CalendarFilter{NurseType: q.NurseType, Shift: q.Shift, Status: q.Status}
	if q.Facility != "" {
		f, err := s.facilities.FindByExactName(ctx, q.Facility)
		if errors.Is(err, ErrNotFound) {
			return []model.CalendarEvent{}, nil
		}
		if err != nil {
			return nil, err
		}
		filter.FacilityID = &f.ID
	}

	rows, err := s.shifts.Calendar(ctx, filter)
	if err != nil {
		return nil, err
	}

	type templateKey struct {
		facilityID int
		role       string
	}
	templates := map[templateKey]*model.ShiftTemplate{}
	names := map[int]string{}
	events := make([]model.CalendarEvent, 0, len(rows))

	for _, row := range rows {
		key := templateKey{row.FacilityID, strings.ToLower(row.NurseType)}
		tpl, seen := templates[key]
		if !seen {
			tpl, err = s.templates.Find(ctx, row.FacilityID, row.NurseType, false)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			templates[key] = tpl
		}
		if tpl == nil {
			continue
		}
		start, end, ok := tpl.PeriodTimes(row.Shift)
		if !ok {
			continue
		}

		name, seen := names[row.FacilityID]
		if !seen {
			name = "Unknown"
			if f, err := s.facilities.GetByID(ctx, row.FacilityID); err == nil {
				name = f.Name
			} else if !errors.Is(err, ErrNotFound) {
				return nil, err
			}
			names[row.FacilityID] = name
		}

		nurseName := "Not assigned"
		if n, err := s.nurse(ctx, row.NurseID); err != nil {
			return nil, err
		} else if n != nil {
			nurseName = n.FullName()
		}

		day := row.Date.String()
		events = append(events, model.CalendarEvent{
			ID:    row.ID,
			Title: row.NurseType + " at " + name,
			Start: day + "T" + start,
			End:   day + "T" + end,
			ExtendedProps: model.CalendarDetail{
				NurseType: row.NurseType,
				Facility:  name,
				Status:    row.Status,
				Date:      day,
				Shift:     row.Shift,
				Nurse:     nurseName,
			},
		})
	}
	return events, nil
}

// List returns one page of rows with display names; page and total are
// fetched concurrently.
func (s *ShiftService) List(ctx context.Context, search string, page, limit int) ([]model.ShiftListing, model.Pagination, error) {
	var (
		list  []model.ShiftListing
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		list, err = s.shifts.ListAll(gctx, search, limit, pageOffset(page, limit))
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.shifts.CountAll(gctx, search)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, model.Pagination{}, err
	}
	return list, model.NewPagination(total, page, limit), nil
}

// Get returns nil without error when the row does not exist.
func (s *ShiftService) Get(ctx context.Context, id int) (*model.Shift, error) {
	sh, err := s.shifts.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return sh, err
}

// Add stores a shift. With a nurse it is booked as filled and both the nurse
// and coordinator are told; without one it stays open.
func (s *ShiftService) Add(ctx context.Context, in ShiftInput) (*model.Shift, error) {
	date, err := in.validate()
	if err != nil {
		return nil, err
	}

	sh := &model.Shift{
		FacilityID:             *in.Facility.Value,
		CoordinatorID:          in.Coordinator.Value,
		NurseID:                in.Nurse.Value,
		NurseType:              in.Position,
		Shift:                  in.Shift,
		Date:                   date,
		Status:                 statusFor(in.Nurse.Value),
		AdditionalInstructions: in.AdditionalNotes,
	}
	if sh.Status == model.StatusFilled {
		bookedBy := model.BookedByAdmin
		sh.BookedBy = &bookedBy
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.shifts.Create(ctx, sh); err != nil {
			return err
		}

		facilityName, err := s.facilityName(ctx, sh.FacilityID, "")
		if err != nil {
			return err
		}
		n, err := s.nurse(ctx, sh.NurseID)
		if err != nil {
			return err
		}
		c, err := s.coordinator(ctx, sh.CoordinatorID)
		if err != nil {
			return err
		}

		if n == nil {
			return nil
		}
		day := monthDay(date.Time)
		if err := s.notify(ctx, n.MobileNumber, fmt.Sprintf(
			"A new shift at %s on %s for %s shift. Notes: %s has been assigned to you by the admin.",
			facilityName, day, sh.Shift, in.notes())); err != nil {
			return err
		}
		if c != nil {
			return s.notify(ctx, c.Phone, fmt.Sprintf(
				"%s %s new nurse on %s for %s shift has been booked for you by the admin.",
				n.FirstName, n.LastName, day, sh.Shift))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncrementShiftTransition(sh.Status)
	logger.WithTrace(ctx, s.logger).Info("Shift added by admin", zap.Int("shift_id", sh.ID), zap.String("status", sh.Status))
	return sh, nil
}

// Edit rewrites the row and tells whoever gained, lost or kept the shift.
func (s *ShiftService) Edit(ctx context.Context, id int, in ShiftInput) error {
	date, err := in.validate()
	if err != nil {
		return err
	}

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		old, err := s.shifts.GetByID(ctx, id)
		if err != nil {
			return err
		}

		facilityName, err := s.facilityName(ctx, *in.Facility.Value, "Unknown Facility")
		if err != nil {
			return err
		}
		newDay, oldDay := monthDay(date.Time), monthDay(old.Date.Time)

		newNurse, err := s.nurse(ctx, in.Nurse.Value)
		if err != nil {
			return err
		}

		if !sameID(in.Nurse.Value, old.NurseID) {
			oldNurse, err := s.nurse(ctx, old.NurseID)
			if err != nil {
				return err
			}
			if oldNurse != nil {
				if err := s.notify(ctx, oldNurse.MobileNumber, fmt.Sprintf(
					"Hi %s, your previously assigned shift for %s on %s (%s shift) at %s has been reassigned to another nurse. Thank you for your support.",
					oldNurse.FirstName, old.NurseType, oldDay, old.Shift, facilityName)); err != nil {
					return err
				}
			}
			if newNurse != nil {
				if err := s.notify(ctx, newNurse.MobileNumber, fmt.Sprintf(
					"Hi %s, you've been scheduled for a new %s shift on %s (%s shift) at %s. Notes: %s",
					newNurse.FirstName, in.Position, newDay, in.Shift, facilityName, in.notes())); err != nil {
					return err
				}
			}
		} else if newNurse != nil {
			if err := s.notify(ctx, newNurse.MobileNumber, fmt.Sprintf(
				"Hi %s, there have been updates to your shift: %s on %s (%s shift) at %s. Notes: %s. Please take note of the changes.",
				newNurse.FirstName, in.Position, newDay, in.Shift, facilityName, in.notes())); err != nil {
				return err
			}
		}

		nurseName := "a nurse"
		if newNurse != nil {
			nurseName = newNurse.FirstName
		}

		newCoord, err := s.coordinator(ctx, in.Coordinator.Value)
		if err != nil {
			return err
		}
		if !sameID(in.Coordinator.Value, old.CoordinatorID) {
			oldCoord, err := s.coordinator(ctx, old.CoordinatorID)
			if err != nil {
				return err
			}
			if oldCoord != nil {
				if err := s.notify(ctx, oldCoord.Phone, fmt.Sprintf(
					"Dear %s, the coordination responsibility for the %s shift on %s (%s shift) has been assigned to another coordinator. Thank you for your efforts.",
					oldCoord.FirstName, old.NurseType, oldDay, old.Shift)); err != nil {
					return err
				}
			}
			if newCoord != nil {
				if err := s.notify(ctx, newCoord.Phone, fmt.Sprintf(
					"Dear %s, you are now responsible for overseeing the %s shift on %s (%s shift), assigned to nurse %s. Please ensure smooth coordination.",
					newCoord.FirstName, in.Position, newDay, in.Shift, nurseName)); err != nil {
					return err
				}
			}
		} else if newCoord != nil {
			if err := s.notify(ctx, newCoord.Phone, fmt.Sprintf(
				"Dear %s, the shift details under your coordination have been updated. New details: %s on %s (%s shift), assigned to nurse %s. Additional Notes: %s. Please review.",
				newCoord.FirstName, in.Position, newDay, in.Shift, nurseName, in.notes())); err != nil {
				return err
			}
		}

		status := statusFor(in.Nurse.Value)
		updated := *old
		updated.FacilityID = *in.Facility.Value
		updated.CoordinatorID = in.Coordinator.Value
		updated.NurseID = in.Nurse.Value
		updated.NurseType = in.Position
		updated.Date = date
		updated.Shift = in.Shift
		updated.Status = status
		updated.AdditionalInstructions = in.AdditionalNotes
		if err := s.shifts.Update(ctx, &updated); err != nil {
			return err
		}

		if status != old.Status {
			metrics.IncrementShiftTransition(status)
		}
		logger.WithTrace(ctx, s.logger).Info("Shift edited by admin", zap.Int("shift_id", id))
		return nil
	})
}

// Delete removes the row after telling its coordinator and, for a filled
// shift, its nurse.
func (s *ShiftService) Delete(ctx context.Context, id int) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		sh, err := s.shifts.GetByID(ctx, id)
		if err != nil {
			return err
		}

		text := fmt.Sprintf("Hello, the shift for %s on %s for %s shift has been deleted by the admin.",
			sh.NurseType, monthDay(sh.Date.Time), sh.Shift)

		c, err := s.coordinator(ctx, sh.CoordinatorID)
		if err != nil {
			return err
		}
		if c != nil {
			if err := s.notify(ctx, c.Phone, text); err != nil {
				return err
			}
		}

		if sh.Status == model.StatusFilled {
			n, err := s.nurse(ctx, sh.NurseID)
			if err != nil {
				return err
			}
			if n != nil {
				if err := s.notify(ctx, n.MobileNumber, text); err != nil {
					return err
				}
			}
		}

		deleted, err := s.shifts.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotFound
		}

		metrics.IncrementShiftTransition("deleted")
		logger.WithTrace(ctx, s.logger).Info("Shift deleted by admin", zap.Int("shift_id", id))
		return nil
	})
}

func (s *ShiftService) notify(ctx context.Context, recipient, text string) error {
	if recipient == "" {
		return nil
	}
	return s.notifier.Notify(ctx, recipient, text)
}

func (s *ShiftService) nurse(ctx context.Context, id *int) (*model.Nurse, error) {
	return lookup(ctx, id, s.nurses.GetByID)
}

func (s *ShiftService) coordinator(ctx context.Context, id *int) (*model.Coordinator, error) {
	return lookup(ctx, id, s.coordinators.GetByID)
}

func (s *ShiftService) facilityName(ctx context.Context, id int, fallback string) (string, error) {
	f, err := lookup(ctx, &id, s.facilities.GetByID)
	if err != nil || f == nil {
		return fallback, err
	}
	return f.Name, nil
}

// lookup resolves an optional foreign key; a nil id or a missing row yields nil.
func lookup[T any](ctx context.Context, id *int, get func(context.Context, int) (*T, error)) (*T, error) {
	if id == nil {
		return nil, nil
	}
	v, err := get(ctx, *id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return v, err
}

func statusFor(nurseID *int) string {
	if nurseID == nil {
		return model.StatusOpen
	}
	return model.StatusFilled
}
