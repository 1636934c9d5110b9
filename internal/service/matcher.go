package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"shiftdesk/internal/assistant"
	"shiftdesk/internal/geo"
	"shiftdesk/internal/messaging"
	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/logger"
)

// Matcher finds nurses who can cover a shift and invites them.
type Matcher struct {
	nurses   NurseStore
	chats    ChatStore
	intents  Intents
	notifier messaging.Notifier
	tx       db.TxRunner
	radius   float64
	logger   *zap.Logger
}

func NewMatcher(stores Stores, intents Intents, notifier messaging.Notifier, tx db.TxRunner, radiusMiles float64, logger *zap.Logger) *Matcher {
	if radiusMiles <= 0 {
		radiusMiles = 50
	}
	return &Matcher{
		nurses:   stores.Nurses,
		chats:    stores.Chats,
		intents:  intents,
		notifier: notifier,
		tx:       tx,
		radius:   radiusMiles,
		logger:   logger,
	}
}

func facilityPoint(f *model.Facility) geo.Point {
	return geo.Point{Lat: *f.Lat, Lng: *f.Lng}
}

func nursePoint(n *model.Nurse) geo.Point {
	return geo.Point{Lat: *n.Lat, Lng: *n.Lng}
}

// InRange reports whether the nurse lives within the matching radius of f.
// Either side missing coordinates counts as out of range.
func (m *Matcher) InRange(f *model.Facility, n *model.Nurse) bool {
	if !f.HasLocation() || !n.HasLocation() {
		return false
	}
	return geo.WithinRadius(facilityPoint(f), nursePoint(n), m.radius)
}

// Eligible returns nurses of the type and period within range of f that hold
// no shift on date.
func (m *Matcher) Eligible(ctx context.Context, f *model.Facility, nurseType, period string, date model.Date) ([]model.Nurse, error) {
	if !f.HasLocation() {
		return nil, ErrLocationIncomplete
	}

	candidates, err := m.nurses.FindCandidates(ctx, nurseType, period)
	if err != nil {
		return nil, err
	}

	near := make([]model.Nurse, 0, len(candidates))
	ids := make([]int, 0, len(candidates))
	for i := range candidates {
		if m.InRange(f, &candidates[i]) {
			near = append(near, candidates[i])
			ids = append(ids, candidates[i].ID)
		}
	}

	booked, err := m.nurses.BookedOn(ctx, ids, date.Time)
	if err != nil {
		return nil, err
	}

	out := make([]model.Nurse, 0, len(near))
	for _, n := range near {
		if !booked[n.ID] {
			out = append(out, n)
		}
	}
	return out, nil
}

// Broadcast offers the open shift to every eligible nurse except skipPhone.
// Each invitation is drafted by the model, logged in the nurse's history and
// queued. It returns how many nurses were invited.
func (m *Matcher) Broadcast(ctx context.Context, s *model.Shift, f *model.Facility, skipPhone string) (int, error) {
	log := logger.WithTrace(ctx, m.logger).With(zap.Int("shift_id", s.ID))

	nurses, err := m.Eligible(ctx, f, s.NurseType, s.Shift, s.Date)
	if errors.Is(err, ErrLocationIncomplete) {
		log.Warn("Facility has no coordinates, nobody invited", zap.Int("facility_id", f.ID))
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	notes := ""
	if s.AdditionalInstructions != nil {
		notes = *s.AdditionalInstructions
	}

	sent := 0
	for _, n := range nurses {
		if n.MobileNumber == "" || n.MobileNumber == skipPhone {
			continue
		}

		history, err := m.chats.NurseHistory(ctx, n.MobileNumber)
		if err != nil {
			return sent, err
		}

		text, err := m.intents.DraftInvitation(ctx, assistant.Invitation{
			NurseType:              s.NurseType,
			Shift:                  s.Shift,
			FacilityName:           f.Name,
			Date:                   s.Date.Time,
			AdditionalInstructions: notes,
			History:                turns(history),
		})
		if err != nil {
			log.Warn("Invitation not drafted", zap.Int("nurse_id", n.ID), zap.Error(err))
			continue
		}

		err = m.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := m.chats.AppendNurse(ctx, n.MobileNumber, text, model.MessageSent); err != nil {
				return err
			}
			return m.notifier.Notify(ctx, n.MobileNumber, text)
		})
		if err != nil {
			return sent, err
		}
		sent++
	}

	log.Info("Shift offered", zap.Int("invited", sent), zap.Int("eligible", len(nurses)))
	return sent, nil
}
