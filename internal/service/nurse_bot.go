package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"shiftdesk/internal/assistant"
	"shiftdesk/internal/messaging"
	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/metrics"
)

// NurseBot handles a nurse's replies: taking offered shifts, cancelling them
// and answering coordinator follow-ups.
type NurseBot struct {
	nurses       NurseStore
	facilities   FacilityStore
	coordinators CoordinatorStore
	shifts       ShiftStore
	chats        ChatStore
	intents      Intents
	matcher      *Matcher
	notifier     messaging.Notifier
	tx           db.TxRunner
	now          func() time.Time
	logger       *zap.Logger
}

func NewNurseBot(stores Stores, intents Intents, matcher *Matcher, notifier messaging.Notifier, tx db.TxRunner, logger *zap.Logger) *NurseBot {
	return &NurseBot{
		nurses:       stores.Nurses,
		facilities:   stores.Facilities,
		coordinators: stores.Coordinators,
		shifts:       stores.Shifts,
		chats:        stores.Chats,
		intents:      intents,
		matcher:      matcher,
		notifier:     notifier,
		tx:           tx,
		now:          time.Now,
		logger:       logger,
	}
}

func (b *NurseBot) WithClock(now func() time.Time) *NurseBot {
	b.now = now
	return b
}

func (b *NurseBot) today() model.Date {
	return model.NewDate(b.now())
}

// Handle processes one inbound message from the nurse's phone and returns the
// model's chat reply.
func (b *NurseBot) Handle(ctx context.Context, sender, text string) (string, error) {
	log := logger.WithTrace(ctx, b.logger).With(zap.String("sender", sender))

	history, err := b.chats.NurseHistory(ctx, sender)
	if err != nil {
		return "", err
	}
	if err := b.chats.AppendNurse(ctx, sender, text, model.MessageReceived); err != nil {
		return "", err
	}

	reply, err := b.intents.NurseIntent(ctx, text, turns(history))
	if err != nil {
		return "", err
	}
	if err := b.chats.AppendNurse(ctx, sender, reply.Message, model.MessageSent); err != nil {
		return "", err
	}

	intent := nurseIntent(reply)
	metrics.IncrementChatIntent("nurse", intent)
	log.Info("Nurse message parsed", zap.String("intent", intent))
	if intent == "chat" {
		return reply.Message, nil
	}

	n, err := b.nurses.GetByPhone(ctx, sender)
	if errors.Is(err, ErrNotFound) {
		log.Warn("Message from unknown nurse, nothing to act on")
		return reply.Message, nil
	}
	if err != nil {
		return "", err
	}

	if reply.Confirmation && len(reply.FacilityNames) > 0 {
		if err := b.confirm(ctx, n, reply.FacilityNames); err != nil {
			return "", err
		}
	}

	if len(reply.Shift) > 0 {
		if err := b.pickDates(ctx, n, reply.Shift); err != nil {
			return "", err
		}
	}

	if len(reply.ShiftDetails) > 0 && reply.Cancellation {
		if err := b.cancel(ctx, n, reply.ShiftDetails); err != nil {
			return "", err
		}
	}

	if reply.FollowUpReply && reply.CoordinatorMessage != "" {
		if err := b.relay(ctx, n, reply.CoordinatorMessage); err != nil {
			return "", err
		}
	}

	return reply.Message, nil
}

func nurseIntent(r *assistant.NurseReply) string {
	switch {
	case r.Confirmation && len(r.FacilityNames) > 0:
		return "confirm"
	case len(r.Shift) > 0:
		return "pick_date"
	case r.Cancellation && len(r.ShiftDetails) > 0:
		return "cancel"
	case r.FollowUpReply && r.CoordinatorMessage != "":
		return "follow_up_reply"
	default:
		return "chat"
	}
}

// confirm takes the nurse's single open match at each named facility, or asks
// which date they meant.
func (b *NurseBot) confirm(ctx context.Context, n *model.Nurse, names []string) error {
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}

		f, err := b.facilities.FindByName(ctx, name)
		if errors.Is(err, ErrNotFound) {
			if err := b.tell(ctx, n, "The facility name you provided does not exist. Make sure the name is correct."); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		open, err := b.shifts.FindOpen(ctx, f.ID, n.NurseType, n.Shift, b.today().Time)
		if err != nil {
			return err
		}

		switch len(open) {
		case 0:
			err = b.tell(ctx, n, "There are no shifts matching your profile for the facility you provided. Please make sure you have provided the correct information.")
		case 1:
			err = b.take(ctx, n, &open[0], f)
		default:
			dates := make([]string, 0, len(open))
			for _, s := range open {
				dates = append(dates, s.Date.Format(longDateLayout))
			}
			err = b.tell(ctx, n, fmt.Sprintf(
				"We found multiple shifts at %s that match your profile. On which date would you like to cover the shift?\n\n%s",
				f.Name, strings.Join(dates, ", ")))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// pickDates takes the shift for every facility and date the nurse named.
func (b *NurseBot) pickDates(ctx context.Context, n *model.Nurse, picks map[string]assistant.OneOrMany[string]) error {
	names := make([]string, 0, len(picks))
	for name := range picks {
		if strings.TrimSpace(name) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		f, err := b.facilities.FindByName(ctx, name)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		for _, raw := range picks[name] {
			date, err := model.ParseDate(raw)
			if err != nil {
				logger.WithTrace(ctx, b.logger).Warn("Skipping unreadable date", zap.String("date", raw))
				continue
			}

			var rows []model.Shift
			if f != nil {
				rows, err = b.shifts.FindAtFacility(ctx, f.ID, n.NurseType, n.Shift, date.Time)
				if err != nil {
					return err
				}
			}
			if len(rows) == 0 {
				err = b.tell(ctx, n, fmt.Sprintf("No shift found for %s at %s for %s %s shift",
					date.Format(longDateLayout), name, n.NurseType, n.Shift))
			} else {
				err = b.take(ctx, n, &rows[0], f)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// take checks the shift against the nurse's profile and schedule, then fills
// it if nobody got there first.
func (b *NurseBot) take(ctx context.Context, n *model.Nurse, sh *model.Shift, f *model.Facility) error {
	day := sh.Date.Format(longDateLayout)

	if !strings.EqualFold(sh.NurseType, n.NurseType) || !strings.EqualFold(sh.Shift, n.Shift) || !b.matcher.InRange(f, n) {
		return b.tell(ctx, n, fmt.Sprintf("The shift requested at %s on %s does not match your profile.", f.Name, day))
	}

	booked, err := b.nurses.BookedOn(ctx, []int{n.ID}, sh.Date.Time)
	if err != nil {
		return err
	}
	if booked[n.ID] {
		return b.tell(ctx, n, fmt.Sprintf(
			"The shift you asked to cover at %s on %s conflicts with your other shift and thus cannot be covered by you.",
			f.Name, day))
	}

	c, err := lookup(ctx, sh.CoordinatorID, b.coordinators.GetByID)
	if err != nil {
		return err
	}

	var filled bool
	err = b.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		filled, err = b.shifts.Fill(ctx, sh.ID, n.ID)
		if err != nil {
			return err
		}
		if !filled {
			return b.tell(ctx, n, "Sorry, the shift has already been filled. We will update you when more shifts are available for you.")
		}
		if c == nil || c.Phone == "" {
			return nil
		}
		return b.notifier.Notify(ctx, c.Phone, fmt.Sprintf(
			"Hello! Your shift requested on %s for %s %s shift has been filled. This shift will be covered by %s. You can reach out via %s.",
			monthDay(sh.Date.Time), sh.NurseType, sh.Shift, n.FirstName, n.MobileNumber))
	})
	if err != nil {
		return err
	}

	if filled {
		metrics.IncrementShiftTransition(model.StatusFilled)
		logger.WithTrace(ctx, b.logger).Info("Shift filled",
			zap.Int("shift_id", sh.ID),
			zap.Int("nurse_id", n.ID),
		)
	}
	return nil
}

// cancel reopens each of the nurse's shifts named in details and offers it to
// other nurses.
func (b *NurseBot) cancel(ctx context.Context, n *model.Nurse, details []assistant.ShiftDetail) error {
	for _, d := range details {
		date, err := model.ParseDate(d.Date)
		if err != nil {
			logger.WithTrace(ctx, b.logger).Warn("Skipping unreadable date", zap.String("date", d.Date))
			continue
		}
		day := monthDay(date.Time)

		sh, err := b.shifts.FindForNurse(ctx, n.ID, n.NurseType, n.Shift, date.Time)
		if errors.Is(err, ErrNotFound) {
			if err := b.tell(ctx, n, fmt.Sprintf(
				"The cancellation request you raised for the %s nurse for %s shift scheduled on %s does not exist or has been deleted already.",
				n.NurseType, n.Shift, day)); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}

		f, err := b.facilities.GetByID(ctx, sh.FacilityID)
		if err != nil {
			return err
		}
		c, err := lookup(ctx, sh.CoordinatorID, b.coordinators.GetByID)
		if err != nil {
			return err
		}

		err = b.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := b.shifts.Reopen(ctx, sh.ID); err != nil {
				return err
			}
			if err := b.tell(ctx, n, fmt.Sprintf("The shift you confirmed at %s on %s for %s has been cancelled.",
				f.Name, day, sh.NurseType)); err != nil {
				return err
			}
			if c == nil || c.Phone == "" {
				return nil
			}
			return b.notifier.Notify(ctx, c.Phone, fmt.Sprintf(
				"Hello! Your shift request on %s for a %s nurse has been cancelled by the nurse. We are looking for another to help cover it. Sorry for any inconvenience caused.",
				day, sh.NurseType))
		})
		if err != nil {
			return err
		}
		metrics.IncrementShiftTransition(model.StatusOpen)
		logger.WithTrace(ctx, b.logger).Info("Shift released by nurse",
			zap.Int("shift_id", sh.ID),
			zap.Int("nurse_id", n.ID),
		)

		sh.Status, sh.NurseID = model.StatusOpen, nil
		if _, err := b.matcher.Broadcast(ctx, sh, f, n.MobileNumber); err != nil {
			return err
		}
	}
	return nil
}

// relay forwards the nurse's answer to the coordinator of today's shift.
func (b *NurseBot) relay(ctx context.Context, n *model.Nurse, message string) error {
	c, err := b.shifts.CoordinatorOf(ctx, n.ID, b.today().Time)
	if errors.Is(err, ErrNotFound) {
		logger.WithTrace(ctx, b.logger).Warn("No coordinator to relay to", zap.Int("nurse_id", n.ID))
		return nil
	}
	if err != nil {
		return err
	}

	return b.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, key := range []string{c.Email, c.Phone} {
			if key == "" {
				continue
			}
			if err := b.chats.AppendCoordinator(ctx, key, message, model.MessageSent); err != nil {
				return err
			}
		}
		if c.Phone == "" {
			return nil
		}
		return b.notifier.Notify(ctx, c.Phone, message)
	})
}

func (b *NurseBot) tell(ctx context.Context, n *model.Nurse, text string) error {
	return b.notifier.Notify(ctx, n.MobileNumber, text)
}
