package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
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

const msgCoordinatorNotFound = "Coordinator not found."

// CoordinatorBot turns a coordinator's chat message into shift bookings,
// cancellations, follow-ups and status answers.
type CoordinatorBot struct {
	coordinators CoordinatorStore
	facilities   FacilityStore
	templates    TemplateStore
	nurseTypes   NurseTypeStore
	nurses       NurseStore
	shifts       ShiftStore
	chats        ChatStore
	intents      Intents
	matcher      *Matcher
	notifier     messaging.Notifier
	tx           db.TxRunner
	now          func() time.Time
	logger       *zap.Logger
}

func NewCoordinatorBot(stores Stores, intents Intents, matcher *Matcher, notifier messaging.Notifier, tx db.TxRunner, logger *zap.Logger) *CoordinatorBot {
	return &CoordinatorBot{
		coordinators: stores.Coordinators,
		facilities:   stores.Facilities,
		templates:    stores.Templates,
		nurseTypes:   stores.NurseTypes,
		nurses:       stores.Nurses,
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

func (b *CoordinatorBot) WithClock(now func() time.Time) *CoordinatorBot {
	b.now = now
	return b
}

// Handle processes one inbound message from sender (phone or email) and
// returns the chat reply.
func (b *CoordinatorBot) Handle(ctx context.Context, sender, text string) (string, error) {
	log := logger.WithTrace(ctx, b.logger).With(zap.String("sender", sender))

	history, err := b.chats.CoordinatorHistory(ctx, sender)
	if err != nil {
		return "", err
	}
	if err := b.chats.AppendCoordinator(ctx, sender, text, model.MessageReceived); err != nil {
		return "", err
	}

	reply, err := b.intents.CoordinatorIntent(ctx, text, turns(history))
	if err != nil {
		return "", err
	}
	intent := coordinatorIntent(reply)
	metrics.IncrementChatIntent("coordinator", intent)
	log.Info("Coordinator message parsed", zap.String("intent", intent))

	if len(reply.NurseDetails) > 0 {
		msg, done, err := b.book(ctx, sender, reply)
		if err != nil {
			return "", err
		}
		if done {
			return msg, nil
		}
	}

	if len(reply.ShiftDetails) > 0 && reply.Cancellation {
		if err := b.cancelMatching(ctx, sender, reply.ShiftDetails); err != nil {
			return "", err
		}
	}

	if len(reply.ShiftIDs) > 0 && reply.Cancellation {
		if err := b.cancelByID(ctx, sender, reply.ShiftIDs); err != nil {
			return "", err
		}
	}

	if reply.FollowUp && reply.NurseName != "" {
		if err := b.followUp(ctx, sender, reply.NurseName, reply.FollowUpMessage); err != nil {
			return "", err
		}
	}

	if !reply.ShiftInformation.Empty() {
		return b.shiftInformation(ctx, sender, reply.ShiftInformation)
	}
	return reply.Message, nil
}

func coordinatorIntent(r *assistant.CoordinatorReply) string {
	switch {
	case r.InstructionUpdateTarget != nil && r.InstructionUpdateTarget.ID != 0:
		return "instruction_update"
	case len(r.NurseDetails) > 0:
		return "book"
	case r.Cancellation && len(r.ShiftDetails) > 0:
		return "cancel"
	case r.Cancellation && len(r.ShiftIDs) > 0:
		return "cancel_by_id"
	case r.FollowUp:
		return "follow_up"
	case !r.ShiftInformation.Empty():
		return "shift_information"
	default:
		return "chat"
	}
}

// book handles nurse_details. done=true means msg is the final reply.
func (b *CoordinatorBot) book(ctx context.Context, sender string, reply *assistant.CoordinatorReply) (msg string, done bool, err error) {
	c, err := b.coordinators.FindByContact(ctx, sender)
	if errors.Is(err, ErrNotFound) {
		return msgCoordinatorNotFound, true, nil
	}
	if err != nil {
		return "", false, err
	}

	today := model.NewDate(b.now())

	for _, d := range reply.NurseDetails {
		tpl, err := b.serviceTemplate(ctx, c.FacilityID, d.NurseType)
		if err != nil {
			return "", false, err
		}
		if tpl == nil {
			msg := fmt.Sprintf("❌ The service type '%s' is not available for your facility. Please choose a different service type.", d.NurseType)
			return msg, true, b.chats.AppendCoordinator(ctx, sender, msg, model.MessageSent)
		}

		if t := reply.InstructionUpdateTarget; t != nil && t.ID != 0 && t.AdditionalInstructions != "" {
			return b.updateInstructions(ctx, sender, c, t)
		}

		date, err := model.ParseDate(d.Date)
		if err != nil {
			return "", false, fmt.Errorf("%w: date %q", assistant.ErrBadReply, d.Date)
		}
		period := strings.ToUpper(d.Shift)

		if date.Before(today) {
			return fmt.Sprintf("⚠️ Oops! %s has already passed. Please provide a future date for the shift.", monthDay(date.Time)), true, nil
		}
		if date.Equal(today) {
			if start := periodStart(tpl, period); start != "" && startedBy(date, start, b.now()) {
				return fmt.Sprintf("⚠️ Booking not allowed. The %s shift for %s has already started at %s.",
					period, d.NurseType, clock12(start)), true, nil
			}
		}

		if err := b.open(ctx, c, d, date); err != nil {
			return "", false, err
		}
	}
	return "", false, nil
}

// serviceTemplate returns the facility's template for a known nurse type, or
// nil when the type is unknown or the facility does not staff it.
func (b *CoordinatorBot) serviceTemplate(ctx context.Context, facilityID int, nurseType string) (*model.ShiftTemplate, error) {
	ok, err := b.nurseTypes.Exists(ctx, nurseType)
	if err != nil || !ok {
		return nil, err
	}
	tpl, err := b.templates.Find(ctx, facilityID, nurseType, true)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return tpl, err
}

func periodStart(t *model.ShiftTemplate, period string) string {
	var s *string
	switch period {
	case model.PeriodAM:
		s = t.AMTimeStart
	case model.PeriodPM:
		s = t.PMTimeStart
	case model.PeriodNOC:
		s = t.NOCTimeStart
	}
	if s == nil {
		return ""
	}
	return *s
}

func (b *CoordinatorBot) updateInstructions(ctx context.Context, sender string, c *model.Coordinator, t *assistant.InstructionUpdate) (string, bool, error) {
	id := int(t.ID)
	ok, err := b.shifts.UpdateInstructions(ctx, id, c.FacilityID, t.AdditionalInstructions)
	if err != nil {
		return "", false, err
	}

	msg := fmt.Sprintf("✅ Instruction added to shift ID %d: \"%s\"", id, t.AdditionalInstructions)
	if !ok {
		msg = fmt.Sprintf("The shift with ID %d does not exist. Please check and try again.", id)
	}
	return msg, true, b.chats.AppendCoordinator(ctx, sender, msg, model.MessageSent)
}

// open creates the requested shift and offers it to eligible nurses.
func (b *CoordinatorBot) open(ctx context.Context, c *model.Coordinator, d assistant.NurseDetail, date model.Date) error {
	bookedBy := model.BookedByBot
	sh := &model.Shift{
		FacilityID:    c.FacilityID,
		CoordinatorID: &c.ID,
		NurseType:     d.NurseType,
		Shift:         d.Shift,
		Date:          date,
		Status:        model.StatusOpen,
		BookedBy:      &bookedBy,
	}
	if d.AdditionalInstructions != nil && *d.AdditionalInstructions != "" {
		sh.AdditionalInstructions = d.AdditionalInstructions
	}

	if err := b.shifts.Create(ctx, sh); err != nil {
		return err
	}
	metrics.IncrementShiftTransition(model.StatusOpen)
	logger.WithTrace(ctx, b.logger).Info("Shift requested",
		zap.Int("shift_id", sh.ID),
		zap.Int("coordinator_id", c.ID),
		zap.String("nurse_type", sh.NurseType),
		zap.String("date", sh.Date.String()),
	)

	f, err := b.facilities.GetByID(ctx, c.FacilityID)
	if err != nil {
		return err
	}
	_, err = b.matcher.Broadcast(ctx, sh, f, "")
	return err
}

// cancelMatching cancels by type, period and date within the coordinator's
// facility. Several matches are listed back so the coordinator can pick one.
func (b *CoordinatorBot) cancelMatching(ctx context.Context, sender string, details []assistant.ShiftDetail) error {
	c, err := b.coordinators.FindByContact(ctx, sender)
	if errors.Is(err, ErrNotFound) {
		return b.notifier.Notify(ctx, sender, msgCoordinatorNotFound)
	}
	if err != nil {
		return err
	}
	f, err := b.facilities.GetByID(ctx, c.FacilityID)
	if err != nil {
		return err
	}

	for _, d := range details {
		date, err := model.ParseDate(d.Date)
		if err != nil {
			logger.WithTrace(ctx, b.logger).Warn("Skipping cancellation with bad date", zap.String("date", d.Date))
			continue
		}

		rows, err := b.shifts.FindAtFacility(ctx, f.ID, d.NurseType, d.Shift, date.Time)
		if err != nil {
			return err
		}

		switch len(rows) {
		case 0:
			err = b.notifier.Notify(ctx, sender, fmt.Sprintf(
				"The cancellation request you raised for the %s nurse for %s shift scheduled on %s does not exist or has been deleted already.",
				d.NurseType, d.Shift, date.String()))
		case 1:
			_, err = b.remove(ctx, &rows[0], f)
		default:
			err = b.askWhich(ctx, sender, rows, f)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *CoordinatorBot) askWhich(ctx context.Context, sender string, rows []model.Shift, f *model.Facility) error {
	var sb strings.Builder
	sb.WriteString("We found multiple shifts matching your request:\n\n")
	for i, row := range rows {
		name := "Not assigned"
		n, err := lookup(ctx, row.NurseID, b.nurses.GetByID)
		if err != nil {
			return err
		}
		if n != nil {
			name = n.FirstName
		}
		fmt.Fprintf(&sb, "%d. %s nurse (%s) at %s, %s on %s\n ID:%d\n",
			i+1, row.NurseType, name, f.Name, f.CityStateZip, monthDay(row.Date.Time), row.ID)
	}
	sb.WriteString("\nPlease reply with the number of the shift you'd like to cancel.")
	msg := sb.String()

	return b.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := b.chats.AppendCoordinator(ctx, sender, msg, model.MessageSent); err != nil {
			return err
		}
		return b.notifier.Notify(ctx, sender, msg)
	})
}

// remove deletes the row and tells its nurse, if any. It reports false when
// the row was already gone.
func (b *CoordinatorBot) remove(ctx context.Context, sh *model.Shift, f *model.Facility) (bool, error) {
	var deleted bool
	err := b.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = b.shifts.Delete(ctx, sh.ID)
		if err != nil || !deleted {
			return err
		}

		n, err := lookup(ctx, sh.NurseID, b.nurses.GetByID)
		if err != nil || n == nil || n.MobileNumber == "" {
			return err
		}
		return b.notifier.Notify(ctx, n.MobileNumber, fmt.Sprintf(
			"The shift you confirmed scheduled on %s at %s has been cancelled by the coordinator. We are sorry for any inconvenience caused.",
			monthDay(sh.Date.Time), f.Name))
	})
	if err != nil {
		return false, err
	}
	if deleted {
		metrics.IncrementShiftTransition("deleted")
		logger.WithTrace(ctx, b.logger).Info("Shift cancelled by coordinator", zap.Int("shift_id", sh.ID))
	}
	return deleted, nil
}

func (b *CoordinatorBot) cancelByID(ctx context.Context, sender string, ids []assistant.FlexInt) error {
	c, err := b.coordinators.FindByContact(ctx, sender)
	if errors.Is(err, ErrNotFound) {
		return b.notifier.Notify(ctx, sender, msgCoordinatorNotFound)
	}
	if err != nil {
		return err
	}

	var deleted []string
	for _, raw := range ids {
		id := int(raw)
		sh, err := b.shifts.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			if err := b.notifier.Notify(ctx, sender, fmt.Sprintf(
				"The shift with ID %d does not exist. Please check and try again.", id)); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		if sh.FacilityID != c.FacilityID {
			if err := b.notifier.Notify(ctx, sender, fmt.Sprintf(
				"The shift with ID %d does not belong to your account. Please check and try again.", id)); err != nil {
				return err
			}
			continue
		}

		f, err := b.facilities.GetByID(ctx, sh.FacilityID)
		if err != nil {
			return err
		}
		ok, err := b.remove(ctx, sh, f)
		if err != nil {
			return err
		}
		if ok {
			deleted = append(deleted, strconv.Itoa(id))
		}
	}

	switch len(deleted) {
	case 0:
		return nil
	case 1:
		return b.notifier.Notify(ctx, sender, fmt.Sprintf("The shift with ID %s has been deleted.", deleted[0]))
	default:
		return b.notifier.Notify(ctx, sender, fmt.Sprintf("The shifts with IDs %s have been deleted.", strings.Join(deleted, ", ")))
	}
}

// followUp relays a question to each nurse working for the coordinator today
// under that name.
func (b *CoordinatorBot) followUp(ctx context.Context, sender, name, question string) error {
	log := logger.WithTrace(ctx, b.logger).With(zap.String("nurse_name", name))

	c, err := b.coordinators.FindByContact(ctx, sender)
	if errors.Is(err, ErrNotFound) {
		log.Warn("Follow-up from unknown coordinator")
		return nil
	}
	if err != nil {
		return err
	}

	rows, err := b.shifts.TodayAssignments(ctx, c.ID, name, model.NewDate(b.now()).Time)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return b.notifier.Notify(ctx, sender, fmt.Sprintf("No shift for %s found for today.", name))
	}

	seen := map[string]bool{}
	for _, row := range rows {
		n := row.Nurse
		key := n.FullName() + "_" + n.MobileNumber + "_" + n.Email
		if seen[key] || n.MobileNumber == "" {
			continue
		}

		text, err := b.intents.DraftFollowUp(ctx, n.FullName(), question, row.FacilityName)
		if err != nil {
			log.Warn("Follow-up not drafted", zap.Int("nurse_id", n.ID), zap.Error(err))
			continue
		}

		err = b.tx.WithTx(ctx, func(ctx context.Context) error {
			if err := b.chats.AppendNurse(ctx, n.MobileNumber, text, model.MessageSent); err != nil {
				return err
			}
			return b.notifier.Notify(ctx, n.MobileNumber, text)
		})
		if err != nil {
			return err
		}
		seen[key] = true
	}
	return nil
}

// shiftInformation answers a status question from the coordinator's own rows.
func (b *CoordinatorBot) shiftInformation(ctx context.Context, sender string, info *assistant.ShiftInformation) (string, error) {
	c, err := b.coordinators.FindByContact(ctx, sender)
	if errors.Is(err, ErrNotFound) {
		return msgCoordinatorNotFound, nil
	}
	if err != nil {
		return "", err
	}

	q := model.ShiftQuery{
		CoordinatorID: c.ID,
		Shift:         info.Shift,
		NurseType:     info.NurseType,
		Status:        info.Status,
	}
	if info.Date != "" {
		d, err := model.ParseDate(info.Date)
		if err != nil {
			return "", fmt.Errorf("%w: date %q", assistant.ErrBadReply, info.Date)
		}
		q.Date = &d
	} else if info.StartDate != "" && info.EndDate != "" {
		start, err := model.ParseDate(info.StartDate)
		if err != nil {
			return "", fmt.Errorf("%w: start_date %q", assistant.ErrBadReply, info.StartDate)
		}
		end, err := model.ParseDate(info.EndDate)
		if err != nil {
			return "", fmt.Errorf("%w: end_date %q", assistant.ErrBadReply, info.EndDate)
		}
		q.Start, q.End = &start, &end
	}

	rows, err := b.shifts.Search(ctx, q)
	if err != nil {
		return "", err
	}

	msg := "I couldn't find any shifts matching your criteria."
	if len(rows) > 0 {
		lines := make([]string, 0, len(rows))
		for _, s := range rows {
			lines = append(lines, fmt.Sprintf("- Date: %s, Shift: %s, Nurse Type: %s, Status: %s",
				monthDay(s.Date.Time), s.Shift, s.NurseType, s.Status))
		}
		msg = "Here are the shifts that match your criteria:\n" + strings.Join(lines, "\n")
	}
	return msg, b.chats.AppendCoordinator(ctx, sender, msg, model.MessageSent)
}
