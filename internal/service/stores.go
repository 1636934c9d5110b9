package service

import (
	"context"
	"time"

	"shiftdesk/internal/assistant"
	"shiftdesk/internal/model"
	"shiftdesk/internal/repository"
)

// The interfaces below are the slices of the repositories each service needs.

type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
}

type FacilityStore interface {
	Create(ctx context.Context, f *model.Facility) error
	Update(ctx context.Context, f *model.Facility) error
	UpdateLocation(ctx context.Context, id int, lat, lng *float64) error
	GetByID(ctx context.Context, id int) (*model.Facility, error)
	FindByName(ctx context.Context, name string) (*model.Facility, error)
	FindByExactName(ctx context.Context, name string) (*model.Facility, error)
	List(ctx context.Context, search string, limit, offset int) ([]model.Facility, error)
	Count(ctx context.Context, search string) (int, error)
	Delete(ctx context.Context, id int) error
}

type CoordinatorStore interface {
	ContactTaken(ctx context.Context, phone, email string, excludeID int) (bool, error)
	Create(ctx context.Context, c *model.Coordinator) error
	Update(ctx context.Context, c *model.Coordinator) error
	ListByFacility(ctx context.Context, facilityID int) ([]model.Coordinator, error)
	GetByID(ctx context.Context, id int) (*model.Coordinator, error)
	FindByContact(ctx context.Context, sender string) (*model.Coordinator, error)
	Delete(ctx context.Context, id int) error
}

type TemplateStore interface {
	Upsert(ctx context.Context, t *model.ShiftTemplate) error
	ListByFacility(ctx context.Context, facilityID int) ([]model.ShiftTemplate, error)
	Find(ctx context.Context, facilityID int, role string, exact bool) (*model.ShiftTemplate, error)
	DeleteRole(ctx context.Context, facilityID int, role string) error
}

type NurseStore interface {
	List(ctx context.Context, search string, limit, offset int) ([]model.Nurse, error)
	Count(ctx context.Context, search string) (int, error)
	GetByID(ctx context.Context, id int) (*model.Nurse, error)
	GetByPhone(ctx context.Context, phone string) (*model.Nurse, error)
	FindConflict(ctx context.Context, email, phone string, excludeID int) (*model.Nurse, error)
	Create(ctx context.Context, n *model.Nurse) error
	Update(ctx context.Context, n *model.Nurse) error
	UpdateLocation(ctx context.Context, id int, lat, lng *float64) error
	Delete(ctx context.Context, id int) error
	FindCandidates(ctx context.Context, nurseType, shift string) ([]model.Nurse, error)
	BookedOn(ctx context.Context, ids []int, date time.Time) (map[int]bool, error)
}

type NurseTypeStore interface {
	Create(ctx context.Context, name string) (*model.NurseType, error)
	List(ctx context.Context) ([]model.NurseType, error)
	GetByID(ctx context.Context, id int) (*model.NurseType, error)
	Exists(ctx context.Context, name string) (bool, error)
	DeleteCascade(ctx context.Context, nt *model.NurseType) error
	RenameCascade(ctx context.Context, nt *model.NurseType, newName string) error
}

type ShiftStore interface {
	Create(ctx context.Context, s *model.Shift) error
	GetByID(ctx context.Context, id int) (*model.Shift, error)
	Update(ctx context.Context, s *model.Shift) error
	Delete(ctx context.Context, id int) (bool, error)
	Fill(ctx context.Context, id, nurseID int) (bool, error)
	Reopen(ctx context.Context, id int) error
	UpdateInstructions(ctx context.Context, id, facilityID int, text string) (bool, error)
	FindAtFacility(ctx context.Context, facilityID int, nurseType, shift string, date time.Time) ([]model.Shift, error)
	FindOpen(ctx context.Context, facilityID int, nurseType, shift string, from time.Time) ([]model.Shift, error)
	FindForNurse(ctx context.Context, nurseID int, nurseType, shift string, date time.Time) (*model.Shift, error)
	CoordinatorOf(ctx context.Context, nurseID int, date time.Time) (*model.Coordinator, error)
	TodayAssignments(ctx context.Context, coordinatorID int, name string, date time.Time) ([]model.TodayAssignment, error)
	Search(ctx context.Context, q model.ShiftQuery) ([]model.Shift, error)
	Calendar(ctx context.Context, f repository.CalendarFilter) ([]model.Shift, error)
	ListAll(ctx context.Context, search string, limit, offset int) ([]model.ShiftListing, error)
	CountAll(ctx context.Context, search string) (int, error)
}

type ChatStore interface {
	AppendNurse(ctx context.Context, mobile, message, messageType string) error
	AppendCoordinator(ctx context.Context, sender, message, messageType string) error
	NurseHistory(ctx context.Context, mobile string) ([]repository.ChatMessage, error)
	CoordinatorHistory(ctx context.Context, sender string) ([]repository.ChatMessage, error)
}

// Intents is the conversational model as the dispatchers use it.
type Intents interface {
	CoordinatorIntent(ctx context.Context, text string, history []assistant.Turn) (*assistant.CoordinatorReply, error)
	NurseIntent(ctx context.Context, text string, history []assistant.Turn) (*assistant.NurseReply, error)
	DraftInvitation(ctx context.Context, in assistant.Invitation) (string, error)
	DraftFollowUp(ctx context.Context, nurseName, question, facilityName string) (string, error)
}

// Stores groups every repository the services read and write.
type Stores struct {
	Admins       AdminStore
	Facilities   FacilityStore
	Coordinators CoordinatorStore
	Templates    TemplateStore
	Nurses       NurseStore
	NurseTypes   NurseTypeStore
	Shifts       ShiftStore
	Chats        ChatStore
}

// NewStores wires the Postgres repositories.
func NewStores(
	admins *repository.AdminRepository,
	facilities *repository.FacilityRepository,
	coordinators *repository.CoordinatorRepository,
	templates *repository.ShiftTemplateRepository,
	nurses *repository.NurseRepository,
	nurseTypes *repository.NurseTypeRepository,
	shifts *repository.ShiftRepository,
	chats *repository.ChatRepository,
) Stores {
	return Stores{
		Admins:       admins,
		Facilities:   facilities,
		Coordinators: coordinators,
		Templates:    templates,
		Nurses:       nurses,
		NurseTypes:   nurseTypes,
		Shifts:       shifts,
		Chats:        chats,
	}
}

func turns(msgs []repository.ChatMessage) []assistant.Turn {
	out := make([]assistant.Turn, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, assistant.Turn{Direction: m.MessageType, Text: m.Message})
	}
	return out
}
