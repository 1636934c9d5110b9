package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"shiftdesk/internal/assistant"
	"shiftdesk/internal/geo"
	"shiftdesk/internal/model"
	"shiftdesk/internal/repository"
)

// world is an in-memory database shared by the fake stores.
type world struct {
	seq          int
	admins       map[string]*model.Admin
	facilities   map[int]*model.Facility
	coordinators map[int]*model.Coordinator
	templates    map[int]*model.ShiftTemplate
	nurses       map[int]*model.Nurse
	types        map[int]*model.NurseType
	shifts       map[int]*model.Shift
	chats        []chatLine
}

type chatLine struct {
	party, key, message, kind string
}

func newWorld() *world {
	return &world{
		admins:       map[string]*model.Admin{},
		facilities:   map[int]*model.Facility{},
		coordinators: map[int]*model.Coordinator{},
		templates:    map[int]*model.ShiftTemplate{},
		nurses:       map[int]*model.Nurse{},
		types:        map[int]*model.NurseType{},
		shifts:       map[int]*model.Shift{},
	}
}

func (w *world) id() int {
	w.seq++
	return w.seq
}

func (w *world) stores() Stores {
	return Stores{
		Admins:       fakeAdmins{w},
		Facilities:   fakeFacilities{w},
		Coordinators: fakeCoordinators{w},
		Templates:    fakeTemplates{w},
		Nurses:       fakeNurses{w},
		NurseTypes:   fakeNurseTypes{w},
		Shifts:       fakeShifts{w},
		Chats:        fakeChats{w},
	}
}

func sortedKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func ptr[T any](v T) *T { return &v }

// seed helpers

func (w *world) addFacility(name string, lat, lng float64) *model.Facility {
	f := &model.Facility{ID: w.id(), Name: name, CityStateZip: "Austin, TX 78701", Lat: ptr(lat), Lng: ptr(lng)}
	w.facilities[f.ID] = f
	return f
}

func (w *world) addCoordinator(facilityID int, first, phone, email string) *model.Coordinator {
	c := &model.Coordinator{ID: w.id(), FacilityID: facilityID, FirstName: first, LastName: "Lead", Phone: phone, Email: email}
	w.coordinators[c.ID] = c
	return c
}

func (w *world) addTemplate(facilityID int, role, amStart, amEnd string) *model.ShiftTemplate {
	t := &model.ShiftTemplate{ID: w.id(), FacilityID: facilityID, Role: role, AMTimeStart: ptr(amStart), AMTimeEnd: ptr(amEnd)}
	w.templates[t.ID] = t
	return t
}

func (w *world) addType(name string) *model.NurseType {
	nt := &model.NurseType{ID: w.id(), NurseType: name}
	w.types[nt.ID] = nt
	return nt
}

func (w *world) addNurse(first, nurseType, shift, phone string, lat, lng float64) *model.Nurse {
	n := &model.Nurse{
		ID: w.id(), FirstName: first, LastName: "Doe", NurseType: nurseType, Shift: shift,
		MobileNumber: phone, Email: strings.ToLower(first) + "@example.com", Lat: ptr(lat), Lng: ptr(lng),
	}
	w.nurses[n.ID] = n
	return n
}

func (w *world) addShift(facilityID int, coordinatorID *int, nurseType, shift string, date model.Date, nurseID *int) *model.Shift {
	status := model.StatusOpen
	if nurseID != nil {
		status = model.StatusFilled
	}
	s := &model.Shift{
		ID: w.id(), FacilityID: facilityID, CoordinatorID: coordinatorID, NurseType: nurseType,
		Shift: shift, Date: date, NurseID: nurseID, Status: status,
	}
	w.shifts[s.ID] = s
	return s
}

// stores

type fakeAdmins struct{ w *world }

func (s fakeAdmins) FindByEmail(_ context.Context, email string) (*model.Admin, error) {
	a, ok := s.w.admins[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return a, nil
}

type fakeFacilities struct{ w *world }

func (s fakeFacilities) Create(_ context.Context, f *model.Facility) error {
	f.ID = s.w.id()
	cp := *f
	s.w.facilities[f.ID] = &cp
	return nil
}

func (s fakeFacilities) Update(_ context.Context, f *model.Facility) error {
	old, ok := s.w.facilities[f.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *f
	cp.Lat, cp.Lng = old.Lat, old.Lng
	s.w.facilities[f.ID] = &cp
	return nil
}

func (s fakeFacilities) UpdateLocation(_ context.Context, id int, lat, lng *float64) error {
	f, ok := s.w.facilities[id]
	if !ok {
		return repository.ErrNotFound
	}
	f.Lat, f.Lng = lat, lng
	return nil
}

func (s fakeFacilities) GetByID(_ context.Context, id int) (*model.Facility, error) {
	f, ok := s.w.facilities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s fakeFacilities) FindByName(_ context.Context, name string) (*model.Facility, error) {
	for _, id := range sortedKeys(s.w.facilities) {
		if f := s.w.facilities[id]; strings.EqualFold(f.Name, name) {
			cp := *f
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s fakeFacilities) FindByExactName(_ context.Context, name string) (*model.Facility, error) {
	for _, id := range sortedKeys(s.w.facilities) {
		if f := s.w.facilities[id]; f.Name == name {
			cp := *f
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s fakeFacilities) matching(search string) []model.Facility {
	var out []model.Facility
	for _, id := range sortedKeys(s.w.facilities) {
		f := s.w.facilities[id]
		if search == "" || contains(f.Name, search) || contains(f.CityStateZip, search) || contains(f.Address, search) {
			out = append(out, *f)
		}
	}
	return out
}

func (s fakeFacilities) List(_ context.Context, search string, limit, offset int) ([]model.Facility, error) {
	return page(s.matching(search), limit, offset), nil
}

func (s fakeFacilities) Count(_ context.Context, search string) (int, error) {
	return len(s.matching(search)), nil
}

func (s fakeFacilities) Delete(_ context.Context, id int) error {
	if _, ok := s.w.facilities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.w.facilities, id)
	return nil
}

type fakeCoordinators struct{ w *world }

func (s fakeCoordinators) ContactTaken(_ context.Context, phone, email string, excludeID int) (bool, error) {
	for _, c := range s.w.coordinators {
		if c.ID != excludeID && (c.Phone == phone || strings.EqualFold(c.Email, email)) {
			return true, nil
		}
	}
	return false, nil
}

func (s fakeCoordinators) Create(_ context.Context, c *model.Coordinator) error {
	c.ID = s.w.id()
	cp := *c
	s.w.coordinators[c.ID] = &cp
	return nil
}

func (s fakeCoordinators) Update(_ context.Context, c *model.Coordinator) error {
	if _, ok := s.w.coordinators[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	s.w.coordinators[c.ID] = &cp
	return nil
}

func (s fakeCoordinators) ListByFacility(_ context.Context, facilityID int) ([]model.Coordinator, error) {
	var out []model.Coordinator
	for _, id := range sortedKeys(s.w.coordinators) {
		if c := s.w.coordinators[id]; c.FacilityID == facilityID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s fakeCoordinators) GetByID(_ context.Context, id int) (*model.Coordinator, error) {
	c, ok := s.w.coordinators[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s fakeCoordinators) FindByContact(_ context.Context, sender string) (*model.Coordinator, error) {
	for _, id := range sortedKeys(s.w.coordinators) {
		if c := s.w.coordinators[id]; c.Phone == sender || c.Email == sender {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s fakeCoordinators) Delete(_ context.Context, id int) error {
	if _, ok := s.w.coordinators[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.w.coordinators, id)
	return nil
}

type fakeTemplates struct{ w *world }

func (s fakeTemplates) Upsert(_ context.Context, t *model.ShiftTemplate) error {
	for _, old := range s.w.templates {
		if old.FacilityID == t.FacilityID && old.Role == t.Role {
			t.ID = old.ID
			cp := *t
			s.w.templates[t.ID] = &cp
			return nil
		}
	}
	t.ID = s.w.id()
	cp := *t
	s.w.templates[t.ID] = &cp
	return nil
}

func (s fakeTemplates) ListByFacility(_ context.Context, facilityID int) ([]model.ShiftTemplate, error) {
	var out []model.ShiftTemplate
	for _, id := range sortedKeys(s.w.templates) {
		if t := s.w.templates[id]; t.FacilityID == facilityID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s fakeTemplates) Find(_ context.Context, facilityID int, role string, exact bool) (*model.ShiftTemplate, error) {
	for _, id := range sortedKeys(s.w.templates) {
		t := s.w.templates[id]
		if t.FacilityID != facilityID {
			continue
		}
		if (exact && t.Role == role) || (!exact && strings.EqualFold(t.Role, role)) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s fakeTemplates) DeleteRole(_ context.Context, facilityID int, role string) error {
	for id, t := range s.w.templates {
		if t.FacilityID == facilityID && strings.EqualFold(t.Role, role) {
			delete(s.w.templates, id)
		}
	}
	return nil
}

type fakeNurses struct{ w *world }

func (s fakeNurses) matching(search string) []model.Nurse {
	var out []model.Nurse
	for _, id := range sortedKeys(s.w.nurses) {
		n := s.w.nurses[id]
		if search == "" || contains(n.FullName(), search) || contains(n.Email, search) || contains(n.MobileNumber, search) {
			out = append(out, *n)
		}
	}
	return out
}

func (s fakeNurses) List(_ context.Context, search string, limit, offset int) ([]model.Nurse, error) {
	return page(s.matching(search), limit, offset), nil
}

func (s fakeNurses) Count(_ context.Context, search string) (int, error) {
	return len(s.matching(search)), nil
}

func (s fakeNurses) GetByID(_ context.Context, id int) (*model.Nurse, error) {
	n, ok := s.w.nurses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s fakeNurses) GetByPhone(_ context.Context, phone string) (*model.Nurse, error) {
	for _, id := range sortedKeys(s.w.nurses) {
		if n := s.w.nurses[id]; n.MobileNumber == phone {
			cp := *n
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s fakeNurses) FindConflict(_ context.Context, email, phone string, excludeID int) (*model.Nurse, error) {
	for _, id := range sortedKeys(s.w.nurses) {
		n := s.w.nurses[id]
		if n.ID != excludeID && (strings.EqualFold(n.Email, email) || n.MobileNumber == phone) {
			cp := *n
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s fakeNurses) Create(_ context.Context, n *model.Nurse) error {
	n.ID = s.w.id()
	cp := *n
	s.w.nurses[n.ID] = &cp
	return nil
}

func (s fakeNurses) Update(_ context.Context, n *model.Nurse) error {
	old, ok := s.w.nurses[n.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *n
	cp.Lat, cp.Lng = old.Lat, old.Lng
	s.w.nurses[n.ID] = &cp
	return nil
}

func (s fakeNurses) UpdateLocation(_ context.Context, id int, lat, lng *float64) error {
	n, ok := s.w.nurses[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Lat, n.Lng = lat, lng
	return nil
}

func (s fakeNurses) Delete(_ context.Context, id int) error {
	if _, ok := s.w.nurses[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.w.nurses, id)
	return nil
}

func (s fakeNurses) FindCandidates(_ context.Context, nurseType, shift string) ([]model.Nurse, error) {
	var out []model.Nurse
	for _, id := range sortedKeys(s.w.nurses) {
		n := s.w.nurses[id]
		if strings.EqualFold(n.NurseType, nurseType) && strings.EqualFold(n.Shift, shift) && n.HasLocation() {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (s fakeNurses) BookedOn(_ context.Context, ids []int, date time.Time) (map[int]bool, error) {
	want := map[int]bool{}
	for _, id := range ids {
		want[id] = true
	}
	booked := map[int]bool{}
	for _, sh := range s.w.shifts {
		if sh.NurseID != nil && want[*sh.NurseID] && sh.Date.Time.Equal(date) {
			booked[*sh.NurseID] = true
		}
	}
	return booked, nil
}

type fakeNurseTypes struct{ w *world }

func (s fakeNurseTypes) Create(_ context.Context, name string) (*model.NurseType, error) {
	return s.w.addType(name), nil
}

func (s fakeNurseTypes) List(_ context.Context) ([]model.NurseType, error) {
	var out []model.NurseType
	for _, id := range sortedKeys(s.w.types) {
		out = append(out, *s.w.types[id])
	}
	return out, nil
}

func (s fakeNurseTypes) GetByID(_ context.Context, id int) (*model.NurseType, error) {
	nt, ok := s.w.types[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *nt
	return &cp, nil
}

func (s fakeNurseTypes) Exists(_ context.Context, name string) (bool, error) {
	for _, nt := range s.w.types {
		if nt.NurseType == name {
			return true, nil
		}
	}
	return false, nil
}

func (s fakeNurseTypes) DeleteCascade(_ context.Context, nt *model.NurseType) error {
	delete(s.w.types, nt.ID)
	for id, t := range s.w.templates {
		if strings.EqualFold(t.Role, nt.NurseType) {
			delete(s.w.templates, id)
		}
	}
	for id, n := range s.w.nurses {
		if strings.EqualFold(n.NurseType, nt.NurseType) {
			delete(s.w.nurses, id)
		}
	}
	for id, sh := range s.w.shifts {
		if strings.EqualFold(sh.NurseType, nt.NurseType) {
			delete(s.w.shifts, id)
		}
	}
	return nil
}

func (s fakeNurseTypes) RenameCascade(_ context.Context, nt *model.NurseType, newName string) error {
	s.w.types[nt.ID].NurseType = newName
	for _, t := range s.w.templates {
		if strings.EqualFold(t.Role, nt.NurseType) {
			t.Role = newName
		}
	}
	for _, n := range s.w.nurses {
		if strings.EqualFold(n.NurseType, nt.NurseType) {
			n.NurseType = newName
		}
	}
	for _, sh := range s.w.shifts {
		if strings.EqualFold(sh.NurseType, nt.NurseType) {
			sh.NurseType = newName
		}
	}
	return nil
}

type fakeShifts struct{ w *world }

func (s fakeShifts) each(keep func(*model.Shift) bool) []model.Shift {
	var out []model.Shift
	for _, id := range sortedKeys(s.w.shifts) {
		if sh := s.w.shifts[id]; keep(sh) {
			out = append(out, *sh)
		}
	}
	return out
}

func (s fakeShifts) Create(_ context.Context, sh *model.Shift) error {
	sh.ID = s.w.id()
	cp := *sh
	s.w.shifts[sh.ID] = &cp
	return nil
}

func (s fakeShifts) GetByID(_ context.Context, id int) (*model.Shift, error) {
	sh, ok := s.w.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *sh
	return &cp, nil
}

func (s fakeShifts) Update(_ context.Context, sh *model.Shift) error {
	if _, ok := s.w.shifts[sh.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *sh
	s.w.shifts[sh.ID] = &cp
	return nil
}

func (s fakeShifts) Delete(_ context.Context, id int) (bool, error) {
	if _, ok := s.w.shifts[id]; !ok {
		return false, nil
	}
	delete(s.w.shifts, id)
	return true, nil
}

func (s fakeShifts) Fill(_ context.Context, id, nurseID int) (bool, error) {
	sh, ok := s.w.shifts[id]
	if !ok || sh.Status != model.StatusOpen || sh.NurseID != nil {
		return false, nil
	}
	sh.Status, sh.NurseID = model.StatusFilled, ptr(nurseID)
	return true, nil
}

func (s fakeShifts) Reopen(_ context.Context, id int) error {
	if sh, ok := s.w.shifts[id]; ok {
		sh.Status, sh.NurseID = model.StatusOpen, nil
	}
	return nil
}

func (s fakeShifts) UpdateInstructions(_ context.Context, id, facilityID int, text string) (bool, error) {
	sh, ok := s.w.shifts[id]
	if !ok || sh.FacilityID != facilityID {
		return false, nil
	}
	sh.AdditionalInstructions = ptr(text)
	return true, nil
}

func (s fakeShifts) FindAtFacility(_ context.Context, facilityID int, nurseType, shift string, date time.Time) ([]model.Shift, error) {
	return s.each(func(sh *model.Shift) bool {
		return sh.FacilityID == facilityID && strings.EqualFold(sh.NurseType, nurseType) &&
			strings.EqualFold(sh.Shift, shift) && sh.Date.Time.Equal(date)
	}), nil
}

func (s fakeShifts) FindOpen(_ context.Context, facilityID int, nurseType, shift string, from time.Time) ([]model.Shift, error) {
	return s.each(func(sh *model.Shift) bool {
		return sh.FacilityID == facilityID && strings.EqualFold(sh.NurseType, nurseType) &&
			strings.EqualFold(sh.Shift, shift) && sh.Status == model.StatusOpen && sh.NurseID == nil &&
			!sh.Date.Time.Before(from)
	}), nil
}

func (s fakeShifts) FindForNurse(_ context.Context, nurseID int, nurseType, shift string, date time.Time) (*model.Shift, error) {
	rows := s.each(func(sh *model.Shift) bool {
		return sh.NurseID != nil && *sh.NurseID == nurseID && strings.EqualFold(sh.NurseType, nurseType) &&
			strings.EqualFold(sh.Shift, shift) && sh.Date.Time.Equal(date)
	})
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return &rows[0], nil
}

func (s fakeShifts) CoordinatorOf(_ context.Context, nurseID int, date time.Time) (*model.Coordinator, error) {
	rows := s.each(func(sh *model.Shift) bool {
		return sh.NurseID != nil && *sh.NurseID == nurseID && sh.Date.Time.Equal(date) && sh.CoordinatorID != nil
	})
	if len(rows) == 0 {
		return nil, repository.ErrNotFound
	}
	return fakeCoordinators{s.w}.GetByID(context.Background(), *rows[0].CoordinatorID)
}

func (s fakeShifts) TodayAssignments(_ context.Context, coordinatorID int, name string, date time.Time) ([]model.TodayAssignment, error) {
	var out []model.TodayAssignment
	for _, sh := range s.each(func(sh *model.Shift) bool {
		return sh.CoordinatorID != nil && *sh.CoordinatorID == coordinatorID && sh.NurseID != nil && sh.Date.Time.Equal(date)
	}) {
		n := s.w.nurses[*sh.NurseID]
		if n == nil || !(strings.EqualFold(n.FirstName, name) || strings.EqualFold(n.FullName(), name)) {
			continue
		}
		out = append(out, model.TodayAssignment{ShiftID: sh.ID, Nurse: *n, FacilityName: s.w.facilities[sh.FacilityID].Name})
	}
	return out, nil
}

func (s fakeShifts) Search(_ context.Context, q model.ShiftQuery) ([]model.Shift, error) {
	return s.each(func(sh *model.Shift) bool {
		if sh.CoordinatorID == nil || *sh.CoordinatorID != q.CoordinatorID {
			return false
		}
		switch {
		case q.Date != nil:
			if !sh.Date.Equal(*q.Date) {
				return false
			}
		case q.Start != nil && q.End != nil:
			if sh.Date.Before(*q.Start) || q.End.Before(sh.Date) {
				return false
			}
		}
		return (q.Shift == "" || strings.EqualFold(sh.Shift, q.Shift)) &&
			(q.NurseType == "" || strings.EqualFold(sh.NurseType, q.NurseType)) &&
			(q.Status == "" || strings.EqualFold(sh.Status, q.Status))
	}), nil
}

func (s fakeShifts) Calendar(_ context.Context, f repository.CalendarFilter) ([]model.Shift, error) {
	return s.each(func(sh *model.Shift) bool {
		return (f.NurseType == "" || sh.NurseType == f.NurseType) &&
			(f.Shift == "" || sh.Shift == f.Shift) &&
			(f.Status == "" || sh.Status == f.Status) &&
			(f.FacilityID == nil || sh.FacilityID == *f.FacilityID)
	}), nil
}

func (s fakeShifts) listings() []model.ShiftListing {
	var out []model.ShiftListing
	for _, sh := range s.each(func(*model.Shift) bool { return true }) {
		l := model.ShiftListing{Shift: sh}
		if f := s.w.facilities[sh.FacilityID]; f != nil {
			l.FacilityName = f.Name
		}
		out = append(out, l)
	}
	return out
}

func (s fakeShifts) ListAll(_ context.Context, _ string, limit, offset int) ([]model.ShiftListing, error) {
	return page(s.listings(), limit, offset), nil
}

func (s fakeShifts) CountAll(_ context.Context, _ string) (int, error) {
	return len(s.listings()), nil
}

type fakeChats struct{ w *world }

func (s fakeChats) AppendNurse(_ context.Context, mobile, message, kind string) error {
	s.w.chats = append(s.w.chats, chatLine{party: "nurse", key: mobile, message: message, kind: kind})
	return nil
}

func (s fakeChats) AppendCoordinator(_ context.Context, sender, message, kind string) error {
	s.w.chats = append(s.w.chats, chatLine{party: "coordinator", key: sender, message: message, kind: kind})
	return nil
}

func (s fakeChats) history(party, key string) []repository.ChatMessage {
	var out []repository.ChatMessage
	for _, l := range s.w.chats {
		if l.party == party && l.key == key {
			out = append(out, repository.ChatMessage{Message: l.message, MessageType: l.kind})
		}
	}
	return out
}

func (s fakeChats) NurseHistory(_ context.Context, mobile string) ([]repository.ChatMessage, error) {
	return s.history("nurse", mobile), nil
}

func (s fakeChats) CoordinatorHistory(_ context.Context, sender string) ([]repository.ChatMessage, error) {
	return s.history("coordinator", sender), nil
}

func (w *world) chatLog(party, key string) []string {
	var out []string
	for _, l := range w.chats {
		if l.party == party && l.key == key {
			out = append(out, l.kind+": "+l.message)
		}
	}
	return out
}

// collaborators

type fakeIntents struct {
	coordinator *assistant.CoordinatorReply
	nurse       *assistant.NurseReply
	err         error
	draftErr    error
	invitations []assistant.Invitation
	followUps   []string
	histories   [][]assistant.Turn
}

func (f *fakeIntents) CoordinatorIntent(_ context.Context, _ string, history []assistant.Turn) (*assistant.CoordinatorReply, error) {
	f.histories = append(f.histories, history)
	if f.err != nil {
		return nil, f.err
	}
	return f.coordinator, nil
}

func (f *fakeIntents) NurseIntent(_ context.Context, _ string, history []assistant.Turn) (*assistant.NurseReply, error) {
	f.histories = append(f.histories, history)
	if f.err != nil {
		return nil, f.err
	}
	return f.nurse, nil
}

func (f *fakeIntents) DraftInvitation(_ context.Context, in assistant.Invitation) (string, error) {
	if f.draftErr != nil {
		return "", f.draftErr
	}
	f.invitations = append(f.invitations, in)
	return "Open " + in.NurseType + " " + in.Shift + " shift at " + in.FacilityName, nil
}

func (f *fakeIntents) DraftFollowUp(_ context.Context, nurseName, question, facilityName string) (string, error) {
	if f.draftErr != nil {
		return "", f.draftErr
	}
	text := "Hi " + nurseName + ", " + facilityName + " asks: " + question
	f.followUps = append(f.followUps, text)
	return text, nil
}

type sentMessage struct{ to, text string }

type fakeNotifier struct {
	sent []sentMessage
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, recipient, text string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{to: recipient, text: text})
	return nil
}

// to returns the texts sent to recipient in order.
func (n *fakeNotifier) to(recipient string) []string {
	var out []string
	for _, m := range n.sent {
		if m.to == recipient {
			out = append(out, m.text)
		}
	}
	return out
}

type fakeTx struct {
	calls int
	open  bool
}

func (t *fakeTx) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	t.open = true
	defer func() { t.open = false }()
	return fn(ctx)
}

type fakeGeocoder struct {
	points  map[string]geo.Point
	err     error
	queries []string
	// inTx counts lookups made while tx had a transaction open.
	tx   *fakeTx
	inTx int
}

func (g *fakeGeocoder) Geocode(_ context.Context, query string) (geo.Point, error) {
	g.queries = append(g.queries, query)
	if g.tx != nil && g.tx.open {
		g.inTx++
	}
	if g.err != nil {
		return geo.Point{}, g.err
	}
	p, ok := g.points[query]
	if !ok {
		return geo.Point{}, geo.ErrNoResult
	}
	return p, nil
}

// fixture bundles a world with the collaborators every service test needs.
type fixture struct {
	w        *world
	intents  *fakeIntents
	notifier *fakeNotifier
	tx       *fakeTx
	geocoder *fakeGeocoder
	matcher  *Matcher
	now      time.Time
}

// Austin downtown; nurses seeded near it are in range, Dallas is not.
const (
	austinLat, austinLng = 30.2672, -97.7431
	nearLat, nearLng     = 30.5083, -97.6789
	dallasLat, dallasLng = 32.7767, -96.7970
)

func newFixture() *fixture {
	fx := &fixture{
		w:        newWorld(),
		intents:  &fakeIntents{},
		notifier: &fakeNotifier{},
		tx:       &fakeTx{},
		geocoder: &fakeGeocoder{points: map[string]geo.Point{}},
		now:      time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
	}
	fx.geocoder.tx = fx.tx
	fx.matcher = NewMatcher(fx.w.stores(), fx.intents, fx.notifier, fx.tx, 50, zap.NewNop())
	return fx
}

func (fx *fixture) clock() time.Time { return fx.now }

func (fx *fixture) day(offset int) model.Date {
	return model.NewDate(fx.now.AddDate(0, 0, offset))
}
