package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
)

// ShiftRepository reads and writes shift_tracker rows.
type ShiftRepository struct {
	pool *pgxpool.Pool
}

func NewShiftRepository(pool *pgxpool.Pool) *ShiftRepository {
	return &ShiftRepository{pool: pool}
}

const shiftColumns = `s.id, s.facility_id, s.nurse_type, s.shift, s.nurse_id, s.status, s.date,
	s.booked_by, s.additional_instructions, s.coordinator_id`

func shiftDest(s *model.Shift) []any {
	return []any{&s.ID, &s.FacilityID, &s.NurseType, &s.Shift, &s.NurseID, &s.Status, &s.Date.Time,
		&s.BookedBy, &s.AdditionalInstructions, &s.CoordinatorID}
}

func scanShift(row pgx.Row) (*model.Shift, error) {
	var s model.Shift
	if err := row.Scan(shiftDest(&s)...); err != nil {
		return nil, err
	}
	return &s, nil
}

func collectShifts(rows pgx.Rows) ([]model.Shift, error) {
	defer rows.Close()
	out := []model.Shift{}
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *ShiftRepository) Create(ctx context.Context, s *model.Shift) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO shift_tracker (
			nurse_type, shift, nurse_id, status, date,
			facility_id, coordinator_id, booked_by, additional_instructions
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, s.NurseType, s.Shift, s.NurseID, s.Status, s.Date.Time,
		s.FacilityID, s.CoordinatorID, s.BookedBy, s.AdditionalInstructions,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert shift: %w", err)
	}
	return nil
}

func (r *ShiftRepository) GetByID(ctx context.Context, id int) (*model.Shift, error) {
	s, err := scanShift(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+shiftColumns+` FROM shift_tracker s WHERE s.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// Update overwrites every editable field of the row.
func (r *ShiftRepository) Update(ctx context.Context, s *model.Shift) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE shift_tracker
		SET facility_id = $1, coordinator_id = $2, nurse_id = $3, nurse_type = $4, date = $5,
		    shift = $6, status = $7, additional_instructions = $8
		WHERE id = $9
	`, s.FacilityID, s.CoordinatorID, s.NurseID, s.NurseType, s.Date.Time,
		s.Shift, s.Status, s.AdditionalInstructions, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete reports whether a row was removed.
func (r *ShiftRepository) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM shift_tracker WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete shift: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Fill assigns the nurse only while the row is still open and unassigned.
// It reports false when another nurse got there first.
func (r *ShiftRepository) Fill(ctx context.Context, id, nurseID int) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE shift_tracker
		SET status = 'filled', nurse_id = $2
		WHERE id = $1 AND status = 'open' AND nurse_id IS NULL
	`, id, nurseID)
	if err != nil {
		return false, fmt.Errorf("failed to fill shift: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Reopen clears the assignment.
func (r *ShiftRepository) Reopen(ctx context.Context, id int) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE shift_tracker SET status = 'open', nurse_id = NULL WHERE id = $1
	`, id); err != nil {
		return fmt.Errorf("failed to reopen shift: %w", err)
	}
	return nil
}

// UpdateInstructions sets the notes on a row belonging to facilityID.
func (r *ShiftRepository) UpdateInstructions(ctx context.Context, id, facilityID int, text string) (bool, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE shift_tracker SET additional_instructions = $1
		WHERE id = $2 AND facility_id = $3
	`, text, id, facilityID)
	if err != nil {
		return false, fmt.Errorf("failed to update shift instructions: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindAtFacility returns the facility's rows for type, period and date. Type
// and period ignore case.
func (r *ShiftRepository) FindAtFacility(ctx context.Context, facilityID int, nurseType, shift string, date time.Time) ([]model.Shift, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+shiftColumns+` FROM shift_tracker s
		 WHERE LOWER(s.nurse_type) = LOWER($1) AND LOWER(s.shift) = LOWER($2) AND s.date = $3 AND s.facility_id = $4
		 ORDER BY s.id`, nurseType, shift, date, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to find shifts: %w", err)
	}
	return collectShifts(rows)
}

// FindOpen returns open, unassigned rows of the facility dated from onward.
func (r *ShiftRepository) FindOpen(ctx context.Context, facilityID int, nurseType, shift string, from time.Time) ([]model.Shift, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+shiftColumns+` FROM shift_tracker s
		 WHERE LOWER(s.nurse_type) = LOWER($1) AND LOWER(s.shift) = LOWER($2) AND s.facility_id = $3
		   AND s.status = 'open' AND s.nurse_id IS NULL AND s.date >= $4
		 ORDER BY s.date, s.id`, nurseType, shift, facilityID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to find open shifts: %w", err)
	}
	return collectShifts(rows)
}

// FindForNurse returns the nurse's row for type, period and date.
func (r *ShiftRepository) FindForNurse(ctx context.Context, nurseID int, nurseType, shift string, date time.Time) (*model.Shift, error) {
	s, err := scanShift(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+shiftColumns+` FROM shift_tracker s
		 WHERE LOWER(s.nurse_type) = LOWER($1) AND LOWER(s.shift) = LOWER($2) AND s.date = $3 AND s.nurse_id = $4
		 ORDER BY s.id LIMIT 1`, nurseType, shift, date, nurseID))
	if err != nil {
		return nil, notFound(err)
	}
	return s, nil
}

// CoordinatorOf returns the coordinator of the nurse's shift on date.
func (r *ShiftRepository) CoordinatorOf(ctx context.Context, nurseID int, date time.Time) (*model.Coordinator, error) {
	c, err := scanCoordinator(db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT c.id, c.facility_id, c.coordinator_first_name, c.coordinator_last_name,
		       c.coordinator_phone, c.coordinator_email
		FROM shift_tracker s
		JOIN coordinator c ON c.id = s.coordinator_id
		WHERE s.nurse_id = $1 AND s.date = $2
		ORDER BY s.id LIMIT 1
	`, nurseID, date))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// TodayAssignments returns the coordinator's rows on date whose nurse matches
// name by first name or full name, case-insensitively.
func (r *ShiftRepository) TodayAssignments(ctx context.Context, coordinatorID int, name string, date time.Time) ([]model.TodayAssignment, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT s.id, `+prefixed("n.", nurseColumns)+`, f.name
		FROM shift_tracker s
		JOIN nurses n ON s.nurse_id = n.id
		JOIN facilities f ON s.facility_id = f.id
		WHERE s.coordinator_id = $1
		  AND s.date = $2
		  AND (LOWER(n.first_name) = LOWER($3) OR LOWER(n.first_name || ' ' || n.last_name) = LOWER($3))
		ORDER BY s.id
	`, coordinatorID, date, name)
	if err != nil {
		return nil, fmt.Errorf("failed to find today's assignments: %w", err)
	}
	defer rows.Close()

	var out []model.TodayAssignment
	for rows.Next() {
		var a model.TodayAssignment
		n := &a.Nurse
		if err := rows.Scan(&a.ShiftID, &n.ID, &n.FirstName, &n.LastName, &n.Location, &n.NurseType, &n.Shift,
			&n.MobileNumber, &n.ScheduleName, &n.Rate, &n.ShiftDif, &n.OTRate, &n.Email, &n.TalentID,
			&n.Lat, &n.Lng, &a.FacilityName); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Search returns the coordinator's rows matching q.
func (r *ShiftRepository) Search(ctx context.Context, q model.ShiftQuery) ([]model.Shift, error) {
	conds := []string{"s.coordinator_id = $1"}
	args := []any{q.CoordinatorID}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	switch {
	case q.Date != nil:
		conds = append(conds, "s.date = "+arg(q.Date.Time))
	case q.Start != nil && q.End != nil:
		conds = append(conds, "s.date BETWEEN "+arg(q.Start.Time)+" AND "+arg(q.End.Time))
	}
	if q.Shift != "" {
		conds = append(conds, "LOWER(s.shift) = LOWER("+arg(q.Shift)+")")
	}
	if q.NurseType != "" {
		conds = append(conds, "LOWER(s.nurse_type) = LOWER("+arg(q.NurseType)+")")
	}
	if q.Status != "" {
		conds = append(conds, "LOWER(s.status) = LOWER("+arg(q.Status)+")")
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+shiftColumns+` FROM shift_tracker s WHERE `+strings.Join(conds, " AND ")+` ORDER BY s.date, s.id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search shifts: %w", err)
	}
	return collectShifts(rows)
}

// CalendarFilter narrows the admin calendar; empty strings and nil are ignored.
type CalendarFilter struct {
	NurseType  string
	Shift      string
	Status     string
	FacilityID *int
}

// Calendar returns rows for the admin calendar ordered by date and period.
func (r *ShiftRepository) Calendar(ctx context.Context, f CalendarFilter) ([]model.Shift, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+shiftColumns+` FROM shift_tracker s
		 WHERE ($1 = '' OR s.nurse_type = $1)
		   AND ($2 = '' OR s.shift = $2)
		   AND ($3 = '' OR s.status = $3)
		   AND ($4::int IS NULL OR s.facility_id = $4)
		 ORDER BY s.date, s.shift`, f.NurseType, f.Shift, f.Status, f.FacilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar shifts: %w", err)
	}
	return collectShifts(rows)
}

const listingFrom = `
	FROM shift_tracker s
	LEFT JOIN nurses n ON s.nurse_id = n.id
	LEFT JOIN facilities f ON s.facility_id = f.id
	LEFT JOIN coordinator c ON s.coordinator_id = c.id
	WHERE ($1 = '' OR
	       (n.first_name || ' ' || n.last_name) ILIKE $2
	    OR f.name ILIKE $2
	    OR (c.coordinator_first_name || ' ' || c.coordinator_last_name) ILIKE $2
	    OR s.nurse_type ILIKE $2
	    OR s.shift ILIKE $2
	    OR s.status ILIKE $2)`

// ListAll returns one page of rows joined with display names, newest first.
func (r *ShiftRepository) ListAll(ctx context.Context, search string, limit, offset int) ([]model.ShiftListing, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+shiftColumns+`,
		       COALESCE(n.first_name || ' ' || n.last_name, 'Not assigned'),
		       COALESCE(f.name, ''),
		       COALESCE(c.coordinator_first_name || ' ' || c.coordinator_last_name, 'Not assigned')
		`+listingFrom+`
		ORDER BY s.id DESC
		LIMIT $3 OFFSET $4
	`, search, likePattern(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	out := []model.ShiftListing{}
	for rows.Next() {
		var l model.ShiftListing
		dest := append(shiftDest(&l.Shift), &l.NurseName, &l.FacilityName, &l.CoordinatorName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan shift listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *ShiftRepository) CountAll(ctx context.Context, search string) (int, error) {
	var n int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) `+listingFrom, search, likePattern(search),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count shifts: %w", err)
	}
	return n, nil
}

// CountOpenFrom counts open rows dated from onward.
func (r *ShiftRepository) CountOpenFrom(ctx context.Context, from time.Time) (int, error) {
	var n int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM shift_tracker WHERE status = 'open' AND date >= $1`, from,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count open shifts: %w", err)
	}
	return n, nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
