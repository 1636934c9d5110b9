package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
)

type NurseRepository struct {
	pool *pgxpool.Pool
}

func NewNurseRepository(pool *pgxpool.Pool) *NurseRepository {
	return &NurseRepository{pool: pool}
}

const nurseColumns = `id, first_name, last_name, location, nurse_type, shift, mobile_number,
	schedule_name, rate::float8, shift_dif::float8, ot_rate::float8, email, talent_id, lat, lng`

func scanNurse(row pgx.Row) (*model.Nurse, error) {
	var n model.Nurse
	err := row.Scan(&n.ID, &n.FirstName, &n.LastName, &n.Location, &n.NurseType, &n.Shift,
		&n.MobileNumber, &n.ScheduleName, &n.Rate, &n.ShiftDif, &n.OTRate, &n.Email, &n.TalentID,
		&n.Lat, &n.Lng)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func collectNurses(rows pgx.Rows) ([]model.Nurse, error) {
	defer rows.Close()
	out := []model.Nurse{}
	for rows.Next() {
		n, err := scanNurse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nurse: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

const nurseSearch = ` WHERE ($1 = '' OR first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2
	OR mobile_number ILIKE $2 OR shift ILIKE $2 OR nurse_type ILIKE $2)`

func (r *NurseRepository) List(ctx context.Context, search string, limit, offset int) ([]model.Nurse, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+nurseColumns+` FROM nurses`+nurseSearch+`
		 ORDER BY last_name ASC, first_name ASC LIMIT $3 OFFSET $4`,
		search, likePattern(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list nurses: %w", err)
	}
	return collectNurses(rows)
}

func (r *NurseRepository) Count(ctx context.Context, search string) (int, error) {
	var n int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM nurses`+nurseSearch, search, likePattern(search),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count nurses: %w", err)
	}
	return n, nil
}

func (r *NurseRepository) GetByID(ctx context.Context, id int) (*model.Nurse, error) {
	n, err := scanNurse(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+nurseColumns+` FROM nurses WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

// GetByPhone resolves a chat sender to a nurse.
func (r *NurseRepository) GetByPhone(ctx context.Context, phone string) (*model.Nurse, error) {
	n, err := scanNurse(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+nurseColumns+` FROM nurses WHERE mobile_number = $1 LIMIT 1`, phone))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

// FindConflict returns a nurse other than excludeID that already uses email
// (case-insensitive) or phone.
func (r *NurseRepository) FindConflict(ctx context.Context, email, phone string, excludeID int) (*model.Nurse, error) {
	n, err := scanNurse(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+nurseColumns+` FROM nurses
		 WHERE (LOWER(email) = LOWER($1) OR mobile_number = $2) AND id <> $3
		 ORDER BY id LIMIT 1`, email, phone, excludeID))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

func (r *NurseRepository) Create(ctx context.Context, n *model.Nurse) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO nurses
		(first_name, last_name, schedule_name, rate, shift_dif, ot_rate,
		 email, talent_id, nurse_type, mobile_number, location, shift, lat, lng)
		VALUES ($1, $2, $3, $4::float8, $5::float8, $6::float8, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, n.FirstName, n.LastName, n.ScheduleName, n.Rate, n.ShiftDif, n.OTRate,
		n.Email, n.TalentID, n.NurseType, n.MobileNumber, n.Location, n.Shift, n.Lat, n.Lng,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to insert nurse: %w", err)
	}
	return nil
}

// Update writes every field except the coordinates.
func (r *NurseRepository) Update(ctx context.Context, n *model.Nurse) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE nurses
		SET first_name = $1, last_name = $2, schedule_name = $3, rate = $4::float8, shift_dif = $5::float8,
		    ot_rate = $6::float8, email = $7, talent_id = $8, nurse_type = $9, mobile_number = $10,
		    location = $11, shift = $12
		WHERE id = $13
	`, n.FirstName, n.LastName, n.ScheduleName, n.Rate, n.ShiftDif, n.OTRate,
		n.Email, n.TalentID, n.NurseType, n.MobileNumber, n.Location, n.Shift, n.ID)
	if err != nil {
		return fmt.Errorf("failed to update nurse: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLocation stores the nurse coordinates; nil clears them.
func (r *NurseRepository) UpdateLocation(ctx context.Context, id int, lat, lng *float64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE nurses SET lat = $1, lng = $2 WHERE id = $3`, lat, lng, id); err != nil {
		return fmt.Errorf("failed to update nurse location: %w", err)
	}
	return nil
}

func (r *NurseRepository) Delete(ctx context.Context, id int) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM nurses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete nurse: %w", err)
	}
	return nil
}

// FindCandidates returns geocoded nurses of the given type and shift, ignoring
// case.
// Distance filtering happens in the caller.
func (r *NurseRepository) FindCandidates(ctx context.Context, nurseType, shift string) ([]model.Nurse, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+nurseColumns+` FROM nurses
		 WHERE LOWER(nurse_type) = LOWER($1) AND LOWER(shift) = LOWER($2) AND lat IS NOT NULL AND lng IS NOT NULL
		 ORDER BY id`, nurseType, shift)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate nurses: %w", err)
	}
	return collectNurses(rows)
}

// BookedOn returns which of ids already hold a tracker row on date.
func (r *NurseRepository) BookedOn(ctx context.Context, ids []int, date time.Time) (map[int]bool, error) {
	booked := make(map[int]bool)
	if len(ids) == 0 {
		return booked, nil
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT DISTINCT nurse_id FROM shift_tracker
		WHERE nurse_id = ANY($1::int[]) AND date = $2
	`, ids, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check nurse bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		booked[id] = true
	}
	return booked, rows.Err()
}
