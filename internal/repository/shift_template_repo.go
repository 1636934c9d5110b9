package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
)

// ShiftTemplateRepository reads and writes the shifts table: one row per
// facility and role.
type ShiftTemplateRepository struct {
	pool *pgxpool.Pool
}

func NewShiftTemplateRepository(pool *pgxpool.Pool) *ShiftTemplateRepository {
	return &ShiftTemplateRepository{pool: pool}
}

const templateColumns = `id, facility_id, role, rate::float8, hours::float8,
	to_char(am_time_start, 'HH24:MI:SS'), to_char(am_time_end, 'HH24:MI:SS'),
	to_char(pm_time_start, 'HH24:MI:SS'), to_char(pm_time_end, 'HH24:MI:SS'),
	to_char(noc_time_start, 'HH24:MI:SS'), to_char(noc_time_end, 'HH24:MI:SS'),
	to_char(am_meal_start, 'HH24:MI:SS'), to_char(am_meal_end, 'HH24:MI:SS'),
	to_char(pm_meal_start, 'HH24:MI:SS'), to_char(pm_meal_end, 'HH24:MI:SS'),
	to_char(noc_meal_start, 'HH24:MI:SS'), to_char(noc_meal_end, 'HH24:MI:SS')`

func scanTemplate(row pgx.Row) (*model.ShiftTemplate, error) {
	var t model.ShiftTemplate
	err := row.Scan(&t.ID, &t.FacilityID, &t.Role, &t.Rate, &t.Hours,
		&t.AMTimeStart, &t.AMTimeEnd, &t.PMTimeStart, &t.PMTimeEnd, &t.NOCTimeStart, &t.NOCTimeEnd,
		&t.AMMealStart, &t.AMMealEnd, &t.PMMealStart, &t.PMMealEnd, &t.NOCMealStart, &t.NOCMealEnd)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Upsert updates the template of (facility, role) or inserts it when missing.
func (r *ShiftTemplateRepository) Upsert(ctx context.Context, t *model.ShiftTemplate) error {
	q := db.Conn(ctx, r.pool)
	args := []any{
		t.AMTimeStart, t.AMTimeEnd, t.PMTimeStart, t.PMTimeEnd, t.NOCTimeStart, t.NOCTimeEnd,
		t.AMMealStart, t.AMMealEnd, t.PMMealStart, t.PMMealEnd, t.NOCMealStart, t.NOCMealEnd,
		t.Rate, t.Hours, t.FacilityID, t.Role,
	}

	tag, err := q.Exec(ctx, `
		UPDATE shifts
		SET am_time_start = $1::time, am_time_end = $2::time,
		    pm_time_start = $3::time, pm_time_end = $4::time,
		    noc_time_start = $5::time, noc_time_end = $6::time,
		    am_meal_start = $7::time, am_meal_end = $8::time,
		    pm_meal_start = $9::time, pm_meal_end = $10::time,
		    noc_meal_start = $11::time, noc_meal_end = $12::time,
		    rate = $13::float8, hours = $14::float8
		WHERE facility_id = $15 AND role = $16
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to update shift template: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	if err := q.QueryRow(ctx, `
		INSERT INTO shifts (
			am_time_start, am_time_end, pm_time_start, pm_time_end,
			noc_time_start, noc_time_end, am_meal_start, am_meal_end,
			pm_meal_start, pm_meal_end, noc_meal_start, noc_meal_end,
			rate, hours, facility_id, role
		) VALUES (
			$1::time, $2::time, $3::time, $4::time, $5::time, $6::time, $7::time, $8::time,
			$9::time, $10::time, $11::time, $12::time, $13::float8, $14::float8, $15, $16
		)
		RETURNING id
	`, args...).Scan(&t.ID); err != nil {
		return fmt.Errorf("failed to insert shift template: %w", err)
	}
	return nil
}

func (r *ShiftTemplateRepository) ListByFacility(ctx context.Context, facilityID int) ([]model.ShiftTemplate, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+templateColumns+` FROM shifts WHERE facility_id = $1 ORDER BY id`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shift templates: %w", err)
	}
	defer rows.Close()

	out := []model.ShiftTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shift template: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Find returns the facility's template for role. exact selects a case-sensitive
// match; otherwise case is ignored.
func (r *ShiftTemplateRepository) Find(ctx context.Context, facilityID int, role string, exact bool) (*model.ShiftTemplate, error) {
	cond := `LOWER(role) = LOWER($2)`
	if exact {
		cond = `role = $2`
	}
	t, err := scanTemplate(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+templateColumns+` FROM shifts WHERE facility_id = $1 AND `+cond+` ORDER BY id LIMIT 1`,
		facilityID, role))
	if err != nil {
		return nil, notFound(err)
	}
	return t, nil
}

// DeleteRole removes the facility's templates for role, ignoring case.
func (r *ShiftTemplateRepository) DeleteRole(ctx context.Context, facilityID int, role string) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM shifts WHERE facility_id = $1 AND LOWER(role) = LOWER($2)`, facilityID, role); err != nil {
		return fmt.Errorf("failed to delete shift template: %w", err)
	}
	return nil
}
