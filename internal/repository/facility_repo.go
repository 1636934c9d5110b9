package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
)

type FacilityRepository struct {
	pool *pgxpool.Pool
}

func NewFacilityRepository(pool *pgxpool.Pool) *FacilityRepository {
	return &FacilityRepository{pool: pool}
}

const facilityColumns = `id, name, address, city_state_zip, overtime_multiplier::float8, lat, lng`

func scanFacility(row pgx.Row) (*model.Facility, error) {
	var f model.Facility
	if err := row.Scan(&f.ID, &f.Name, &f.Address, &f.CityStateZip, &f.OvertimeMultiplier, &f.Lat, &f.Lng); err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFacilities(rows pgx.Rows) ([]model.Facility, error) {
	defer rows.Close()
	out := []model.Facility{}
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan facility: %w", err)
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *FacilityRepository) Create(ctx context.Context, f *model.Facility) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO facilities (name, address, city_state_zip, overtime_multiplier, lat, lng)
		VALUES ($1, $2, $3, $4::float8, $5, $6)
		RETURNING id
	`, f.Name, f.Address, f.CityStateZip, f.OvertimeMultiplier, f.Lat, f.Lng).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to insert facility: %w", err)
	}
	return nil
}

// Update writes the descriptive fields; coordinates are updated separately.
func (r *FacilityRepository) Update(ctx context.Context, f *model.Facility) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE facilities
		SET name = $1, address = $2, city_state_zip = $3, overtime_multiplier = $4::float8
		WHERE id = $5
	`, f.Name, f.Address, f.CityStateZip, f.OvertimeMultiplier, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update facility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLocation stores the facility coordinates; nil clears them.
func (r *FacilityRepository) UpdateLocation(ctx context.Context, id int, lat, lng *float64) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE facilities SET lat = $1, lng = $2 WHERE id = $3
	`, lat, lng, id); err != nil {
		return fmt.Errorf("failed to update facility location: %w", err)
	}
	return nil
}

func (r *FacilityRepository) GetByID(ctx context.Context, id int) (*model.Facility, error) {
	f, err := scanFacility(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

// FindByName matches the name case-insensitively.
func (r *FacilityRepository) FindByName(ctx context.Context, name string) (*model.Facility, error) {
	f, err := scanFacility(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE LOWER(name) = LOWER($1) ORDER BY id LIMIT 1`, name))
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

// FindByExactName is used by the calendar filter, which matches names exactly.
func (r *FacilityRepository) FindByExactName(ctx context.Context, name string) (*model.Facility, error) {
	f, err := scanFacility(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+facilityColumns+` FROM facilities WHERE name = $1 ORDER BY id LIMIT 1`, name))
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

const facilitySearch = ` WHERE ($1 = '' OR name ILIKE $2 OR city_state_zip ILIKE $2 OR address ILIKE $2)`

// List returns one page ordered by name; limit <= 0 returns every match.
func (r *FacilityRepository) List(ctx context.Context, search string, limit, offset int) ([]model.Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities` + facilitySearch + ` ORDER BY name ASC`
	args := []any{search, likePattern(search)}
	if limit > 0 {
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, limit, offset)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list facilities: %w", err)
	}
	return collectFacilities(rows)
}

func (r *FacilityRepository) Count(ctx context.Context, search string) (int, error) {
	var n int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM facilities`+facilitySearch, search, likePattern(search),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count facilities: %w", err)
	}
	return n, nil
}

// Delete removes the facility; coordinators, templates and tracker rows cascade.
func (r *FacilityRepository) Delete(ctx context.Context, id int) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM facilities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete facility: %w", err)
	}
	return nil
}
