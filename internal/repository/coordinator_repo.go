package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
)

type CoordinatorRepository struct {
	pool *pgxpool.Pool
}

func NewCoordinatorRepository(pool *pgxpool.Pool) *CoordinatorRepository {
	return &CoordinatorRepository{pool: pool}
}

const coordinatorColumns = `id, facility_id, coordinator_first_name, coordinator_last_name, coordinator_phone, coordinator_email`

func scanCoordinator(row pgx.Row) (*model.Coordinator, error) {
	var c model.Coordinator
	if err := row.Scan(&c.ID, &c.FacilityID, &c.FirstName, &c.LastName, &c.Phone, &c.Email); err != nil {
		return nil, err
	}
	return &c, nil
}

// ContactTaken reports whether another coordinator already uses phone or email
// (email compared case-insensitively). excludeID 0 checks every row.
func (r *CoordinatorRepository) ContactTaken(ctx context.Context, phone, email string, excludeID int) (bool, error) {
	var taken bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM coordinator
			WHERE (coordinator_phone = $1 OR LOWER(coordinator_email) = LOWER($2)) AND id <> $3
		)
	`, phone, email, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check coordinator contact: %w", err)
	}
	return taken, nil
}

func (r *CoordinatorRepository) Create(ctx context.Context, c *model.Coordinator) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO coordinator (facility_id, coordinator_first_name, coordinator_last_name, coordinator_phone, coordinator_email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, c.FacilityID, c.FirstName, c.LastName, c.Phone, c.Email).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert coordinator: %w", err)
	}
	return nil
}

func (r *CoordinatorRepository) Update(ctx context.Context, c *model.Coordinator) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE coordinator
		SET coordinator_first_name = $2, coordinator_last_name = $3,
		    coordinator_phone = $4, coordinator_email = $5
		WHERE id = $1
	`, c.ID, c.FirstName, c.LastName, c.Phone, c.Email); err != nil {
		return fmt.Errorf("failed to update coordinator: %w", err)
	}
	return nil
}

func (r *CoordinatorRepository) ListByFacility(ctx context.Context, facilityID int) ([]model.Coordinator, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+coordinatorColumns+` FROM coordinator WHERE facility_id = $1 ORDER BY id`, facilityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coordinators: %w", err)
	}
	defer rows.Close()

	out := []model.Coordinator{}
	for rows.Next() {
		c, err := scanCoordinator(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coordinator: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CoordinatorRepository) GetByID(ctx context.Context, id int) (*model.Coordinator, error) {
	c, err := scanCoordinator(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+coordinatorColumns+` FROM coordinator WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

// FindByContact resolves a chat sender, which may be a phone number or an email.
func (r *CoordinatorRepository) FindByContact(ctx context.Context, sender string) (*model.Coordinator, error) {
	c, err := scanCoordinator(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+coordinatorColumns+` FROM coordinator
		 WHERE coordinator_phone = $1 OR coordinator_email = $1
		 ORDER BY id LIMIT 1`, sender))
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *CoordinatorRepository) Delete(ctx context.Context, id int) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM coordinator WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete coordinator: %w", err)
	}
	return nil
}
