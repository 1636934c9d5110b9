package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// FindByEmail returns the admin with the given email.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, email, password FROM admin WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.PasswordHash)
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// Upsert creates the admin or replaces the password of an existing one.
func (r *AdminRepository) Upsert(ctx context.Context, a *model.Admin) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO admin (email, password) VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET password = EXCLUDED.password
		RETURNING id
	`, a.Email, a.PasswordHash).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert admin: %w", err)
	}
	return nil
}
