package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"shiftdesk/internal/model"
	"shiftdesk/pkg/db"
)

type NurseTypeRepository struct {
	pool *pgxpool.Pool
}

func NewNurseTypeRepository(pool *pgxpool.Pool) *NurseTypeRepository {
	return &NurseTypeRepository{pool: pool}
}

func (r *NurseTypeRepository) Create(ctx context.Context, name string) (*model.NurseType, error) {
	nt := model.NurseType{NurseType: name}
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO nurse_type (nurse_type) VALUES ($1) RETURNING id`, name,
	).Scan(&nt.ID); err != nil {
		return nil, fmt.Errorf("failed to insert nurse type: %w", err)
	}
	return &nt, nil
}

func (r *NurseTypeRepository) List(ctx context.Context) ([]model.NurseType, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT id, nurse_type FROM nurse_type ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list nurse types: %w", err)
	}
	defer rows.Close()

	out := []model.NurseType{}
	for rows.Next() {
		var nt model.NurseType
		if err := rows.Scan(&nt.ID, &nt.NurseType); err != nil {
			return nil, fmt.Errorf("failed to scan nurse type: %w", err)
		}
		out = append(out, nt)
	}
	return out, rows.Err()
}

func (r *NurseTypeRepository) GetByID(ctx context.Context, id int) (*model.NurseType, error) {
	var nt model.NurseType
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, nurse_type FROM nurse_type WHERE id = $1`, id,
	).Scan(&nt.ID, &nt.NurseType); err != nil {
		return nil, notFound(err)
	}
	return &nt, nil
}

// Exists matches the type name exactly.
func (r *NurseTypeRepository) Exists(ctx context.Context, name string) (bool, error) {
	var ok bool
	if err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM nurse_type WHERE nurse_type = $1)`, name,
	).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check nurse type: %w", err)
	}
	return ok, nil
}

type stmt struct {
	sql  string
	args []any
}

// Type names match whole values, ignoring case.
func deleteCascadeStmts(nt *model.NurseType) []stmt {
	return []stmt{
		{`DELETE FROM nurse_type WHERE id = $1`, []any{nt.ID}},
		{`DELETE FROM shifts WHERE LOWER(role) = LOWER($1)`, []any{nt.NurseType}},
		{`DELETE FROM nurses WHERE LOWER(nurse_type) = LOWER($1)`, []any{nt.NurseType}},
		{`DELETE FROM shift_tracker WHERE LOWER(nurse_type) = LOWER($1)`, []any{nt.NurseType}},
	}
}

func renameCascadeStmts(nt *model.NurseType, newName string) []stmt {
	return []stmt{
		{`UPDATE nurse_type SET nurse_type = $1 WHERE id = $2`, []any{newName, nt.ID}},
		{`UPDATE shifts SET role = $1 WHERE LOWER(role) = LOWER($2)`, []any{newName, nt.NurseType}},
		{`UPDATE nurses SET nurse_type = $1 WHERE LOWER(nurse_type) = LOWER($2)`, []any{newName, nt.NurseType}},
		{`UPDATE shift_tracker SET nurse_type = $1 WHERE LOWER(nurse_type) = LOWER($2)`, []any{newName, nt.NurseType}},
	}
}

// DeleteCascade removes the type along with the templates, nurses and tracker
// rows that use it. Call inside a transaction.
func (r *NurseTypeRepository) DeleteCascade(ctx context.Context, nt *model.NurseType) error {
	q := db.Conn(ctx, r.pool)
	for _, s := range deleteCascadeStmts(nt) {
		if _, err := q.Exec(ctx, s.sql, s.args...); err != nil {
			return fmt.Errorf("failed to delete nurse type %q: %w", nt.NurseType, err)
		}
	}
	return nil
}

// RenameCascade renames the type everywhere it is referenced. Call inside a
// transaction.
func (r *NurseTypeRepository) RenameCascade(ctx context.Context, nt *model.NurseType, newName string) error {
	q := db.Conn(ctx, r.pool)
	for _, s := range renameCascadeStmts(nt, newName) {
		if _, err := q.Exec(ctx, s.sql, s.args...); err != nil {
			return fmt.Errorf("failed to rename nurse type %q: %w", nt.NurseType, err)
		}
	}
	return nil
}
