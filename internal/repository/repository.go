package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a search term for ILIKE substring matching. Wildcards in
// the term match literally.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
