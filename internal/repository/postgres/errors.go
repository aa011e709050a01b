package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// isUniqueViolation reports whether err is a postgres unique-index
// violation (code 23505). The duplicate-admission guards rely on
// partial unique indexes, so this is how a lost insert race surfaces.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
