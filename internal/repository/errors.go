package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/unclebandit/mailleopard-backend/internal/errors"
)

const (
	pqUniqueViolation  = "23505"
	pqInvalidTextInput = "22P02"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// lookupErr maps "no such row" (and a malformed UUID key, which can never
// match a row) to a NotFound error for the given entity.
func lookupErr(err error, entity, key string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.NewNotFound(entity, key)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextInput {
		return appErrors.NewNotFound(entity, key)
	}
	return err
}
