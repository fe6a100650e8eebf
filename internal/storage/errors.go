package storage

import (
	"errors"
	"fmt"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrNotFound           = errors.New("storage: not found")
	ErrDuplicateUsername  = errors.New("storage: duplicate username")
	ErrInvalidCredential  = errors.New("storage: invalid credential")
	ErrIntegrity          = errors.New("storage: integrity violation")
	ErrStorageUnavailable = errors.New("storage: unavailable")
	ErrSchemaTooNew       = errors.New("storage: schema version newer than code")
)

// ValidationError reports malformed caller input. Recoverable: the caller
// can correct the named field and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("storage: validation: %s: %s", e.Field, e.Reason)
}

// NotFoundError identifies the entity a lookup or delete missed. ID is zero
// when the lookup was by a key other than the surrogate id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("storage: %s not found", e.Entity)
	}
	return fmt.Sprintf("storage: %s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// IntegrityError surfaces an engine-level constraint violation. Repository
// pre-checks should make these unreachable; they are reported rather than
// swallowed so bugs stay visible.
type IntegrityError struct {
	Constraint string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("storage: integrity violation: %s", e.Constraint)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// constraintOf reports the violated constraint class when err is a SQLite
// constraint failure.
func constraintOf(err error) (string, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return "", false
	}
	code := se.Code()
	if code&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", false
	}
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return "unique", true
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return "foreign_key", true
	case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return "not_null", true
	default:
		return "constraint", true
	}
}

// mapExecError converts a driver error from a mutating statement into the
// repository error taxonomy.
func mapExecError(op string, err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := constraintOf(err); ok {
		return fmt.Errorf("%s: %w", op, &IntegrityError{Constraint: constraint})
	}
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}

func isUniqueViolation(err error) bool {
	constraint, ok := constraintOf(err)
	return ok && constraint == "unique"
}
