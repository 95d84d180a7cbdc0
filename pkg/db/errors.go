package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	sqlStateUniqueViolation   = "23505"
	sqlStateLockNotAvailable  = "55P03"
	sqlStateDeadlockDetected  = "40P01"
	sqlStateSerializationFail = "40001"
)

// IsUniqueViolation reports whether the provided error is a unique constraint
// violation. When constraintName is provided, the violated constraint must match.
// Postgres errors are classified by SQLSTATE; sqlite errors by message text.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if code, constraint, ok := sqlState(err); ok {
		if code != sqlStateUniqueViolation {
			return false
		}
		return constraintName == "" || constraint == constraintName
	}
	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return true
}

// IsLockContention reports whether the error came from a lock wait that the
// database gave up on (lock timeout, deadlock, serialization failure). Callers
// may retry these.
func IsLockContention(err error) bool {
	if err == nil {
		return false
	}
	if code, _, ok := sqlState(err); ok {
		switch code {
		case sqlStateLockNotAvailable, sqlStateDeadlockDetected, sqlStateSerializationFail:
			return true
		}
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

func sqlState(err error) (code string, constraint string, ok bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code, pgxErr.ConstraintName, true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}
	return "", "", false
}
