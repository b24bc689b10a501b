package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// fault classifies a driver error independent of the dialect that raised it
type fault int

const (
	faultUnknown fault = iota
	faultDuplicateKey
	faultForeignKey
	faultNotFound
	faultConflict
)

func (f fault) String() string {
	switch f {
	case faultDuplicateKey:
		return "duplicate_key"
	case faultForeignKey:
		return "foreign_key"
	case faultNotFound:
		return "not_found"
	case faultConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// SQLSTATE codes shared by pgx and lib/pq
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// classify maps err onto a fault. gorm's translated sentinels are checked first,
// then native driver errors, then the message text of drivers that expose neither.
func classify(err error) fault {
	if err == nil {
		return faultUnknown
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return faultNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return faultDuplicateKey
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return faultForeignKey
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return faultUnknown
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if f := classifySQLState(pgErr.Code); f != faultUnknown {
			return f
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if f := classifySQLState(string(pqErr.Code)); f != faultUnknown {
			return f
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint failed"), strings.Contains(msg, "duplicate key"):
		return faultDuplicateKey
	case strings.Contains(msg, "foreign key constraint failed"), strings.Contains(msg, "violates foreign key"):
		return faultForeignKey
	case strings.Contains(msg, "could not serialize"), strings.Contains(msg, "deadlock detected"):
		return faultConflict
	}
	return faultUnknown
}

func classifySQLState(code string) fault {
	switch strings.TrimSpace(code) {
	case sqlStateUniqueViolation:
		return faultDuplicateKey
	case sqlStateForeignKeyViolation:
		return faultForeignKey
	case sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return faultConflict
	default:
		return faultUnknown
	}
}
