package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
)

// stepError is a failure raised by write logic that already knows its
// aggregate code. MapError turns it into a *domainagg.Error.
type stepError struct {
	code domainagg.ErrorCode
	msg  string
}

func (e *stepError) Error() string { return e.msg }

func ValidationError(msg string) error {
	return &stepError{code: domainagg.CodeValidation, msg: strings.TrimSpace(msg)}
}

// InvariantError reports state the write would leave inconsistent. The
// transaction is rolled back.
func InvariantError(msg string) error {
	return &stepError{code: domainagg.CodeInvariantViolation, msg: strings.TrimSpace(msg)}
}

func ConflictError(msg string) error {
	return &stepError{code: domainagg.CodeConflict, msg: strings.TrimSpace(msg)}
}

// MapError maps infrastructure/domain failures into aggregate error codes.
// Store-level failures also match domainagg.ErrPersistence.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	var step *stepError
	if errors.As(err, &step) {
		return domainagg.Wrap(step.code, op, err)
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return persistence(domainagg.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return persistence(domainagg.CodeConflict, op, err) // unique_violation
		case "23503":
			return persistence(domainagg.CodePreconditionFailed, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return persistence(domainagg.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "already exists"),
		strings.Contains(msg, "unique constraint failed"):
		return persistence(domainagg.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return persistence(domainagg.CodeRetryable, op, err)
	default:
		return persistence(domainagg.CodeInternal, op, err)
	}
}

func persistence(code domainagg.ErrorCode, op string, err error) error {
	return domainagg.NewError(code, op, err.Error(), errors.Join(domainagg.ErrPersistence, err))
}
