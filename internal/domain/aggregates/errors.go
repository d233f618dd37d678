package aggregates

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/domain/characteristics"
)

// ErrorCode standardizes aggregate failure semantics across domains.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "validation"
	CodeNotFound           ErrorCode = "not_found"
	CodeConflict           ErrorCode = "conflict"
	CodeInvariantViolation ErrorCode = "invariant_violation"
	CodePreconditionFailed ErrorCode = "precondition_failed"
	CodeRetryable          ErrorCode = "retryable"
	CodeResourceLimit      ErrorCode = "resource_limit"
	CodeStorage            ErrorCode = "storage"
	CodeInternal           ErrorCode = "internal"
)

// Failure kinds callers match with errors.Is.
var (
	ErrNameTooShort          = errors.New("material name too short")
	ErrNameImmutable         = errors.New("material name cannot change after creation")
	ErrNameTaken             = errors.New("material name already in use")
	ErrUnknownCharacteristic = errors.New("unknown characteristic")
	ErrUnknownTag            = errors.New("unknown tag")
	ErrInvalidValueShape     = characteristics.ErrInvalidValueShape
	ErrFileTooLarge          = errors.New("file too large")
	ErrBatchTooLarge         = errors.New("file batch too large")
	ErrMaterialNotFound      = errors.New("material not found")
	ErrTagNotFound           = errors.New("tag not found")
	ErrHistoryNotFound       = errors.New("history record not found")
	ErrPersistence           = errors.New("persistence failure")
	ErrStorageWriteFailed    = errors.New("storage write failed")
	ErrVersionConflict       = errors.New("material was modified concurrently")
)

// Error is the canonical aggregate error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an aggregate error with explicit code + operation.
func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates an existing error with aggregate error semantics.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	return NewError(code, op, err.Error(), err)
}

// IsCode checks whether err (or wrapped err) carries the given aggregate code.
func IsCode(err error, code ErrorCode) bool {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return false
	}
	return aggErr.Code == code
}

// CodeOf extracts the aggregate error code when available.
func CodeOf(err error) ErrorCode {
	var aggErr *Error
	if !errors.As(err, &aggErr) {
		return ""
	}
	return aggErr.Code
}

// InvalidValueShapeError names the characteristic whose value was rejected.
type InvalidValueShapeError struct {
	CharacteristicID   uuid.UUID
	CharacteristicName string
	Shape              *characteristics.ShapeError
}

func (e *InvalidValueShapeError) Error() string {
	return fmt.Sprintf("characteristic %q: %s", e.CharacteristicName, e.Shape.Error())
}

func (e *InvalidValueShapeError) Unwrap() error { return e.Shape }

// FileTooLargeError lists files dropped for exceeding the per-file limit.
type FileTooLargeError struct {
	CharacteristicID uuid.UUID
	Limit            int64
	Files            []string
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("files exceed the %d byte limit: %s", e.Limit, strings.Join(e.Files, ", "))
}

func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// BatchTooLargeError reports a rejected batch; none of its files were stored.
type BatchTooLargeError struct {
	CharacteristicID uuid.UUID
	Limit            int64
	Total            int64
	Files            []string
}

func (e *BatchTooLargeError) Error() string {
	return fmt.Sprintf("batch of %d bytes exceeds the %d byte limit", e.Total, e.Limit)
}

func (e *BatchTooLargeError) Unwrap() error { return ErrBatchTooLarge }

// UnknownIDsError lists referenced ids with no record.
type UnknownIDsError struct {
	Kind error
	IDs  []uuid.UUID
}

func (e *UnknownIDsError) Error() string {
	ids := make([]string, 0, len(e.IDs))
	for _, id := range e.IDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), strings.Join(ids, ", "))
}

func (e *UnknownIDsError) Unwrap() error { return e.Kind }
