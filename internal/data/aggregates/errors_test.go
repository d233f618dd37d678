package aggregates

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
)

func TestMapErrorCodes(t *testing.T) {
	cases := []struct {
		name        string
		in          error
		code        domainagg.ErrorCode
		persistence bool
	}{
		{"validation", ValidationError("bad input"), domainagg.CodeValidation, false},
		{"invariant", InvariantError("order drift"), domainagg.CodeInvariantViolation, false},
		{"conflict", ConflictError("stale"), domainagg.CodeConflict, false},
		{"not found", gorm.ErrRecordNotFound, domainagg.CodeNotFound, false},
		{"pg unique", &pgconn.PgError{Code: "23505"}, domainagg.CodeConflict, true},
		{"pg fk", &pgconn.PgError{Code: "23503"}, domainagg.CodePreconditionFailed, true},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, domainagg.CodeRetryable, true},
		{"sqlite unique", errors.New("UNIQUE constraint failed: material.name"), domainagg.CodeConflict, true},
		{"sqlite locked", errors.New("database is locked"), domainagg.CodeRetryable, true},
		{"unknown", errors.New("connection reset"), domainagg.CodeInternal, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := MapError("op", tc.in)
			if !domainagg.IsCode(err, tc.code) {
				t.Fatalf("code: want=%s got=%s (%v)", tc.code, domainagg.CodeOf(err), err)
			}
			if got := errors.Is(err, domainagg.ErrPersistence); got != tc.persistence {
				t.Fatalf("ErrPersistence: want=%v got=%v", tc.persistence, got)
			}
			if !errors.Is(err, tc.in) {
				t.Fatalf("mapped error lost its cause")
			}
		})
	}
}

func TestMapErrorPassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeNotFound, "op", "missing", domainagg.ErrMaterialNotFound)
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}
