package aggregates

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/domain/characteristics"
)

func TestErrorCarriesCodeAndKind(t *testing.T) {
	err := NewError(CodeValidation, "material.create", "name too short", ErrNameTooShort)
	if !IsCode(err, CodeValidation) {
		t.Fatalf("IsCode: want=%s got=%s", CodeValidation, CodeOf(err))
	}
	if !errors.Is(err, ErrNameTooShort) {
		t.Fatalf("errors.Is(ErrNameTooShort) = false")
	}
	if got := err.Error(); got != "material.create: name too short (validation)" {
		t.Fatalf("Error(): got=%q", got)
	}
}

func TestDetailErrorsUnwrapToKinds(t *testing.T) {
	_, shapeErr := characteristics.Normalize(characteristics.TypeBoolean, nil, "maybe")
	var shape *characteristics.ShapeError
	if !errors.As(shapeErr, &shape) {
		t.Fatalf("expected ShapeError, got=%v", shapeErr)
	}
	cases := []struct {
		err  error
		kind error
	}{
		{&InvalidValueShapeError{CharacteristicName: "Hardness", Shape: shape}, ErrInvalidValueShape},
		{&FileTooLargeError{Limit: 10, Files: []string{"a.bin"}}, ErrFileTooLarge},
		{&BatchTooLargeError{Limit: 10, Total: 20}, ErrBatchTooLarge},
		{&UnknownIDsError{Kind: ErrUnknownTag, IDs: []uuid.UUID{uuid.New()}}, ErrUnknownTag},
	}
	for _, tc := range cases {
		wrapped := NewError(CodeValidation, "op", tc.err.Error(), tc.err)
		if !errors.Is(wrapped, tc.kind) {
			t.Fatalf("errors.Is(%T, %v) = false", tc.err, tc.kind)
		}
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(CodeInternal, "op", nil); err != nil {
		t.Fatalf("Wrap(nil): want=nil got=%v", err)
	}
}
