package characteristics

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidValueShape is matched by every ShapeError.
var ErrInvalidValueShape = errors.New("invalid value shape")

// ShapeError reports a raw value that does not conform to its type.
type ShapeError struct {
	Type     Type
	Expected string
	Reason   string
}

func (e *ShapeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("invalid value: %s", e.Reason)
	}
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s value: expected %s", e.Type, e.Expected)
	}
	return fmt.Sprintf("invalid %s value: expected %s: %s", e.Type, e.Expected, e.Reason)
}

func (e *ShapeError) Unwrap() error { return ErrInvalidValueShape }

func shapeErr(t Type, format string, args ...any) error {
	return &ShapeError{Type: t, Expected: t.Family().Expected(), Reason: fmt.Sprintf(format, args...)}
}

// Value is a normalized characteristic value. The set of implementations is
// closed: Text, MultiText, Choice, Boolean, Date, DateRange, Files and
// FileSubmission.
type Value interface {
	Family() Family
	isValue()
}

// Text holds text, link, email, number and float values. Numbers keep their
// canonical textual form; units live on the definition.
type Text struct {
	Text string
}

type TitledText struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

type MultiText struct {
	Entries []TitledText
}

// Choice lists selected options in submission order without duplicates.
type Choice struct {
	Selected []string
}

type Boolean struct {
	Value bool
}

type Date struct {
	Date time.Time
}

type DateRange struct {
	From time.Time
	To   time.Time
}

// Files is the persisted form of a file value: attachment ids.
type Files struct {
	Refs []uuid.UUID
}

// Upload is a binary pending storage.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileSubmission is the submitted form of a file value, relative to the
// persisted refs. On create Delete is empty.
type FileSubmission struct {
	Add    []Upload
	Delete []uuid.UUID
}

func (Text) Family() Family           { return FamilyScalarText }
func (MultiText) Family() Family      { return FamilyMultiText }
func (Choice) Family() Family         { return FamilyChoice }
func (Boolean) Family() Family        { return FamilyBoolean }
func (Date) Family() Family           { return FamilyDate }
func (DateRange) Family() Family      { return FamilyDateRange }
func (Files) Family() Family          { return FamilyFile }
func (FileSubmission) Family() Family { return FamilyFile }

func (Text) isValue()           {}
func (MultiText) isValue()      {}
func (Choice) isValue()         {}
func (Boolean) isValue()        {}
func (Date) isValue()           {}
func (DateRange) isValue()      {}
func (Files) isValue()          {}
func (FileSubmission) isValue() {}

// Normalize turns a raw submitted value into the Value variant dictated by t.
// Already-normalized values are accepted, and normalizing twice yields the
// same result.
func Normalize(t Type, options []string, raw any) (Value, error) {
	if !t.Valid() {
		return nil, &ShapeError{Type: t, Expected: "known characteristic type", Reason: "unknown type"}
	}
	if raw == nil {
		return nil, shapeErr(t, "value is required")
	}
	if v, ok := raw.(Value); ok && v.Family() != t.Family() {
		return nil, shapeErr(t, "got %s value", v.Family())
	}
	switch t.Family() {
	case FamilyScalarText:
		return normalizeText(t, raw)
	case FamilyMultiText:
		return normalizeMultiText(t, raw)
	case FamilyChoice:
		return normalizeChoice(t, options, raw)
	case FamilyBoolean:
		return normalizeBoolean(t, raw)
	case FamilyDate:
		return normalizeDate(t, raw)
	case FamilyDateRange:
		return normalizeDateRange(t, raw)
	case FamilyFile:
		return normalizeFile(t, raw)
	default:
		return nil, shapeErr(t, "unhandled family %s", t.Family())
	}
}
