package characteristics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotPersistable is returned when encoding a value that still carries
// pending uploads.
var ErrNotPersistable = errors.New("file submission must be resolved before it is stored")

type dateJSON struct {
	Date time.Time `json:"date"`
}

type dateRangeJSON struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type filesJSON struct {
	File []uuid.UUID `json:"file"`
}

// Encode renders a persisted value as JSON.
func Encode(v Value) (json.RawMessage, error) {
	switch val := v.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case Text:
		return json.Marshal(val.Text)
	case MultiText:
		entries := val.Entries
		if entries == nil {
			entries = []TitledText{}
		}
		return json.Marshal(entries)
	case Choice:
		selected := val.Selected
		if selected == nil {
			selected = []string{}
		}
		return json.Marshal(selected)
	case Boolean:
		return json.Marshal(val.Value)
	case Date:
		return json.Marshal(dateJSON{Date: val.Date.UTC()})
	case DateRange:
		return json.Marshal(dateRangeJSON{From: val.From.UTC(), To: val.To.UTC()})
	case Files:
		refs := val.Refs
		if refs == nil {
			refs = []uuid.UUID{}
		}
		return json.Marshal(filesJSON{File: refs})
	case FileSubmission:
		return nil, ErrNotPersistable
	default:
		return nil, fmt.Errorf("encode: unsupported value %T", v)
	}
}

// Decode reads a stored value of type t. JSON null decodes to a nil Value.
// Stored values are not re-validated against current options.
func Decode(t Type, raw []byte) (Value, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var (
		out Value
		err error
	)
	switch t.Family() {
	case FamilyScalarText:
		var s string
		err = json.Unmarshal(raw, &s)
		out = Text{Text: s}
	case FamilyMultiText:
		var entries []TitledText
		err = json.Unmarshal(raw, &entries)
		out = MultiText{Entries: entries}
	case FamilyChoice:
		var selected []string
		err = json.Unmarshal(raw, &selected)
		out = Choice{Selected: selected}
	case FamilyBoolean:
		var b bool
		err = json.Unmarshal(raw, &b)
		out = Boolean{Value: b}
	case FamilyDate:
		var d dateJSON
		err = json.Unmarshal(raw, &d)
		out = Date{Date: d.Date.UTC()}
	case FamilyDateRange:
		var r dateRangeJSON
		err = json.Unmarshal(raw, &r)
		out = DateRange{From: r.From.UTC(), To: r.To.UTC()}
	case FamilyFile:
		var f filesJSON
		err = json.Unmarshal(raw, &f)
		out = Files{Refs: f.File}
	default:
		return nil, fmt.Errorf("decode: unknown characteristic type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s value: %w", t, err)
	}
	return out, nil
}
