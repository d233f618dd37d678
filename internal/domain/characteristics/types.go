package characteristics

import (
	"fmt"
	"strings"
)

// Type is the closed set of characteristic types.
type Type string

const (
	TypeText          Type = "text"
	TypeTextarea      Type = "textarea"
	TypeLink          Type = "link"
	TypeEmail         Type = "email"
	TypeNumber        Type = "number"
	TypeFloat         Type = "float"
	TypeMultiText     Type = "multiText"
	TypeMultiTextArea Type = "multiTextArea"
	TypeSelect        Type = "select"
	TypeRadio         Type = "radio"
	TypeCheckbox      Type = "checkbox"
	TypeMultiSelect   Type = "multiSelect"
	TypeBoolean       Type = "boolean"
	TypeDate          Type = "date"
	TypeDateHour      Type = "dateHour"
	TypeDateRange     Type = "dateRange"
	TypeDateHourRange Type = "dateHourRange"
	TypeFile          Type = "file"
)

// Family groups types that share a value shape.
type Family string

const (
	FamilyScalarText Family = "scalar_text"
	FamilyMultiText  Family = "multi_text"
	FamilyChoice     Family = "choice"
	FamilyBoolean    Family = "boolean"
	FamilyDate       Family = "date"
	FamilyDateRange  Family = "date_range"
	FamilyFile       Family = "file"
)

var typeFamilies = map[Type]Family{
	TypeText:          FamilyScalarText,
	TypeTextarea:      FamilyScalarText,
	TypeLink:          FamilyScalarText,
	TypeEmail:         FamilyScalarText,
	TypeNumber:        FamilyScalarText,
	TypeFloat:         FamilyScalarText,
	TypeMultiText:     FamilyMultiText,
	TypeMultiTextArea: FamilyMultiText,
	TypeSelect:        FamilyChoice,
	TypeRadio:         FamilyChoice,
	TypeCheckbox:      FamilyChoice,
	TypeMultiSelect:   FamilyChoice,
	TypeBoolean:       FamilyBoolean,
	TypeDate:          FamilyDate,
	TypeDateHour:      FamilyDate,
	TypeDateRange:     FamilyDateRange,
	TypeDateHourRange: FamilyDateRange,
	TypeFile:          FamilyFile,
}

// Family returns the value family of t, or "" for unknown types.
func (t Type) Family() Family { return typeFamilies[t] }

func (t Type) Valid() bool {
	_, ok := typeFamilies[t]
	return ok
}

// IsFile reports whether values of t are routed through attachment handling.
func (t Type) IsFile() bool { return t.Family() == FamilyFile }

// SingleChoice reports whether a choice type admits at most one selection.
func (t Type) SingleChoice() bool {
	switch t {
	case TypeSelect, TypeRadio, TypeCheckbox:
		return true
	default:
		return false
	}
}

// HourPrecision reports whether a date type keeps the time of day.
func (t Type) HourPrecision() bool {
	return t == TypeDateHour || t == TypeDateHourRange
}

func ParseType(raw string) (Type, error) {
	t := Type(strings.TrimSpace(raw))
	if !t.Valid() {
		return "", fmt.Errorf("unknown characteristic type %q", raw)
	}
	return t, nil
}

// Expected describes the value shape of a family for error messages.
func (f Family) Expected() string {
	switch f {
	case FamilyScalarText:
		return "string"
	case FamilyMultiText:
		return "list of {title, text}"
	case FamilyChoice:
		return "list of selected options"
	case FamilyBoolean:
		return "boolean"
	case FamilyDate:
		return "{date}"
	case FamilyDateRange:
		return "{from, to}"
	case FamilyFile:
		return "{file} or {fileToAdd, fileToDelete}"
	default:
		return "unknown"
	}
}
