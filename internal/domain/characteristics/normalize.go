package characteristics

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

func normalizeText(t Type, raw any) (Value, error) {
	var s string
	switch v := raw.(type) {
	case Text:
		s = v.Text
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		if t != TypeNumber && t != TypeFloat {
			return nil, shapeErr(t, "got number")
		}
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return nil, shapeErr(t, "got %T", raw)
	}
	if t != TypeTextarea {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return Text{}, nil
	}
	switch t {
	case TypeNumber:
		n, err := strconv.ParseInt(s, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return nil, shapeErr(t, "%q overflows a 64-bit integer", s)
		}
		if err != nil {
			// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
				return nil, shapeErr(t, "%q is not an integer", s)
			}
			n = int64(f)
		}
		s = strconv.FormatInt(n, 10)
	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, shapeErr(t, "%q is not a number", s)
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	case TypeEmail:
		if err := validate.Var(s, "email"); err != nil {
			return nil, shapeErr(t, "%q is not an email address", s)
		}
	case TypeLink:
		if err := validate.Var(s, "url"); err != nil {
			return nil, shapeErr(t, "%q is not a url", s)
		}
	}
	return Text{Text: s}, nil
}

func normalizeMultiText(t Type, raw any) (Value, error) {
	var entries []TitledText
	switch v := raw.(type) {
	case MultiText:
		entries = v.Entries
	case []TitledText:
		entries = v
	case []any:
		entries = make([]TitledText, 0, len(v))
		for i, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, shapeErr(t, "entry %d is %T", i, item)
			}
			title, ok1 := optionalString(m["title"])
			text, ok2 := optionalString(m["text"])
			if !ok1 || !ok2 {
				return nil, shapeErr(t, "entry %d title and text must be strings", i)
			}
			entries = append(entries, TitledText{Title: title, Text: text})
		}
	default:
		return nil, shapeErr(t, "got %T", raw)
	}
	out := make([]TitledText, 0, len(entries))
	for _, e := range entries {
		e.Title = strings.TrimSpace(e.Title)
		if e.Title == "" && strings.TrimSpace(e.Text) == "" {
			continue
		}
		out = append(out, e)
	}
	return MultiText{Entries: out}, nil
}

func optionalString(v any) (string, bool) {
	if v == nil {
		return "", true
	}
	s, ok := v.(string)
	return s, ok
}

// implicitOption is the single option a checkbox toggles.
func implicitOption(options []string) string {
	if len(options) > 0 && strings.TrimSpace(options[0]) != "" {
		return strings.TrimSpace(options[0])
	}
	return "true"
}

func normalizeChoice(t Type, options []string, raw any) (Value, error) {
	var selected []string
	switch v := raw.(type) {
	case Choice:
		selected = v.Selected
	case string:
		selected = []string{v}
	case []string:
		selected = v
	case bool:
		if t != TypeCheckbox {
			return nil, shapeErr(t, "got boolean")
		}
		if v {
			selected = []string{implicitOption(options)}
		}
	case []any:
		selected = make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, shapeErr(t, "option %d is %T", i, item)
			}
			selected = append(selected, s)
		}
	default:
		return nil, shapeErr(t, "got %T", raw)
	}

	allowed := make(map[string]struct{}, len(options)+1)
	if t == TypeCheckbox {
		allowed[implicitOption(options)] = struct{}{}
	} else {
		for _, o := range options {
			allowed[strings.TrimSpace(o)] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(selected))
	out := make([]string, 0, len(selected))
	for _, s := range selected {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		if _, ok := allowed[s]; !ok {
			return nil, shapeErr(t, "%q is not an option", s)
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if t.SingleChoice() && len(out) > 1 {
		return nil, shapeErr(t, "at most one option may be selected, got %d", len(out))
	}
	return Choice{Selected: out}, nil
}

func normalizeBoolean(t Type, raw any) (Value, error) {
	switch v := raw.(type) {
	case Boolean:
		return v, nil
	case bool:
		return Boolean{Value: v}, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, shapeErr(t, "%q is not a boolean", v)
		}
		return Boolean{Value: b}, nil
	default:
		return nil, shapeErr(t, "got %T", raw)
	}
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"}

func parseTimestamp(t Type, raw any) (time.Time, error) {
	var ts time.Time
	switch v := raw.(type) {
	case time.Time:
		ts = v
	case float64:
		ts = time.UnixMilli(int64(v))
	case int64:
		ts = time.UnixMilli(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, shapeErr(t, "%q is not a timestamp", v.String())
		}
		ts = time.UnixMilli(n)
	case string:
		s := strings.TrimSpace(v)
		parsed := false
		for _, layout := range dateLayouts {
			if p, err := time.Parse(layout, s); err == nil {
				ts, parsed = p, true
				break
			}
		}
		if !parsed {
			return time.Time{}, shapeErr(t, "%q is not a timestamp", v)
		}
	default:
		return time.Time{}, shapeErr(t, "timestamp got %T", raw)
	}
	return truncate(t, ts), nil
}

func truncate(t Type, ts time.Time) time.Time {
	ts = ts.UTC()
	if t.HourPrecision() {
		return ts.Truncate(time.Minute)
	}
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

func normalizeDate(t Type, raw any) (Value, error) {
	var src any
	switch v := raw.(type) {
	case Date:
		src = v.Date
	case map[string]any:
		d, ok := v["date"]
		if !ok || d == nil {
			return nil, shapeErr(t, "missing date")
		}
		src = d
	default:
		src = raw
	}
	ts, err := parseTimestamp(t, src)
	if err != nil {
		return nil, err
	}
	return Date{Date: ts}, nil
}

func normalizeDateRange(t Type, raw any) (Value, error) {
	var fromRaw, toRaw any
	switch v := raw.(type) {
	case DateRange:
		fromRaw, toRaw = v.From, v.To
	case map[string]any:
		fromRaw, toRaw = v["from"], v["to"]
	default:
		return nil, shapeErr(t, "got %T", raw)
	}
	if fromRaw == nil || toRaw == nil {
		return nil, shapeErr(t, "from and to are required")
	}
	from, err := parseTimestamp(t, fromRaw)
	if err != nil {
		return nil, err
	}
	to, err := parseTimestamp(t, toRaw)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, shapeErr(t, "from is after to")
	}
	return DateRange{From: from, To: to}, nil
}

func normalizeFile(t Type, raw any) (Value, error) {
	switch v := raw.(type) {
	case Files:
		return Files{Refs: dedupeRefs(v.Refs)}, nil
	case FileSubmission:
		for i, u := range v.Add {
			if u.Open == nil {
				return nil, shapeErr(t, "file %d (%q) has no content", i, u.Name)
			}
		}
		return FileSubmission{Add: v.Add, Delete: dedupeRefs(v.Delete)}, nil
	case map[string]any:
		return normalizeFileMap(t, v)
	default:
		return nil, shapeErr(t, "got %T", raw)
	}
}

// normalizeFileMap accepts the decoded JSON forms {file: [...]} and
// {fileToAdd: [...], fileToDelete: [...]}. List items are either Uploads
// attached by the transport or attachment ids.
func normalizeFileMap(t Type, m map[string]any) (Value, error) {
	var sub FileSubmission
	sawKey := false
	for _, key := range []string{"file", "fileToAdd"} {
		items, ok := m[key]
		if !ok {
			continue
		}
		sawKey = true
		uploads, refs, err := splitFileItems(t, key, items)
		if err != nil {
			return nil, err
		}
		sub.Add = append(sub.Add, uploads...)
		if key == "file" && len(uploads) == 0 && len(m) == 1 {
			return Files{Refs: dedupeRefs(refs)}, nil
		}
		if len(refs) > 0 {
			return nil, shapeErr(t, "%s must contain files, not ids", key)
		}
	}
	if items, ok := m["fileToDelete"]; ok {
		sawKey = true
		uploads, refs, err := splitFileItems(t, "fileToDelete", items)
		if err != nil {
			return nil, err
		}
		if len(uploads) > 0 {
			return nil, shapeErr(t, "fileToDelete must contain ids")
		}
		sub.Delete = refs
	}
	if !sawKey {
		return nil, shapeErr(t, "no file keys")
	}
	return normalizeFile(t, sub)
}

func splitFileItems(t Type, key string, items any) ([]Upload, []uuid.UUID, error) {
	var list []any
	switch v := items.(type) {
	case nil:
		return nil, nil, nil
	case []Upload:
		return v, nil, nil
	case []uuid.UUID:
		return nil, v, nil
	case []any:
		list = v
	default:
		return nil, nil, shapeErr(t, "%s got %T", key, items)
	}
	var uploads []Upload
	var refs []uuid.UUID
	for i, item := range list {
		switch it := item.(type) {
		case Upload:
			uploads = append(uploads, it)
		case uuid.UUID:
			refs = append(refs, it)
		case string:
			id, err := uuid.Parse(strings.TrimSpace(it))
			if err != nil {
				return nil, nil, shapeErr(t, "%s[%d] %q is not a file id", key, i, it)
			}
			refs = append(refs, id)
		default:
			return nil, nil, shapeErr(t, "%s[%d] got %T", key, i, item)
		}
	}
	return uploads, refs, nil
}

func dedupeRefs(in []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	seen := make(map[uuid.UUID]struct{}, len(in))
	for _, id := range in {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
