package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// NotesField is the free-text key stored alongside the checks.
const NotesField = "notes"

// AnnotationFields are the quality checks (0 or 1) and notes of one
// annotation. They are stored as a single JSON object in fields_json, with
// the checks and "notes" as sibling keys.
type AnnotationFields struct {
	Checks map[string]int
	Notes  string
}

// Checked sums the given checks. Unknown names count as 0.
func (f AnnotationFields) Checked(names []string) int {
	sum := 0
	for _, n := range names {
		sum += f.Checks[n]
	}
	return sum
}

// MarshalJSON writes the checks in name order followed by notes.
func (f AnnotationFields) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(f.Checks))
	for n := range f.Checks {
		names = append(names, n)
	}
	sort.Strings(names)

	buf := []byte{'{'}
	for _, n := range names {
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = strconv.AppendInt(buf, int64(f.Checks[n]), 10)
		buf = append(buf, ',')
	}
	notes, err := json.Marshal(f.Notes)
	if err != nil {
		return nil, err
	}
	buf = append(buf, `"notes":`...)
	buf = append(buf, notes...)
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON accepts numbers, numeric strings, and booleans for checks.
func (f *AnnotationFields) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Checks = make(map[string]int, len(raw))
	f.Notes = ""
	for k, v := range raw {
		if k == NotesField {
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("notes: %w", err)
			}
			f.Notes = s
			continue
		}
		n, err := checkValue(v)
		if err != nil {
			return fmt.Errorf("check %s: %w", k, err)
		}
		f.Checks[k] = n
	}
	return nil
}

func checkValue(v json.RawMessage) (int, error) {
	var val interface{}
	if err := json.Unmarshal(v, &val); err != nil {
		return 0, err
	}
	switch x := val.(type) {
	case float64:
		return int(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		if x == "" {
			return 0, nil
		}
		return strconv.Atoi(x)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("unsupported value %s", string(v))
	}
}

// Annotation is a third-party quality review of one submission.
type Annotation struct {
	ID           int              `json:"id"`
	SubmissionID int              `json:"submission_id"`
	Category     Category         `json:"category"`
	Annotator    string           `json:"user"`
	Fields       AnnotationFields `json:"fields"`
	CreatedAt    time.Time        `json:"created_at"`
}
