package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Submission is a user-authored record of one category. Fields holds the
// normalized (form) field names listed by the category descriptor.
type Submission struct {
	ID        int               `json:"id"`
	Owner     string            `json:"user"`
	Category  Category          `json:"category"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
}

// Field returns the named normalized field, or "" if absent.
func (s Submission) Field(name string) string {
	return s.Fields[name]
}

// Timestamp layouts accepted when reading created_at. The first one is
// used for writing; the others cover files written by older tooling.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// FormatTimestamp renders t the way created_at columns are stored.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp parses a stored created_at value. Values without a zone
// are interpreted as local time. The zero time is returned for empty or
// unparseable input.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for i, layout := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

// MaxID is the largest id a row may carry.
const MaxID = math.MaxInt - 1

// ParseID parses a stored id value. Integral floats ("3.0") are accepted
// for files written by older tooling. ok is false for empty or invalid
// values and for ids above MaxID.
func ParseID(s string) (id int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n > MaxID {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	// float64(math.MaxInt) rounds up to 2^63, which int cannot hold.
	if f >= float64(math.MaxInt) || f < float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// NextID returns max(valid ids)+1, or 1 when rows carry no valid id. It
// fails with ErrInvalidID once MaxID is taken.
func NextID(rows []Row) (int, error) {
	maxID := 0
	found := false
	for _, r := range rows {
		id, ok := ParseID(r[ColumnID])
		if !ok {
			continue
		}
		if !found || id > maxID {
			maxID = id
			found = true
		}
	}
	if !found {
		return 1, nil
	}
	if maxID >= MaxID {
		return 0, fmt.Errorf("next id: %w: %d is the largest id", ErrInvalidID, MaxID)
	}
	return maxID + 1, nil
}
