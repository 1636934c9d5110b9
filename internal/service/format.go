package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"shiftdesk/internal/model"
)

// longDateLayout is how dates are spelled out to nurses (MM-DD-YYYY).
const longDateLayout = "01-02-2006"

// monthDay renders the short M/D form used in most outbound texts.
func monthDay(t time.Time) string {
	return fmt.Sprintf("%d/%d", t.Month(), t.Day())
}

// clock12 turns a template time (HH:MM or HH:MM:SS) into hh:mm AM/PM.
func clock12(hms string) string {
	t, ok := parseClock(hms)
	if !ok {
		return hms
	}
	return t.Format("03:04 PM")
}

func parseClock(s string) (time.Time, bool) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// clockMinutes returns minutes since midnight for "HH:MM"; empty counts as 0.
func clockMinutes(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	t, ok := parseClock(s)
	if !ok {
		return 0, fmt.Errorf("%w: bad time %q", ErrInvalidInput, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// startedBy reports whether a period starting at hms on day has begun at now.
func startedBy(day model.Date, hms string, now time.Time) bool {
	t, ok := parseClock(hms)
	if !ok {
		return false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location())
	return !now.Before(start)
}

// ID accepts 3, "3", "" or null from admin forms.
type ID struct {
	Value *int
}

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" || s == "0" {
		id.Value = nil
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("not an id: %q", s)
	}
	id.Value = &n
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*id.Value)
}

// Text accepts a JSON string or number and keeps its text form.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*t = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = Text(v)
		return nil
	}
	*t = Text(s)
	return nil
}

func sameID(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
