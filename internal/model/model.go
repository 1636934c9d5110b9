package model

import (
	"strings"
	"time"
)

// Shift periods a nurse works and a tracker row is booked for.
const (
	PeriodAM  = "AM"
	PeriodPM  = "PM"
	PeriodNOC = "NOC"
)

// Tracker row statuses.
const (
	StatusOpen   = "open"
	StatusFilled = "filled"
)

// Who created a tracker row.
const (
	BookedByBot   = "bot"
	BookedByAdmin = "admin"
)

// Chat log directions.
const (
	MessageReceived = "received"
	MessageSent     = "sent"
)

// DateLayout is the storage and wire layout for calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar day serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD, optionally followed by a time part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, 'T'); i > 0 {
		s = s[:i]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Before reports whether d is an earlier day than o.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

type Admin struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
}
