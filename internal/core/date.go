package core

import (
	"strings"
	"time"
)

// DateLayout is the canonical wire format for donation dates (ISO 8601 calendar date).
const DateLayout = "2006-01-02"

// Date is a calendar date at UTC midnight. The zero value means "no date".
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// CalendarDateOf returns the calendar date of t in t's own location.
func CalendarDateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO 8601 date ("2024-01-10") or an RFC 3339 timestamp
// ("2024-01-10T15:04:05Z"). Any other shape, including DD/MM/YYYY, is rejected
// with ErrMalformedDate rather than guessed at.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, ErrMalformedDate
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, ErrMalformedDate
}

// String formats the date in the canonical layout, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.Time.Before(o.Time)
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.Time.After(o.Time)
}

// MarshalJSON encodes the date in the canonical layout, or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// DateWindow is an inclusive range of calendar dates.
type DateWindow struct {
	Start Date
	End   Date
}

// Contains reports whether d falls within the window, bounds included.
func (w DateWindow) Contains(d Date) bool {
	if d.IsZero() {
		return false
	}
	return !d.Before(w.Start) && !d.After(w.End)
}

// IsEmpty reports whether the window ends before it starts.
func (w DateWindow) IsEmpty() bool {
	return w.End.Before(w.Start)
}
