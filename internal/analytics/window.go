package analytics

import (
	"errors"
	"fmt"
	"time"

	"donorboard/internal/core"
)

// Preset names a dashboard date window relative to today.
type Preset string

const (
	PresetLast30Days   Preset = "last-30-days"
	PresetLast6Months  Preset = "last-6-months"
	PresetLast12Months Preset = "last-12-months"
)

var (
	ErrUnknownPreset = errors.New("unknown window preset")
	ErrInvalidWindow = errors.New("invalid date window")
)

// Presets lists the accepted presets.
func Presets() []Preset {
	return []Preset{PresetLast30Days, PresetLast6Months, PresetLast12Months}
}

// ResolvePreset turns a preset into the concrete window [today - N, today].
// today is read as a calendar date in its own location.
// Month arithmetic clamps to the end of shorter months, so "last-6-months"
// from Aug 31 starts on Feb 28/29 rather than overflowing into March.
func ResolvePreset(p Preset, today time.Time) (core.DateWindow, error) {
	end := core.CalendarDateOf(today)
	var start core.Date
	switch p {
	case PresetLast30Days:
		start = core.Date{Time: end.AddDate(0, 0, -30)}
	case PresetLast6Months:
		start = subtractMonths(end, 6)
	case PresetLast12Months:
		start = subtractMonths(end, 12)
	default:
		return core.DateWindow{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
	return core.DateWindow{Start: start, End: end}, nil
}

// ParseWindow builds a window from two canonical dates.
func ParseWindow(start, end string) (core.DateWindow, error) {
	s, err := core.ParseDate(start)
	if err != nil {
		return core.DateWindow{}, fmt.Errorf("%w: start %q: %v", ErrInvalidWindow, start, err)
	}
	e, err := core.ParseDate(end)
	if err != nil {
		return core.DateWindow{}, fmt.Errorf("%w: end %q: %v", ErrInvalidWindow, end, err)
	}
	w := core.DateWindow{Start: s, End: e}
	if w.IsEmpty() {
		return core.DateWindow{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow, e, s)
	}
	return w, nil
}

func subtractMonths(d core.Date, n int) core.Date {
	first := time.Date(d.Year(), d.Month()-time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > lastDay {
		day = lastDay
	}
	return core.NewDate(first.Year(), int(first.Month()), day)
}
