package analytics

import (
	"errors"
	"testing"
	"time"
)

func TestResolvePreset(t *testing.T) {
	today := time.Date(2024, 8, 31, 17, 45, 0, 0, time.UTC)
	cases := []struct {
		preset  Preset
		start   string
		buckets int
	}{
		{PresetLast30Days, "2024-08-01", 1},
		{PresetLast6Months, "2024-02-29", 7},
		{PresetLast12Months, "2023-08-31", 13},
	}
	for _, tc := range cases {
		t.Run(string(tc.preset), func(t *testing.T) {
			w, err := ResolvePreset(tc.preset, today)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if w.Start.String() != tc.start || w.End.String() != "2024-08-31" {
				t.Fatalf("window = %s..%s", w.Start, w.End)
			}
			if n := len(ComputeMonthlyBuckets(nil, w)); n != tc.buckets {
				t.Fatalf("buckets = %d, want %d", n, tc.buckets)
			}
		})
	}

	if _, err := ResolvePreset("last-century", today); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestResolvePresetUsesLocalCalendarDate(t *testing.T) {
	evening := time.Date(2024, 3, 31, 22, 30, 0, 0, time.FixedZone("UTC-3", -3*60*60))
	w, err := ResolvePreset(PresetLast30Days, evening)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if w.Start.String() != "2024-03-01" || w.End.String() != "2024-03-31" {
		t.Fatalf("window = %s..%s, want 2024-03-01..2024-03-31", w.Start, w.End)
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("2024-01-01", "2024-02-29")
	if err != nil || w.Start.String() != "2024-01-01" || w.End.String() != "2024-02-29" {
		t.Fatalf("unexpected window %v (err=%v)", w, err)
	}
	for _, tc := range [][2]string{
		{"01/01/2024", "2024-02-29"},
		{"2024-01-01", ""},
		{"2024-03-01", "2024-02-01"},
	} {
		if _, err := ParseWindow(tc[0], tc[1]); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("%v expected ErrInvalidWindow, got %v", tc, err)
		}
	}
}
