package http

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"donorboard/internal/analytics"
)

func TestParseListOptions(t *testing.T) {
	opts := ParseListOptions(url.Values{"q": {"  ana "}, "sort": {"total"}, "dir": {"DESC"}})
	if opts.Text != "ana" || opts.Sort != "total" || opts.Direction != analytics.Descending {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if got := ParseListOptions(url.Values{}); got.Direction != analytics.Ascending || got.Sort != "" {
		t.Fatalf("unexpected defaults: %+v", got)
	}
}

func TestParseWindow(t *testing.T) {
	now := time.Date(2024, 8, 31, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		query     url.Values
		wantStart string
		wantEnd   string
		wantErr   error
	}{
		{"default preset", url.Values{}, "2023-08-31", "2024-08-31", nil},
		{"30 days", url.Values{"preset": {"last-30-days"}}, "2024-08-01", "2024-08-31", nil},
		{"6 months clamps", url.Values{"preset": {"Last-6-Months"}}, "2024-02-29", "2024-08-31", nil},
		{"explicit", url.Values{"start": {"2024-01-01"}, "end": {"2024-01-31"}}, "2024-01-01", "2024-01-31", nil},
		{"unknown preset", url.Values{"preset": {"forever"}}, "", "", analytics.ErrUnknownPreset},
		{"half window", url.Values{"end": {"2024-01-31"}}, "", "", analytics.ErrInvalidWindow},
		{"preset and range", url.Values{"preset": {"last-30-days"}, "start": {"2024-01-01"}, "end": {"2024-01-31"}}, "", "", analytics.ErrInvalidWindow},
		{"reversed", url.Values{"start": {"2024-02-01"}, "end": {"2024-01-31"}}, "", "", analytics.ErrInvalidWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWindow(tt.query, now)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.Start.String() != tt.wantStart || w.End.String() != tt.wantEnd {
				t.Fatalf("window = %s..%s, want %s..%s", w.Start, w.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}
