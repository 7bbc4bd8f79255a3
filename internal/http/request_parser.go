package http

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"donorboard/internal/analytics"
	"donorboard/internal/core"
	"donorboard/internal/services"
)

// DefaultPreset is the window used when a request names none.
const DefaultPreset = analytics.PresetLast12Months

// ParseListOptions reads the q, sort and dir query parameters.
func ParseListOptions(query url.Values) services.ListOptions {
	return services.ListOptions{
		Text:      strings.TrimSpace(query.Get("q")),
		Sort:      strings.TrimSpace(query.Get("sort")),
		Direction: analytics.ParseDirection(query.Get("dir")),
	}
}

// ParseWindow reads either an explicit start/end pair or a preset. Both
// start and end must be given together; with neither, preset (or
// DefaultPreset) is resolved against today.
func ParseWindow(query url.Values, today time.Time) (core.DateWindow, error) {
	start := strings.TrimSpace(query.Get("start"))
	end := strings.TrimSpace(query.Get("end"))
	preset := strings.TrimSpace(query.Get("preset"))

	switch {
	case start != "" || end != "":
		if start == "" || end == "" {
			return core.DateWindow{}, fmt.Errorf("%w: start and end must be given together", analytics.ErrInvalidWindow)
		}
		if preset != "" {
			return core.DateWindow{}, fmt.Errorf("%w: preset cannot be combined with start and end", analytics.ErrInvalidWindow)
		}
		return analytics.ParseWindow(start, end)
	case preset == "":
		return analytics.ResolvePreset(DefaultPreset, today)
	default:
		return analytics.ResolvePreset(analytics.Preset(strings.ToLower(preset)), today)
	}
}
