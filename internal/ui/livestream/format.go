package livestream

import (
	"strings"
	"time"
)

// ClockLayout renders hour and minute on a 12-hour clock.
const ClockLayout = "3:04 PM"

var zonedLayouts = []string{time.RFC3339Nano, time.RFC3339}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp reads a backend timestamp. Values without an offset are
// interpreted in loc (time.Local when nil).
func ParseTimestamp(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatClock renders raw as a short time of day in loc, or fallback when raw
// is missing or malformed.
func FormatClock(raw string, loc *time.Location, fallback string) string {
	t, ok := ParseTimestamp(raw, loc)
	if !ok {
		return fallback
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(ClockLayout)
}
