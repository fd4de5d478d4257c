// Package wiredate converts between local date-time input strings and the
// fixed-width wire format the API speaks: "YYYY-MM-DDTHH:mm", no zone suffix.
package wiredate

import (
	"log/slog"
	"time"
)

// WireLayout is the wire format for all record date fields.
const WireLayout = "2006-01-02T15:04"

// acceptedLayouts are tried in order when the input is not already in wire
// form. Zoned inputs are converted to local components.
var acceptedLayouts = []string{
	WireLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse interprets s leniently: the wire layout first, then a best-effort
// fallback of appending seconds, then the remaining accepted layouts.
func Parse(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(WireLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05", s+":00", time.Local); err == nil {
		return t, nil
	}
	var firstErr error
	for _, layout := range acceptedLayouts[1:] {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ToWire normalizes a local date-time string into wire form. Unparseable
// input is logged and returned unchanged rather than causing an error.
func ToWire(s string) string {
	if s == "" {
		return ""
	}
	t, err := Parse(s)
	if err != nil {
		slog.Warn("wiredate: unparseable date kept as-is", slog.String("input", s), slog.String("error", err.Error()))
		return s
	}
	return t.Format(WireLayout)
}

// ToLocalInput converts a wire or ISO date-time string into the shape local
// form inputs expect (which happens to equal the wire layout). Input already
// in that shape is returned unchanged; empty input yields empty output.
func ToLocalInput(s string) string {
	if s == "" {
		return ""
	}
	if len(s) == len(WireLayout) {
		if _, err := time.ParseInLocation(WireLayout, s, time.Local); err == nil {
			return s
		}
	}
	t, err := Parse(s)
	if err != nil {
		slog.Warn("wiredate: unparseable date kept as-is", slog.String("input", s), slog.String("error", err.Error()))
		return s
	}
	return t.In(time.Local).Format(WireLayout)
}

// Format renders t in wire form.
func Format(t time.Time) string {
	return t.Format(WireLayout)
}
