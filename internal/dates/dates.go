// Package dates normalizes calendar dates to YYYY-MM-DD strings.
//
// Plan days are matched against "today" by comparing these strings rather than
// time.Time values, so a server date stored as UTC midnight never slides into
// the previous or next day when the device runs in another time zone.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical date format used for comparison and transmission.
const Layout = "2006-01-02"

// Key formats t as YYYY-MM-DD in t's own location.
func Key(t time.Time) string {
	return t.Format(Layout)
}

// Today returns the local calendar date of now in loc.
// A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return Key(now.In(loc))
}

// Normalize returns the calendar date a server timestamp was written for.
// It accepts YYYY-MM-DD and RFC3339 (with or without fractional seconds) and
// keeps the date as written: "2025-03-01T00:00:00.000Z" is 2025-03-01 in every zone.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty date")
	}
	if t, err := time.Parse(Layout, s); err == nil {
		return Key(t), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Key(t), nil
	}
	// Some backends drop the zone entirely.
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return Key(t), nil
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}

// Parse parses a YYYY-MM-DD string at midnight in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(Layout, s, loc)
}

// AddDays shifts a YYYY-MM-DD key by n calendar days.
func AddDays(key string, n int) (string, error) {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return "", err
	}
	return Key(t.AddDate(0, 0, n)), nil
}
