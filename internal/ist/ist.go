// Package ist pins every wall-clock comparison to Indian Standard Time
// (UTC+05:30, no daylight saving) regardless of the host's local zone.
package ist

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Location is IST as a fixed offset. A fixed zone avoids depending on the
// host's tzdata for Asia/Kolkata.
var Location = time.FixedZone("IST", 5*60*60+30*60)

var ErrMalformedTimestamp = errors.New("malformed timestamp")

// accepted date layouts, upstream callers use either the dashed/slashed
// day-first form or the compact year-first form
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"20060102",
}

// Now returns the current instant in IST. A nil clock reads the wall clock.
func Now(clock func() time.Time) time.Time {
	if clock == nil {
		clock = time.Now
	}
	return clock().In(Location)
}

// ParseDate parses a calendar date into IST midnight.
func ParseDate(date string) (time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrMalformedTimestamp)
	}
	for _, layout := range dateLayouts {
		if len(layout) != len(date) {
			continue
		}
		if t, err := time.ParseInLocation(layout, date, Location); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrMalformedTimestamp, date)
}

// ParseDeparture returns the instant at which hhmm (24h) occurs on date in IST.
func ParseDeparture(date, hhmm string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	clock, err := time.Parse("15:04", padClock(strings.TrimSpace(hhmm)))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrMalformedTimestamp, hhmm)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, Location), nil
}

// "7:05" -> "07:05"
func padClock(s string) string {
	if i := strings.IndexByte(s, ':'); i == 1 {
		return "0" + s
	}
	return s
}

// IsUpcoming reports whether departure is strictly after now.
func IsUpcoming(departure, now time.Time) bool {
	return departure.After(now)
}

// Clock formats t as a 24-hour HH:MM string in IST.
func Clock(t time.Time) string {
	return t.In(Location).Format("15:04")
}

// Stamp formats t as RFC3339 in IST, the shape used for response timestamps.
func Stamp(t time.Time) string {
	return t.In(Location).Format(time.RFC3339)
}
