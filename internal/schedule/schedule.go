package schedule

import (
	"strconv"
	"strings"
	"time"
)

// Tolerance is the maximum distance between "now" and a target instant for a
// window match. It must stay larger than the worker's tick interval so a
// window cannot fall between two ticks; the monotonic sent flags keep
// adjacent matching ticks from firing twice.
const Tolerance = 3 * time.Minute

// Default open time used when a group has auto-open enabled but no time
// configured.
const (
	DefaultOpenHour   = 12
	DefaultOpenMinute = 0
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a full English weekday name, case-insensitively, to a
// time.Weekday. Unknown names report false; callers skip rather than fail.
func ParseWeekday(name string) (time.Weekday, bool) {
	d, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// ParseClock parses an "HH:MM" wall-clock time. Empty input falls back to the
// default open time.
func ParseClock(s string) (hour, minute int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultOpenHour, DefaultOpenMinute, true
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}

// MatchWeekly reports whether now falls within tol of today's hh:mm on the
// given weekday. now must already be in the league timezone.
func MatchWeekly(now time.Time, day time.Weekday, hour, minute int, tol time.Duration) bool {
	if now.Weekday() != day {
		return false
	}
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	return MatchInstant(now, target, tol)
}

// MatchInstant reports whether |now − target| ≤ tol. The boundary is
// inclusive on both sides.
func MatchInstant(now, target time.Time, tol time.Duration) bool {
	d := now.Sub(target)
	if d < 0 {
		d = -d
	}
	return d <= tol
}
