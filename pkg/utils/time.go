package utils

import "time"

// NowRFC3339 returns the current time in RFC3339 format
func NowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}

// ParseRFC3339 parses a time string in RFC3339 format
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// WorkDayKey returns the local calendar-day key (YYYY-MM-DD) for t.
// Two timestamps share a key iff they fall on the same local work day.
func WorkDayKey(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// FromUnixMillis converts a millisecond epoch timestamp to time.Time.
// A zero value yields the zero time so callers can substitute the clock.
func FromUnixMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
