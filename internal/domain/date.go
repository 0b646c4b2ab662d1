package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the at-rest representation of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses an at-rest date. Full RFC 3339 timestamps are accepted and truncated to their date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidDate)
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOf(t), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// FormatDate renders a time as an at-rest date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOf strips the clock from t, keeping its calendar day in UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of whole days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(DateOf(b).Sub(DateOf(a)).Hours() / 24)
}

// CorrectDateRange returns an end date strictly after start, moving it to start plus one year when needed.
// Ranges with an unparseable side are returned unchanged.
func CorrectDateRange(start, end string) (string, bool) {
	startAt, err := ParseDate(start)
	if err != nil {
		return end, false
	}
	endAt, err := ParseDate(end)
	if err == nil && endAt.After(startAt) {
		return end, false
	}
	if err != nil && strings.TrimSpace(end) != "" {
		return end, false
	}
	return FormatDate(startAt.AddDate(1, 0, 0)), true
}
