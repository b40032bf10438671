package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateKeyLayout is the calendar-date key every daily log is indexed by.
const DateKeyLayout = "2006-01-02"

var (
	dateKeyRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	slashYMDRe  = regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`)
	slashMDYRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	timestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]`)
)

// IsDateKey reports whether s is exactly YYYY-MM-DD.
func IsDateKey(s string) bool {
	return dateKeyRe.MatchString(s)
}

// DateKey formats t as a calendar-date key in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateKeyLayout)
}

// NormalizeDateKey converts a stored date or timestamp string to a YYYY-MM-DD key.
// Timestamps are converted to the local calendar date in loc rather than sliced
// from their UTC form. Legacy slash dates are repaired when they form a valid date.
func NormalizeDateKey(s string, loc *time.Location) (string, error) {
	s = strings.TrimSpace(s)

	if IsDateKey(s) {
		if _, err := time.Parse(DateKeyLayout, s); err != nil {
			return "", fmt.Errorf("invalid date %q: %w", s, err)
		}
		return s, nil
	}

	if timestampRe.MatchString(s) {
		t, err := parseTimestamp(s, loc)
		if err != nil {
			return "", err
		}
		return DateKey(t, loc), nil
	}

	if m := slashYMDRe.FindStringSubmatch(s); m != nil {
		return buildDateKey(m[1], m[2], m[3])
	}
	if m := slashMDYRe.FindStringSubmatch(s); m != nil {
		return buildDateKey(m[3], m[1], m[2])
	}

	return "", fmt.Errorf("unrecognized date %q", s)
}

// DateKeyFromEpochMillis converts a JavaScript millisecond timestamp to a date key in loc.
func DateKeyFromEpochMillis(ms float64, loc *time.Location) string {
	return DateKey(time.UnixMilli(int64(ms)), loc)
}

// ParseTimestamp parses an RFC3339 (optionally fractional, optionally zone-less)
// timestamp. Zone-less values are interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	return parseTimestamp(strings.TrimSpace(s), loc)
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}

func buildDateKey(year, month, day string) (string, error) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (month 13, day 45), which must not be accepted.
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", fmt.Errorf("invalid date %s-%s-%s", year, month, day)
	}
	return t.Format(DateKeyLayout), nil
}
