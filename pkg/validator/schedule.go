package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the normalized date form used throughout the API
const DateLayout = "2006-01-02"

// CompactDateLayout is the GTFS file date form, also used inside synthetic ids
const CompactDateLayout = "20060102"

var (
	// ErrEmptyDate indicates the date is empty
	ErrEmptyDate = errors.New("date cannot be empty")

	// ErrInvalidDate indicates the date matches neither YYYY-MM-DD nor YYYYMMDD
	ErrInvalidDate = errors.New("invalid date format, expected YYYY-MM-DD or YYYYMMDD")

	// ErrEmptyTime indicates the time is empty
	ErrEmptyTime = errors.New("time cannot be empty")

	// ErrInvalidTime indicates the time does not match H:MM[:SS]
	ErrInvalidTime = errors.New("invalid time format, expected HH:MM or HH:MM:SS")
)

var (
	isoDateRegex     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	compactDateRegex = regexp.MustCompile(`^\d{8}$`)

	// hours may exceed 23 for trips running past midnight
	timeRegex = regexp.MustCompile(`^(\d{1,2}):([0-5]\d)(?::([0-5]\d))?$`)
)

// ParseDate accepts YYYY-MM-DD or YYYYMMDD and returns the date at UTC midnight.
// The value must be a real calendar date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}

	var layout string
	switch {
	case isoDateRegex.MatchString(s):
		layout = DateLayout
	case compactDateRegex.MatchString(s):
		layout = CompactDateLayout
	default:
		return time.Time{}, ErrInvalidDate
	}

	date, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return date, nil
}

// NormalizeDate returns the YYYY-MM-DD form of a date accepted by ParseDate
func NormalizeDate(raw string) (string, error) {
	date, err := ParseDate(raw)
	if err != nil {
		return "", err
	}
	return date.Format(DateLayout), nil
}

// ParseTimeOfDay parses H:MM, HH:MM, H:MM:SS or HH:MM:SS into seconds since
// local midnight. Seconds default to 0.
func ParseTimeOfDay(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrEmptyTime
	}

	m := timeRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, ErrInvalidTime
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds := 0
	if m[3] != "" {
		seconds, _ = strconv.Atoi(m[3])
	}

	return hours*3600 + minutes*60 + seconds, nil
}

// FormatTimeOfDay renders seconds since midnight as HH:MM:SS.
// Hours are not wrapped at 24.
func FormatTimeOfDay(totalSeconds int) string {
	sign := ""
	if totalSeconds < 0 {
		sign = "-"
		totalSeconds = -totalSeconds
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, h, m, s)
}

// DayOfWeek returns 1 for Sunday through 7 for Saturday
func DayOfWeek(date time.Time) int {
	return int(date.Weekday()) + 1
}
