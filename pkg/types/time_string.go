package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	minutesPerDay = 24 * 60

	// EndOfDay is the only value allowed past 23:59, used as a closing time.
	EndOfDay TimeString = "24:00"
)

var (
	// ErrInvalidTimeString is returned for values that are not HH:MM.
	ErrInvalidTimeString = errors.New("invalid time string format")

	// ErrTimeOutOfRange is returned when arithmetic leaves the 00:00-24:00 day.
	ErrTimeOutOfRange = errors.New("time string out of range")
)

// TimeString is a wall-clock time of day in HH:MM form, without a date or a
// timezone. Working hours are stored with it.
type TimeString string

// NewTimeString takes the clock part of t in t's own location.
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format("15:04"))
}

// NewTimeStringFromString parses and validates an HH:MM value.
func NewTimeStringFromString(s string) (TimeString, error) {
	ts := TimeString(strings.TrimSpace(s))
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts, nil
}

// NewTimeStringFromMinutes builds a TimeString from minutes since midnight.
func NewTimeStringFromMinutes(minutes int) (TimeString, error) {
	if minutes < 0 || minutes > minutesPerDay {
		return "", fmt.Errorf("%w: %d minutes", ErrTimeOutOfRange, minutes)
	}
	return TimeString(fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)), nil
}

// String implements fmt.Stringer.
func (t TimeString) String() string {
	return string(t)
}

// IsZero reports whether the value is empty.
func (t TimeString) IsZero() bool {
	return t == ""
}

// Validate checks the HH:MM format. 24:00 is accepted as the end of the day.
func (t TimeString) Validate() error {
	_, err := t.parse()
	return err
}

// Minutes returns minutes since midnight. Invalid values yield -1.
func (t TimeString) Minutes() int {
	m, err := t.parse()
	if err != nil {
		return -1
	}
	return m
}

// Clock returns hour and minute; 24:00 is returned as (24, 0).
func (t TimeString) Clock() (hour, minute int) {
	m := t.Minutes()
	if m < 0 {
		return 0, 0
	}
	return m / 60, m % 60
}

// AddMinutes shifts the time; leaving the 00:00-24:00 range is an error.
func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	m, err := t.parse()
	if err != nil {
		return "", err
	}
	return NewTimeStringFromMinutes(m + minutes)
}

// IsBefore reports whether t is strictly earlier than other.
func (t TimeString) IsBefore(other TimeString) bool {
	return t.Minutes() < other.Minutes()
}

// IsAfter reports whether t is strictly later than other.
func (t TimeString) IsAfter(other TimeString) bool {
	return t.Minutes() > other.Minutes()
}

// Value implements driver.Valuer.
func (t TimeString) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return string(t), nil
}

// Scan implements sql.Scanner. Postgres TIME columns arrive as "HH:MM:SS"
// strings or as time.Time depending on the driver path.
func (t *TimeString) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = ""
		return nil
	case time.Time:
		*t = NewTimeString(v)
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidTimeString, src)
	}
}

func (t *TimeString) scanString(s string) error {
	if len(s) >= 8 && s[5] == ':' {
		s = s[:5]
	}
	parsed, err := NewTimeStringFromString(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeString) parse() (int, error) {
	s := string(t)
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	hour, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	minute, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	if hour < 0 || minute < 0 || minute > 59 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, s)
	}
	return hour*60 + minute, nil
}
