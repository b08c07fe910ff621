package domain

import (
	"errors"
	"fmt"
	"time"
)

// DayLayout is the canonical calendar-day key format.
const DayLayout = "2006-01-02"

// ErrInvalidDay indicates a malformed calendar-day key.
var ErrInvalidDay = errors.New("invalid day, expected YYYY-MM-DD")

// LoadLocation resolves an IANA timezone name. An empty name or "Local"
// yields the process local timezone.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// DayKey returns the calendar day of t on the wall clock of loc.
// A nil loc means time.Local.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DayLayout)
}

// ParseDay validates a day key and returns midnight UTC of that civil date.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, day)
	}
	return t, nil
}

// AddDays shifts a day key by n calendar days. The arithmetic runs on the
// civil date so DST transitions never skip or repeat a day.
func AddDays(day string, n int) (string, error) {
	t, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DayLayout), nil
}
