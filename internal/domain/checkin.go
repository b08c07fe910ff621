package domain

import (
	"context"
	"time"
)

// Checkin marks a day the user explicitly declared done.
type Checkin struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Day       string    `json:"checkinDate"`
	CreatedAt time.Time `json:"createdAt"`
}

// CheckinRepository is the port for checkin persistence. ToggleCheckin must
// insert or delete atomically and report whether the day is now checked in.
// MarkCheckin inserts when absent and reports whether a row was created.
type CheckinRepository interface {
	ListCheckins(ctx context.Context, userID int64) ([]string, error)
	ToggleCheckin(ctx context.Context, userID int64, day string) (bool, error)
	MarkCheckin(ctx context.Context, userID int64, day string) (bool, error)
}

// DaySet is a set of day keys.
type DaySet map[string]struct{}

// NewDaySet builds a set from day keys; duplicates collapse.
func NewDaySet(days []string) DaySet {
	s := make(DaySet, len(days))
	for _, d := range days {
		s[d] = struct{}{}
	}
	return s
}

// Has reports whether day is in the set.
func (s DaySet) Has(day string) bool {
	_, ok := s[day]
	return ok
}
