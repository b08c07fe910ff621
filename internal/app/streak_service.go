package app

import (
	"context"
	"sort"

	"vibracional/internal/domain"
)

// StreakStatus summarises a user's checkin history as seen from today.
type StreakStatus struct {
	Today          string   `json:"today"`
	Current        int      `json:"current"`
	Longest        int      `json:"longest"`
	Total          int      `json:"total"`
	CheckedInToday bool     `json:"checkedInToday"`
	Days           []string `json:"days"`
}

// StreakService derives streaks from the checkin store. Streaks are never
// persisted.
type StreakService struct {
	checkins domain.CheckinRepository
}

// NewStreakService creates a StreakService backed by the given repository.
func NewStreakService(checkins domain.CheckinRepository) *StreakService {
	return &StreakService{checkins: checkins}
}

// Current returns the consecutive-day streak ending today (or yesterday,
// while today is still open).
func (s *StreakService) Current(ctx context.Context, userID int64, today string) (int, error) {
	st, err := s.Status(ctx, userID, today)
	if err != nil {
		return 0, err
	}
	return st.Current, nil
}

// Status loads the full checkin set once and derives every summary from it.
func (s *StreakService) Status(ctx context.Context, userID int64, today string) (StreakStatus, error) {
	if _, err := domain.ParseDay(today); err != nil {
		return StreakStatus{}, err
	}
	days, err := s.checkins.ListCheckins(ctx, userID)
	if err != nil {
		return StreakStatus{}, err
	}

	set := domain.NewDaySet(days)
	sorted := make([]string, 0, len(set))
	for d := range set {
		sorted = append(sorted, d)
	}
	sort.Strings(sorted)

	return StreakStatus{
		Today:          today,
		Current:        domain.ComputeStreak(set, today),
		Longest:        domain.LongestStreak(set),
		Total:          len(set),
		CheckedInToday: set.Has(today),
		Days:           sorted,
	}, nil
}
