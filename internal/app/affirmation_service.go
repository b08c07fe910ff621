package app

import (
	"context"
	"errors"
	"time"

	"vibracional/internal/domain"
)

// AffirmationService hands out one phrase per user per day and counts how
// often the user repeats it.
type AffirmationService struct {
	repo    domain.AffirmationRepository
	library []string
	now     func() time.Time
}

// NewAffirmationService creates an AffirmationService drawing from library,
// or from domain.DefaultAffirmations when library is empty.
func NewAffirmationService(repo domain.AffirmationRepository, library []string) *AffirmationService {
	if len(library) == 0 {
		library = domain.DefaultAffirmations
	}
	return &AffirmationService{repo: repo, library: library, now: time.Now}
}

// Today returns the user's phrase for the current day in loc, drawing and
// storing it on first access.
func (s *AffirmationService) Today(ctx context.Context, userID int64, loc *time.Location) (*domain.DailyAffirmation, error) {
	day := domain.DayKey(s.now(), loc)
	a, err := s.repo.GetAffirmation(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if a != nil {
		return a, nil
	}
	return s.assign(ctx, userID, day)
}

// Affirm increments today's counter and returns the updated row.
func (s *AffirmationService) Affirm(ctx context.Context, userID int64, loc *time.Location) (*domain.DailyAffirmation, error) {
	day := domain.DayKey(s.now(), loc)
	a, err := s.repo.IncrementAffirmation(ctx, userID, day)
	if err != nil || a != nil {
		return a, err
	}
	if _, err := s.assign(ctx, userID, day); err != nil {
		return nil, err
	}
	a, err = s.repo.IncrementAffirmation(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errors.New("daily affirmation vanished after assignment")
	}
	return a, nil
}

func (s *AffirmationService) assign(ctx context.Context, userID int64, day string) (*domain.DailyAffirmation, error) {
	text := s.library[domain.PickAffirmation(len(s.library), userID, day)]
	return s.repo.AssignAffirmation(ctx, domain.DailyAffirmation{
		UserID:    userID,
		Day:       day,
		Text:      text,
		CreatedAt: s.now(),
	})
}
