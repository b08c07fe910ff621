package app

import (
	"context"
	"time"

	"vibracional/internal/domain"
)

// DiagnosisService encapsulates the archetype quiz use cases.
type DiagnosisService struct {
	repo domain.DiagnosisRepository
}

// NewDiagnosisService creates a DiagnosisService backed by the given repository.
func NewDiagnosisService(repo domain.DiagnosisRepository) *DiagnosisService {
	return &DiagnosisService{repo: repo}
}

// Submit scores the answer sheet and stores the result, replacing any
// previous one.
func (s *DiagnosisService) Submit(ctx context.Context, userID int64, answers []string) (*domain.Diagnosis, error) {
	archetype, err := domain.ScoreDiagnosis(answers)
	if err != nil {
		return nil, err
	}
	return s.repo.SaveDiagnosis(ctx, domain.Diagnosis{
		UserID:    userID,
		Archetype: archetype,
		CreatedAt: time.Now(),
	})
}

// Get returns the stored result, or nil when the quiz was never taken.
func (s *DiagnosisService) Get(ctx context.Context, userID int64) (*domain.Diagnosis, error) {
	return s.repo.GetDiagnosis(ctx, userID)
}

// Reset deletes the stored result so the quiz can be retaken.
func (s *DiagnosisService) Reset(ctx context.Context, userID int64) error {
	return s.repo.DeleteDiagnosis(ctx, userID)
}
