package app

import (
	"context"
	"errors"
	"testing"

	"vibracional/internal/domain"
)

type mockDiagnosisRepo struct {
	saveFn   func(ctx context.Context, d domain.Diagnosis) (*domain.Diagnosis, error)
	getFn    func(ctx context.Context, userID int64) (*domain.Diagnosis, error)
	deleteFn func(ctx context.Context, userID int64) error
}

func (m *mockDiagnosisRepo) SaveDiagnosis(ctx context.Context, d domain.Diagnosis) (*domain.Diagnosis, error) {
	if m.saveFn != nil {
		return m.saveFn(ctx, d)
	}
	return &d, nil
}

func (m *mockDiagnosisRepo) GetDiagnosis(ctx context.Context, userID int64) (*domain.Diagnosis, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDiagnosisRepo) DeleteDiagnosis(ctx context.Context, userID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

func TestDiagnosisService_Submit(t *testing.T) {
	var saved domain.Diagnosis
	repo := &mockDiagnosisRepo{
		saveFn: func(_ context.Context, d domain.Diagnosis) (*domain.Diagnosis, error) {
			saved = d
			return &d, nil
		},
	}
	svc := NewDiagnosisService(repo)

	d, err := svc.Submit(context.Background(), 4, []string{"B", "C", "B", "D"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Archetype != domain.ArchetypeArquiteto || saved.UserID != 4 || saved.CreatedAt.IsZero() {
		t.Errorf("unexpected diagnosis %+v", saved)
	}
}

func TestDiagnosisService_SubmitInvalid(t *testing.T) {
	repo := &mockDiagnosisRepo{
		saveFn: func(context.Context, domain.Diagnosis) (*domain.Diagnosis, error) {
			t.Error("invalid answers must not be saved")
			return nil, nil
		},
	}
	_, err := NewDiagnosisService(repo).Submit(context.Background(), 1, []string{"A", "E"})
	if !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Errorf("expected ErrInvalidAnswer, got %v", err)
	}
}

func TestDiagnosisService_GetAndReset(t *testing.T) {
	deleted := int64(0)
	repo := &mockDiagnosisRepo{
		getFn: func(_ context.Context, userID int64) (*domain.Diagnosis, error) {
			return &domain.Diagnosis{UserID: userID, Archetype: domain.ArchetypeTurista}, nil
		},
		deleteFn: func(_ context.Context, userID int64) error {
			deleted = userID
			return nil
		},
	}
	svc := NewDiagnosisService(repo)

	d, err := svc.Get(context.Background(), 3)
	if err != nil || d.Archetype != domain.ArchetypeTurista {
		t.Errorf("unexpected get result %+v, %v", d, err)
	}
	if err := svc.Reset(context.Background(), 3); err != nil || deleted != 3 {
		t.Errorf("expected reset for user 3, got %d (%v)", deleted, err)
	}
}
