package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"vibracional/internal/domain"
)

var _ domain.DiagnosisRepository = (*DB)(nil)

// SaveDiagnosis stores the user's result, replacing any previous one.
func (d *DB) SaveDiagnosis(ctx context.Context, in domain.Diagnosis) (*domain.Diagnosis, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	out := domain.Diagnosis{UserID: in.UserID}
	err := d.sql.QueryRowContext(ctx, `
		INSERT INTO user_diagnosis (id, user_id, archetype, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET archetype = EXCLUDED.archetype, created_at = EXCLUDED.created_at
		RETURNING id, archetype, created_at`,
		uuid.NewString(), in.UserID, string(in.Archetype), in.CreatedAt.UTC(),
	).Scan(&out.ID, &out.Archetype, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDiagnosis returns the user's result or nil.
func (d *DB) GetDiagnosis(ctx context.Context, userID int64) (*domain.Diagnosis, error) {
	out := domain.Diagnosis{UserID: userID}
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, archetype, created_at FROM user_diagnosis WHERE user_id = $1", userID,
	).Scan(&out.ID, &out.Archetype, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteDiagnosis removes the user's result.
func (d *DB) DeleteDiagnosis(ctx context.Context, userID int64) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM user_diagnosis WHERE user_id = $1", userID)
	return err
}
