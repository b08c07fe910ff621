package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"vibracional/internal/domain"
)

var _ domain.AffirmationRepository = (*DB)(nil)

const affirmationColumns = "id, user_id, day, text, affirmation_count, created_at"

func scanAffirmation(row *sql.Row) (*domain.DailyAffirmation, error) {
	var a domain.DailyAffirmation
	err := row.Scan(&a.ID, &a.UserID, &a.Day, &a.Text, &a.Count, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAffirmation returns the user's phrase for day or nil.
func (d *DB) GetAffirmation(ctx context.Context, userID int64, day string) (*domain.DailyAffirmation, error) {
	return scanAffirmation(d.sql.QueryRowContext(ctx,
		"SELECT "+affirmationColumns+" FROM daily_affirmations WHERE user_id = $1 AND day = $2",
		userID, day))
}

// AssignAffirmation stores a unless the day already has a phrase, then
// returns the stored row.
func (d *DB) AssignAffirmation(ctx context.Context, a domain.DailyAffirmation) (*domain.DailyAffirmation, error) {
	if _, err := domain.ParseDay(a.Day); err != nil {
		return nil, err
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := d.sql.ExecContext(ctx, `
		INSERT INTO daily_affirmations (id, user_id, day, text, affirmation_count, created_at)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (user_id, day) DO NOTHING`,
		uuid.NewString(), a.UserID, a.Day, a.Text, a.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, err
	}
	return d.GetAffirmation(ctx, a.UserID, a.Day)
}

// IncrementAffirmation adds one to the day's counter in place; nil when the
// day has no phrase yet.
func (d *DB) IncrementAffirmation(ctx context.Context, userID int64, day string) (*domain.DailyAffirmation, error) {
	return scanAffirmation(d.sql.QueryRowContext(ctx,
		"UPDATE daily_affirmations SET affirmation_count = affirmation_count + 1 WHERE user_id = $1 AND day = $2 RETURNING "+affirmationColumns,
		userID, day))
}
