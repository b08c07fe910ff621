package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vibracional/internal/domain"
)

var _ domain.DailyLogRepository = (*DB)(nil)

const logColumns = "id, user_id, day, tasks, emotional_score, is_completed, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (*domain.DailyLog, error) {
	var (
		l   domain.DailyLog
		raw []byte
	)
	if err := row.Scan(&l.ID, &l.UserID, &l.Day, &raw, &l.EmotionalScore, &l.IsCompleted, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	tasks, err := decodeTasks(raw)
	if err != nil {
		return nil, fmt.Errorf("daily log %s: %w", l.ID, err)
	}
	l.Tasks = tasks
	return &l, nil
}

// decodeTasks reads the JSONB task map. Unknown keys are dropped and missing
// keys read as unchecked.
func decodeTasks(raw []byte) (domain.Tasks, error) {
	tasks := domain.NewTasks()
	if len(raw) == 0 {
		return tasks, nil
	}
	var stored map[string]bool
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	for _, k := range domain.TaskKeys() {
		tasks[k] = stored[string(k)]
	}
	return tasks, nil
}

func encodeTasks(t domain.Tasks) (string, error) {
	b, err := json.Marshal(t.Clone())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GetLog returns the log for (userID, day) or nil when none exists.
func (d *DB) GetLog(ctx context.Context, userID int64, day string) (*domain.DailyLog, error) {
	l, err := scanLog(d.sql.QueryRowContext(ctx,
		"SELECT "+logColumns+" FROM daily_logs WHERE user_id = $1 AND day = $2", userID, day))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return l, err
}

// UpsertLog writes every field of the day's row in one statement, inserting
// it when absent. The row keeps its id and created_at across updates.
func (d *DB) UpsertLog(ctx context.Context, log domain.DailyLog) (*domain.DailyLog, error) {
	if _, err := domain.ParseDay(log.Day); err != nil {
		return nil, err
	}
	tasks, err := encodeTasks(log.Tasks)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return scanLog(d.sql.QueryRowContext(ctx, `
		INSERT INTO daily_logs (id, user_id, day, tasks, emotional_score, is_completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $7)
		ON CONFLICT (user_id, day) DO UPDATE SET
			tasks = EXCLUDED.tasks,
			emotional_score = EXCLUDED.emotional_score,
			is_completed = EXCLUDED.is_completed,
			updated_at = EXCLUDED.updated_at
		RETURNING `+logColumns,
		uuid.NewString(), log.UserID, log.Day, tasks, log.EmotionalScore, log.IsCompleted, now,
	))
}

// ListLogs returns logs with fromDay <= day <= toDay, oldest first.
func (d *DB) ListLogs(ctx context.Context, userID int64, fromDay, toDay string) ([]domain.DailyLog, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+logColumns+" FROM daily_logs WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY day ASC",
		userID, fromDay, toDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.DailyLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
