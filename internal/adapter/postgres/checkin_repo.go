package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"vibracional/internal/domain"
)

var _ domain.CheckinRepository = (*DB)(nil)

// toggleCheckinSQL deletes the day's row when present and inserts it
// otherwise, in one statement. Both CTEs see the same snapshot, so the insert
// only runs when the delete found nothing.
const toggleCheckinSQL = `
	WITH del AS (
		DELETE FROM checkins WHERE user_id = $1 AND checkin_date = $2 RETURNING id
	), ins AS (
		INSERT INTO checkins (id, user_id, checkin_date, created_at)
		SELECT $3::uuid, $1::bigint, $2::text, $4::timestamptz
		WHERE NOT EXISTS (SELECT 1 FROM del)
		ON CONFLICT (user_id, checkin_date) DO NOTHING
		RETURNING id
	)
	SELECT NOT EXISTS (SELECT 1 FROM del)`

// ListCheckins returns every checked-in day for the user.
func (d *DB) ListCheckins(ctx context.Context, userID int64) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT checkin_date FROM checkins WHERE user_id = $1 ORDER BY checkin_date ASC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, rows.Err()
}

// ToggleCheckin flips the day's checkin and reports whether it is now set.
func (d *DB) ToggleCheckin(ctx context.Context, userID int64, day string) (bool, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return false, err
	}
	var checked bool
	err := d.sql.QueryRowContext(ctx, toggleCheckinSQL,
		userID, day, uuid.NewString(), time.Now().UTC(),
	).Scan(&checked)
	return checked, err
}

// MarkCheckin inserts the day's checkin when absent.
func (d *DB) MarkCheckin(ctx context.Context, userID int64, day string) (bool, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return false, err
	}
	res, err := d.sql.ExecContext(ctx,
		"INSERT INTO checkins (id, user_id, checkin_date, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, checkin_date) DO NOTHING",
		uuid.NewString(), userID, day, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}
