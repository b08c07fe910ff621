// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"vibracional/internal/domain"
)

type dayKey struct {
	userID int64
	day    string
}

// DB implements an in-memory database storage.
type DB struct {
	mu        sync.Mutex
	users     []*domain.User
	sessions  map[string]*domain.Session
	logs      map[dayKey]*domain.DailyLog
	checkins  map[dayKey]domain.Checkin
	diagnoses map[int64]domain.Diagnosis
	affirms   map[dayKey]*domain.DailyAffirmation

	userIDCounter int64
	now           func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions:  make(map[string]*domain.Session),
		logs:      make(map[dayKey]*domain.DailyLog),
		checkins:  make(map[dayKey]domain.Checkin),
		diagnoses: make(map[int64]domain.Diagnosis),
		affirms:   make(map[dayKey]*domain.DailyAffirmation),
		now:       time.Now,
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.DailyLogRepository = (*DB)(nil)
var _ domain.CheckinRepository = (*DB)(nil)
var _ domain.DiagnosisRepository = (*DB)(nil)
var _ domain.AffirmationRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- DailyLogRepository ---

// GetLog returns the log for (userID, day) or nil when none exists.
func (db *DB) GetLog(ctx context.Context, userID int64, day string) (*domain.DailyLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	l, ok := db.logs[dayKey{userID, day}]
	if !ok {
		return nil, nil
	}
	out := *l
	out.Tasks = l.Tasks.Clone()
	return &out, nil
}

// UpsertLog inserts the log or overwrites the existing row for the same day,
// keeping its id.
func (db *DB) UpsertLog(ctx context.Context, log domain.DailyLog) (*domain.DailyLog, error) {
	if _, err := domain.ParseDay(log.Day); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	now := db.now().UTC()
	k := dayKey{log.UserID, log.Day}
	row, ok := db.logs[k]
	if !ok {
		row = &domain.DailyLog{
			ID:        uuid.NewString(),
			UserID:    log.UserID,
			Day:       log.Day,
			CreatedAt: now,
		}
		db.logs[k] = row
	}
	row.Tasks = log.Tasks.Clone()
	row.EmotionalScore = log.EmotionalScore
	row.IsCompleted = log.IsCompleted
	row.UpdatedAt = now

	out := *row
	out.Tasks = row.Tasks.Clone()
	return &out, nil
}

// ListLogs returns logs with fromDay <= day <= toDay, oldest first.
func (db *DB) ListLogs(ctx context.Context, userID int64, fromDay, toDay string) ([]domain.DailyLog, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []domain.DailyLog
	for k, l := range db.logs {
		if k.userID != userID || k.day < fromDay || k.day > toDay {
			continue
		}
		c := *l
		c.Tasks = l.Tasks.Clone()
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

// LogCount returns the number of stored logs for a user.
func (db *DB) LogCount(userID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()

	n := 0
	for k := range db.logs {
		if k.userID == userID {
			n++
		}
	}
	return n
}

// --- CheckinRepository ---

// ListCheckins returns every checked-in day for the user.
func (db *DB) ListCheckins(ctx context.Context, userID int64) ([]string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []string
	for k := range db.checkins {
		if k.userID == userID {
			out = append(out, k.day)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ToggleCheckin deletes the day's checkin if present, otherwise inserts it.
func (db *DB) ToggleCheckin(ctx context.Context, userID int64, day string) (bool, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return false, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	k := dayKey{userID, day}
	if _, ok := db.checkins[k]; ok {
		delete(db.checkins, k)
		return false, nil
	}
	db.checkins[k] = domain.Checkin{ID: uuid.NewString(), UserID: userID, Day: day, CreatedAt: db.now().UTC()}
	return true, nil
}

// MarkCheckin inserts the day's checkin when absent.
func (db *DB) MarkCheckin(ctx context.Context, userID int64, day string) (bool, error) {
	if _, err := domain.ParseDay(day); err != nil {
		return false, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	k := dayKey{userID, day}
	if _, ok := db.checkins[k]; ok {
		return false, nil
	}
	db.checkins[k] = domain.Checkin{ID: uuid.NewString(), UserID: userID, Day: day, CreatedAt: db.now().UTC()}
	return true, nil
}

// --- DiagnosisRepository ---

// SaveDiagnosis stores the user's result, replacing any previous one.
func (db *DB) SaveDiagnosis(ctx context.Context, d domain.Diagnosis) (*domain.Diagnosis, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	d.ID = uuid.NewString()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = db.now().UTC()
	}
	db.diagnoses[d.UserID] = d
	return &d, nil
}

// GetDiagnosis returns the user's result or nil.
func (db *DB) GetDiagnosis(ctx context.Context, userID int64) (*domain.Diagnosis, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	d, ok := db.diagnoses[userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// DeleteDiagnosis removes the user's result.
func (db *DB) DeleteDiagnosis(ctx context.Context, userID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.diagnoses, userID)
	return nil
}

// --- AffirmationRepository ---

// GetAffirmation returns the user's phrase for day or nil.
func (db *DB) GetAffirmation(ctx context.Context, userID int64, day string) (*domain.DailyAffirmation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	a, ok := db.affirms[dayKey{userID, day}]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

// AssignAffirmation stores a unless the day already has a phrase.
func (db *DB) AssignAffirmation(ctx context.Context, a domain.DailyAffirmation) (*domain.DailyAffirmation, error) {
	if _, err := domain.ParseDay(a.Day); err != nil {
		return nil, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	k := dayKey{a.UserID, a.Day}
	if existing, ok := db.affirms[k]; ok {
		c := *existing
		return &c, nil
	}
	a.ID = uuid.NewString()
	a.Count = 0
	if a.CreatedAt.IsZero() {
		a.CreatedAt = db.now()
	}
	a.CreatedAt = a.CreatedAt.UTC()
	db.affirms[k] = &a
	c := a
	return &c, nil
}

// IncrementAffirmation adds one to the day's counter; nil when unassigned.
func (db *DB) IncrementAffirmation(ctx context.Context, userID int64, day string) (*domain.DailyAffirmation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	a, ok := db.affirms[dayKey{userID, day}]
	if !ok {
		return nil, nil
	}
	a.Count++
	c := *a
	return &c, nil
}

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, in domain.User) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == in.Email {
			return nil, fmt.Errorf("user %s: %w", in.Email, domain.ErrConflict)
		}
	}

	db.userIDCounter++
	u := in
	u.ID = db.userIDCounter
	u.CreatedAt = db.now().UTC()
	db.users = append(db.users, &u)

	c := u
	return &c, nil
}

// UpdateTimezone sets the user's timezone.
func (db *DB) UpdateTimezone(ctx context.Context, id int64, timezone string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.ID == id {
			u.Timezone = timezone
			return nil
		}
	}
	return errors.New("user not found")
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.db.now().UTC()
	}
	r.db.sessions[s.Token] = &s
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all sessions expired at now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
			n++
		}
	}
	return n, nil
}
