package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vibracional/internal/domain"
	"vibracional/internal/logger"
)

// ErrStoreUnavailable wraps any failure reaching the progress stores.
var ErrStoreUnavailable = errors.New("progress store unavailable")

// errNotLoaded blocks writes until today's stored row has been read, so a
// failed read never lets defaults overwrite it.
var errNotLoaded = errors.New("daily log not loaded yet")

// SyncState tracks whether a locally edited field reached the store.
type SyncState string

// Sync states.
const (
	SyncClean   SyncState = "clean"
	SyncPending SyncState = "pending"
	SyncDirty   SyncState = "dirty"
)

// Field names a synced part of the daily log.
type Field string

// Synced fields.
const (
	FieldTasks     Field = "tasks"
	FieldScore     Field = "score"
	FieldCompleted Field = "completed"
)

var logFields = []Field{FieldTasks, FieldScore, FieldCompleted}

// Snapshot is the tracker state handed to views.
type Snapshot struct {
	Today          string              `json:"today"`
	LogID          string              `json:"logId,omitempty"`
	Tasks          domain.Tasks        `json:"tasks"`
	EmotionalScore float64             `json:"emotionalScore"`
	IsCompleted    bool                `json:"isCompleted"`
	CheckedIn      bool                `json:"checkedIn"`
	Streak         int                 `json:"streak"`
	Saving         bool                `json:"saving"`
	Sync           map[Field]SyncState `json:"sync"`
	LastError      string              `json:"lastError,omitempty"`
}

// Unsynced reports whether any field is pending or dirty.
func (s Snapshot) Unsynced() bool {
	for _, st := range s.Sync {
		if st != SyncClean {
			return true
		}
	}
	return false
}

// TrackerOptions configures every tracker created by a ProgressService.
type TrackerOptions struct {
	DefaultScore float64
	ScoreRule    domain.ScoreRule
	// StoreTimeout bounds each store call; zero means no extra bound.
	StoreTimeout time.Duration
	Now          func() time.Time
}

func (o TrackerOptions) withDefaults() TrackerOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ProgressService hands out one Tracker per user.
type ProgressService struct {
	logs     domain.DailyLogRepository
	checkins domain.CheckinRepository
	streaks  *StreakService
	opts     TrackerOptions

	mu       sync.Mutex
	trackers map[int64]*Tracker
}

// NewProgressService creates a ProgressService over the given stores.
func NewProgressService(logs domain.DailyLogRepository, checkins domain.CheckinRepository, opts TrackerOptions) *ProgressService {
	return &ProgressService{
		logs:     logs,
		checkins: checkins,
		streaks:  NewStreakService(checkins),
		opts:     opts.withDefaults(),
		trackers: make(map[int64]*Tracker),
	}
}

// Tracker returns the user's tracker, creating it on first use. loc is the
// user's timezone and replaces the previous one when it changed.
func (s *ProgressService) Tracker(userID int64, loc *time.Location) *Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackerLocked(userID, loc)
}

// Acquire is Tracker for callers that run operations on the result. The
// tracker cannot be evicted until release is called.
func (s *ProgressService) Acquire(userID int64, loc *time.Location) (t *Tracker, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t = s.trackerLocked(userID, loc)
	t.mu.Lock()
	t.refs++
	t.mu.Unlock()

	var once sync.Once
	return t, func() {
		once.Do(func() {
			t.mu.Lock()
			t.refs--
			t.lastUsed = t.opts.Now()
			t.mu.Unlock()
		})
	}
}

func (s *ProgressService) trackerLocked(userID int64, loc *time.Location) *Tracker {
	if loc == nil {
		loc = time.Local
	}
	if t, ok := s.trackers[userID]; ok {
		t.setLocation(loc)
		t.mu.Lock()
		t.lastUsed = t.opts.Now()
		t.mu.Unlock()
		return t
	}
	t := newTracker(s.logs, s.checkins, s.streaks, userID, loc, s.opts)
	s.trackers[userID] = t
	return t
}

// Evict drops trackers unused for longer than idle. Trackers that are
// acquired, hold unsynced edits or have an in-flight write are kept.
func (s *ProgressService) Evict(idle time.Duration) int {
	cutoff := s.opts.Now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, t := range s.trackers {
		if t.evictable(cutoff) {
			delete(s.trackers, id)
			n++
		}
	}
	return n
}

// Len returns the number of live trackers.
func (s *ProgressService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trackers)
}

// Tracker holds one user's progress for the current day and keeps it in
// sync with the stores. Store failures never surface as errors: they are
// logged, recorded in the Snapshot and the affected fields turn dirty.
type Tracker struct {
	logs     domain.DailyLogRepository
	checkins domain.CheckinRepository
	streaks  *StreakService
	userID   int64
	opts     TrackerOptions

	// writeMu serializes log writes so the last write always carries the
	// newest local state.
	writeMu sync.Mutex

	mu         sync.Mutex
	loc        *time.Location
	day        string
	loaded     bool
	logID      string
	tasks      domain.Tasks
	score      float64
	completed  bool
	checkedIn  bool
	streak     int
	sync       map[Field]SyncState
	rev        map[Field]uint64
	completing bool
	lastErr    string
	lastUsed   time.Time
	refs       int

	// unloadedFlips records task toggles made before today's row was read.
	// They are replayed on top of the stored tasks once the read succeeds.
	unloadedFlips map[domain.TaskKey]bool
}

func newTracker(logs domain.DailyLogRepository, checkins domain.CheckinRepository, streaks *StreakService, userID int64, loc *time.Location, opts TrackerOptions) *Tracker {
	t := &Tracker{
		logs:     logs,
		checkins: checkins,
		streaks:  streaks,
		userID:   userID,
		opts:     opts.withDefaults(),
		loc:      loc,
	}
	t.resetLocked(domain.DayKey(t.opts.Now(), loc))
	return t
}

// LoadToday reads today's log and checkin state. Fields with local edits
// that have not reached the store keep their local value, except that task
// toggles made before the first successful read are replayed onto the
// stored tasks.
func (t *Tracker) LoadToday(ctx context.Context) Snapshot {
	t.mu.Lock()
	day := t.rolloverLocked()
	t.mu.Unlock()

	sctx, cancel := t.storeContext(ctx)
	defer cancel()

	log, err := t.logs.GetLog(sctx, t.userID, day)

	t.mu.Lock()
	if t.day == day {
		if err != nil {
			t.failLocked("load daily log", err)
		} else {
			wasLoaded := t.loaded
			t.loaded = true
			if log != nil {
				t.logID = log.ID
				switch {
				case !wasLoaded:
					t.tasks = log.Tasks.Clone()
					for k := range t.unloadedFlips {
						t.tasks[k] = !t.tasks[k]
					}
				case t.sync[FieldTasks] == SyncClean:
					t.tasks = log.Tasks.Clone()
				}
				if t.sync[FieldScore] == SyncClean {
					t.score = log.EmotionalScore
				}
				if t.sync[FieldCompleted] == SyncClean {
					t.completed = log.IsCompleted
				}
			}
			t.unloadedFlips = nil
		}
	}
	t.mu.Unlock()

	t.refreshStreak(ctx, day)
	return t.Snapshot()
}

// ToggleTask flips one task and persists the full current state. The only
// error is an unknown task key.
func (t *Tracker) ToggleTask(ctx context.Context, key domain.TaskKey) (Snapshot, error) {
	k, err := domain.ParseTaskKey(string(key))
	if err != nil {
		return t.Snapshot(), err
	}
	t.ensureLoaded(ctx)

	t.mu.Lock()
	t.rolloverLocked()
	t.tasks[k] = !t.tasks[k]
	if !t.loaded {
		if t.unloadedFlips == nil {
			t.unloadedFlips = make(map[domain.TaskKey]bool)
		}
		if t.unloadedFlips[k] {
			delete(t.unloadedFlips, k)
		} else {
			t.unloadedFlips[k] = true
		}
	}
	t.touchLocked(FieldTasks)
	t.mu.Unlock()

	_ = t.persist(ctx)
	return t.Snapshot(), nil
}

// SetScore changes the score locally without writing it, as while a slider
// is being dragged. CommitScore writes it.
func (t *Tracker) SetScore(score float64) (Snapshot, error) {
	if err := t.opts.ScoreRule.Validate(score); err != nil {
		return t.Snapshot(), err
	}
	t.mu.Lock()
	t.rolloverLocked()
	t.score = score
	t.touchLocked(FieldScore)
	t.mu.Unlock()
	return t.Snapshot(), nil
}

// CommitScore persists the current local score along with the other fields.
func (t *Tracker) CommitScore(ctx context.Context) Snapshot {
	t.ensureLoaded(ctx)
	_ = t.persist(ctx)
	return t.Snapshot()
}

// SetScoreAndCommit sets the score and persists it in one step.
func (t *Tracker) SetScoreAndCommit(ctx context.Context, score float64) (Snapshot, error) {
	if err := t.opts.ScoreRule.Validate(score); err != nil {
		return t.Snapshot(), err
	}
	t.ensureLoaded(ctx)
	if _, err := t.SetScore(score); err != nil {
		return t.Snapshot(), err
	}
	return t.CommitScore(ctx), nil
}

// CompletePractice marks today's practice completed, checks the day in and
// refreshes the streak. A call made while another is in flight returns at
// once with applied=false.
func (t *Tracker) CompletePractice(ctx context.Context) (snap Snapshot, applied bool) {
	t.mu.Lock()
	if t.completing {
		snap = t.snapshotLocked()
		t.mu.Unlock()
		return snap, false
	}
	t.completing = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.completing = false
		t.mu.Unlock()
		snap.Saving = false
	}()

	t.ensureLoaded(ctx)

	t.mu.Lock()
	day := t.rolloverLocked()
	t.completed = true
	t.touchLocked(FieldCompleted)
	t.mu.Unlock()

	if err := t.persist(ctx); err != nil {
		return t.Snapshot(), true
	}

	sctx, cancel := t.storeContext(ctx)
	created, err := t.checkins.MarkCheckin(sctx, t.userID, day)
	cancel()
	if err != nil {
		t.mu.Lock()
		t.failLocked("implicit checkin", err)
		t.mu.Unlock()
	} else if created {
		logger.Debug("implicit checkin", "user", t.userID, "day", day)
	}

	t.refreshStreak(ctx, day)
	logger.Info("practice completed", "user", t.userID, "day", day)
	return t.Snapshot(), true
}

// ToggleCheckin flips today's checkin in the store and refreshes the streak.
// Local state only changes once the store has answered.
func (t *Tracker) ToggleCheckin(ctx context.Context) Snapshot {
	t.mu.Lock()
	day := t.rolloverLocked()
	t.mu.Unlock()

	sctx, cancel := t.storeContext(ctx)
	checked, err := t.checkins.ToggleCheckin(sctx, t.userID, day)
	cancel()

	t.mu.Lock()
	if err != nil {
		t.failLocked("toggle checkin", err)
		t.mu.Unlock()
		return t.Snapshot()
	}
	if t.day == day {
		t.checkedIn = checked
	}
	t.mu.Unlock()

	t.refreshStreak(ctx, day)
	return t.Snapshot()
}

// Retry re-reads today's row if that never succeeded, then re-sends the
// current state when any field is dirty.
func (t *Tracker) Retry(ctx context.Context) Snapshot {
	t.ensureLoaded(ctx)

	t.mu.Lock()
	t.rolloverLocked()
	dirty := false
	for _, f := range logFields {
		if t.sync[f] == SyncDirty {
			dirty = true
		}
	}
	t.mu.Unlock()

	if dirty {
		_ = t.persist(ctx)
	}
	return t.Snapshot()
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.snapshotLocked()
}

// persist writes the full current local state. Callers must have already
// applied their local change.
func (t *Tracker) persist(ctx context.Context) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	day := t.rolloverLocked()
	if !t.loaded {
		for _, f := range logFields {
			if t.sync[f] != SyncClean {
				t.sync[f] = SyncDirty
			}
		}
		err := t.failLocked("save daily log", errNotLoaded)
		t.mu.Unlock()
		return err
	}
	entry := domain.DailyLog{
		ID:             t.logID,
		UserID:         t.userID,
		Day:            day,
		Tasks:          t.tasks.Clone(),
		EmotionalScore: t.score,
		IsCompleted:    t.completed,
	}
	revs := make(map[Field]uint64, len(t.rev))
	for f, r := range t.rev {
		revs[f] = r
	}
	t.mu.Unlock()

	sctx, cancel := t.storeContext(ctx)
	saved, err := t.logs.UpsertLog(sctx, entry)
	cancel()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.day != day {
		// The day rolled over mid-write; the new day starts clean.
		return nil
	}
	if err != nil {
		for _, f := range logFields {
			if t.rev[f] == revs[f] && t.sync[f] != SyncClean {
				t.sync[f] = SyncDirty
			}
		}
		return t.failLocked("save daily log", err)
	}

	if saved != nil {
		t.logID = saved.ID
	}
	for _, f := range logFields {
		if t.rev[f] == revs[f] {
			t.sync[f] = SyncClean
		}
	}
	t.lastErr = ""
	return nil
}

func (t *Tracker) refreshStreak(ctx context.Context, day string) {
	sctx, cancel := t.storeContext(ctx)
	defer cancel()

	st, err := t.streaks.Status(sctx, t.userID, day)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.failLocked("load checkins", err)
		return
	}
	if t.day == day {
		t.streak = st.Current
		t.checkedIn = st.CheckedInToday
	}
}

func (t *Tracker) ensureLoaded(ctx context.Context) {
	t.mu.Lock()
	t.rolloverLocked()
	loaded := t.loaded
	t.mu.Unlock()
	if !loaded {
		t.LoadToday(ctx)
	}
}

func (t *Tracker) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.opts.StoreTimeout > 0 {
		return context.WithTimeout(ctx, t.opts.StoreTimeout)
	}
	return context.WithCancel(ctx)
}

func (t *Tracker) setLocation(loc *time.Location) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.loc.String() != loc.String() {
		t.loc = loc
		t.rolloverLocked()
	}
}

func (t *Tracker) evictable(cutoff time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.refs > 0 || t.completing || t.lastUsed.After(cutoff) {
		return false
	}
	for _, st := range t.sync {
		if st != SyncClean {
			return false
		}
	}
	return true
}

// rolloverLocked starts a fresh default day when the calendar day changed.
// Existing rows are never reset; the new day simply has no row yet.
func (t *Tracker) rolloverLocked() string {
	now := t.opts.Now()
	t.lastUsed = now
	today := domain.DayKey(now, t.loc)
	if today != t.day {
		if t.day != "" {
			logger.Debug("day rollover", "user", t.userID, "from", t.day, "to", today)
		}
		t.resetLocked(today)
	}
	return t.day
}

func (t *Tracker) resetLocked(day string) {
	t.day = day
	t.loaded = false
	t.logID = ""
	t.tasks = domain.NewTasks()
	t.score = t.opts.DefaultScore
	t.completed = false
	t.checkedIn = false
	t.streak = 0
	t.lastErr = ""
	t.unloadedFlips = nil
	t.sync = make(map[Field]SyncState, len(logFields))
	t.rev = make(map[Field]uint64, len(logFields))
	for _, f := range logFields {
		t.sync[f] = SyncClean
	}
	t.lastUsed = t.opts.Now()
}

func (t *Tracker) touchLocked(f Field) {
	t.rev[f]++
	t.sync[f] = SyncPending
}

func (t *Tracker) failLocked(op string, err error) error {
	wrapped := fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	t.lastErr = wrapped.Error()
	logger.Warn("progress sync failed", "user", t.userID, "day", t.day, "op", op, "err", err)
	return wrapped
}

func (t *Tracker) snapshotLocked() Snapshot {
	states := make(map[Field]SyncState, len(t.sync))
	for f, st := range t.sync {
		states[f] = st
	}
	return Snapshot{
		Today:          t.day,
		LogID:          t.logID,
		Tasks:          t.tasks.Clone(),
		EmotionalScore: t.score,
		IsCompleted:    t.completed,
		CheckedIn:      t.checkedIn,
		Streak:         t.streak,
		Saving:         t.completing,
		Sync:           states,
		LastError:      t.lastErr,
	}
}
