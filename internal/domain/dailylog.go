package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// TaskKey identifies one of the fixed daily practice tasks.
type TaskKey string

// Daily practice tasks.
const (
	TaskAudio      TaskKey = "audio"
	TaskWrite      TaskKey = "write"
	TaskCheck      TaskKey = "check"
	TaskMeditation TaskKey = "meditation"
)

// DefaultEmotionalScore is the score shown before anything is recorded for the day.
const DefaultEmotionalScore = 50

var (
	// ErrUnknownTask indicates a task key outside the fixed set.
	ErrUnknownTask = errors.New("unknown task")
	// ErrScoreOutOfRange indicates a score rejected by the configured ScoreRule.
	ErrScoreOutOfRange = errors.New("emotional score out of range")
)

// TaskKeys returns the fixed task set in display order.
func TaskKeys() []TaskKey {
	return []TaskKey{TaskAudio, TaskWrite, TaskCheck, TaskMeditation}
}

// ParseTaskKey validates s against the fixed task set.
func ParseTaskKey(s string) (TaskKey, error) {
	for _, k := range TaskKeys() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTask, s)
}

// Tasks maps each task key to its completion flag.
type Tasks map[TaskKey]bool

// NewTasks returns a task map with every task unchecked.
func NewTasks() Tasks {
	t := make(Tasks, 4)
	for _, k := range TaskKeys() {
		t[k] = false
	}
	return t
}

// Clone returns an independent copy that always holds every task key.
func (t Tasks) Clone() Tasks {
	out := NewTasks()
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Done counts completed tasks.
func (t Tasks) Done() int {
	n := 0
	for _, k := range TaskKeys() {
		if t[k] {
			n++
		}
	}
	return n
}

// DailyLog is the per-user, per-day practice record.
type DailyLog struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"userId"`
	Day            string    `json:"date"`
	Tasks          Tasks     `json:"tasks"`
	EmotionalScore float64   `json:"emotionalScore"`
	IsCompleted    bool      `json:"isCompleted"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ScoreRule bounds the emotional score. Nil bounds are unchecked.
type ScoreRule struct {
	Min *float64
	Max *float64
}

// Validate reports whether score satisfies the rule.
func (r ScoreRule) Validate(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return fmt.Errorf("%w: %v", ErrScoreOutOfRange, score)
	}
	if r.Min != nil && score < *r.Min {
		return fmt.Errorf("%w: %v < %v", ErrScoreOutOfRange, score, *r.Min)
	}
	if r.Max != nil && score > *r.Max {
		return fmt.Errorf("%w: %v > %v", ErrScoreOutOfRange, score, *r.Max)
	}
	return nil
}

// DailyLogRepository is the port for daily log persistence.
// GetLog returns nil, nil when no row exists for the day.
type DailyLogRepository interface {
	GetLog(ctx context.Context, userID int64, day string) (*DailyLog, error)
	UpsertLog(ctx context.Context, log DailyLog) (*DailyLog, error)
	ListLogs(ctx context.Context, userID int64, fromDay, toDay string) ([]DailyLog, error)
}
