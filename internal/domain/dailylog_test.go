package domain_test

import (
	"errors"
	"math"
	"testing"

	"vibracional/internal/domain"
)

func TestParseTaskKey(t *testing.T) {
	for _, k := range domain.TaskKeys() {
		got, err := domain.ParseTaskKey(string(k))
		if err != nil || got != k {
			t.Errorf("ParseTaskKey(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := domain.ParseTaskKey("yoga"); !errors.Is(err, domain.ErrUnknownTask) {
		t.Errorf("expected ErrUnknownTask, got %v", err)
	}
}

func TestTasks_CloneFillsMissingKeys(t *testing.T) {
	src := domain.Tasks{domain.TaskWrite: true}
	c := src.Clone()
	if len(c) != 4 {
		t.Fatalf("expected 4 keys, got %d", len(c))
	}
	if !c[domain.TaskWrite] || c[domain.TaskAudio] {
		t.Errorf("unexpected clone: %v", c)
	}
	c[domain.TaskAudio] = true
	if src[domain.TaskAudio] {
		t.Error("clone must not alias the source")
	}
	if c.Done() != 2 {
		t.Errorf("Done() = %d; want 2", c.Done())
	}
}

func TestScoreRule_Validate(t *testing.T) {
	lo, hi := 0.0, 100.0
	bounded := domain.ScoreRule{Min: &lo, Max: &hi}

	tests := []struct {
		name    string
		rule    domain.ScoreRule
		score   float64
		wantErr bool
	}{
		{"unbounded accepts negative", domain.ScoreRule{}, -20, false},
		{"unbounded accepts large", domain.ScoreRule{}, 1000, false},
		{"bounded inside", bounded, 72, false},
		{"bounded at min", bounded, 0, false},
		{"bounded at max", bounded, 100, false},
		{"bounded below", bounded, -1, true},
		{"bounded above", bounded, 101, true},
		{"NaN", domain.ScoreRule{}, math.NaN(), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.rule.Validate(tc.score)
			if tc.wantErr && !errors.Is(err, domain.ErrScoreOutOfRange) {
				t.Fatalf("expected ErrScoreOutOfRange, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
