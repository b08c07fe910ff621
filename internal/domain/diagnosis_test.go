package domain_test

import (
	"errors"
	"testing"

	"vibracional/internal/domain"
)

func TestScoreDiagnosis(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    domain.Archetype
	}{
		{"clear winner B", []string{"B", "B", "A", "B"}, domain.ArchetypeArquiteto},
		{"clear winner C", []string{"C", "C", "C", "D"}, domain.ArchetypeTurista},
		{"tie A and D goes to A", []string{"A", "D", "A", "D"}, domain.ArchetypeFiscal},
		{"tie D and B goes to D", []string{"B", "D", "B", "D"}, domain.ArchetypeMontanha},
		{"tie B and C goes to B", []string{"C", "B", "C", "B"}, domain.ArchetypeArquiteto},
		{"single answer", []string{"D"}, domain.ArchetypeMontanha},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.ScoreDiagnosis(tc.answers)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %s; want %s", got, tc.want)
			}
		})
	}
}

func TestScoreDiagnosis_Invalid(t *testing.T) {
	for _, answers := range [][]string{nil, {"A", "E"}, {""}} {
		if _, err := domain.ScoreDiagnosis(answers); !errors.Is(err, domain.ErrInvalidAnswer) {
			t.Errorf("ScoreDiagnosis(%v): expected ErrInvalidAnswer, got %v", answers, err)
		}
	}
}
