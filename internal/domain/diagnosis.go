package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Archetype is the outcome of the diagnosis quiz.
type Archetype string

// Quiz outcomes.
const (
	ArchetypeFiscal    Archetype = "FISCAL"
	ArchetypeArquiteto Archetype = "ARQUITETO"
	ArchetypeTurista   Archetype = "TURISTA"
	ArchetypeMontanha  Archetype = "MONTANHA"
)

// ErrInvalidAnswer indicates a quiz answer outside A-D or an empty answer sheet.
var ErrInvalidAnswer = errors.New("invalid diagnosis answer")

// Option ids in tie-break priority order.
var diagnosisPriority = []string{"A", "D", "B", "C"}

var diagnosisArchetypes = map[string]Archetype{
	"A": ArchetypeFiscal,
	"B": ArchetypeArquiteto,
	"C": ArchetypeTurista,
	"D": ArchetypeMontanha,
}

// ScoreDiagnosis tallies the chosen option ids and returns the archetype with
// the most votes. Ties go to the earlier option in A, D, B, C order.
func ScoreDiagnosis(answers []string) (Archetype, error) {
	if len(answers) == 0 {
		return "", fmt.Errorf("%w: no answers", ErrInvalidAnswer)
	}
	counts := make(map[string]int, 4)
	for _, a := range answers {
		if _, ok := diagnosisArchetypes[a]; !ok {
			return "", fmt.Errorf("%w: %q", ErrInvalidAnswer, a)
		}
		counts[a]++
	}

	winner := diagnosisPriority[0]
	for _, opt := range diagnosisPriority[1:] {
		if counts[opt] > counts[winner] {
			winner = opt
		}
	}
	return diagnosisArchetypes[winner], nil
}

// Diagnosis is a user's stored quiz result.
type Diagnosis struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Archetype Archetype `json:"archetype"`
	CreatedAt time.Time `json:"createdAt"`
}

// DiagnosisRepository is the port for quiz results; one row per user.
// GetDiagnosis returns nil, nil when the user has none.
type DiagnosisRepository interface {
	SaveDiagnosis(ctx context.Context, d Diagnosis) (*Diagnosis, error)
	GetDiagnosis(ctx context.Context, userID int64) (*Diagnosis, error)
	DeleteDiagnosis(ctx context.Context, userID int64) error
}
