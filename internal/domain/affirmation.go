package domain

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"
)

// DefaultAffirmations is the phrase library used when none is configured.
var DefaultAffirmations = []string{
	"Eu crio minha realidade.",
	"Eu sou a vibração que desejo atrair.",
	"Minha mente está calma e meu coração está aberto.",
	"Cada dia eu me aproximo dos meus objetivos.",
	"Eu mereço prosperidade e abundância.",
	"Eu confio no processo da vida.",
	"Sou grato por tudo o que tenho e por tudo o que chega.",
}

// DailyAffirmation is the phrase assigned to a user for one day, with the
// number of times it was affirmed.
type DailyAffirmation struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	Day       string    `json:"day"`
	Text      string    `json:"text"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

// PickAffirmation returns the library index drawn for (userID, day). The
// same inputs always give the same index; n must be positive.
func PickAffirmation(n int, userID int64, day string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strconv.FormatInt(userID, 10)))
	_, _ = h.Write([]byte{'|'})
	_, _ = h.Write([]byte(day))
	return int(h.Sum32() % uint32(n))
}

// AffirmationRepository is the port for daily affirmations, one row per
// (user, day). Absent rows are returned as nil, nil.
type AffirmationRepository interface {
	GetAffirmation(ctx context.Context, userID int64, day string) (*DailyAffirmation, error)
	// AssignAffirmation stores a unless the user already has a phrase for
	// a.Day, and returns the stored row either way.
	AssignAffirmation(ctx context.Context, a DailyAffirmation) (*DailyAffirmation, error)
	// IncrementAffirmation adds one to the day's counter atomically.
	IncrementAffirmation(ctx context.Context, userID int64, day string) (*DailyAffirmation, error)
}
