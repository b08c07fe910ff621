package app

import (
	"context"
	"time"

	"vibracional/internal/domain"
)

const maxHistoryDays = 366

// HistoryService encapsulates the calendar and chart views over past days.
type HistoryService struct {
	logs     domain.DailyLogRepository
	checkins domain.CheckinRepository
	now      func() time.Time
}

// NewHistoryService creates a HistoryService backed by the given repositories.
func NewHistoryService(logs domain.DailyLogRepository, checkins domain.CheckinRepository) *HistoryService {
	return &HistoryService{logs: logs, checkins: checkins, now: time.Now}
}

// DayPoint is a single day returned by Daily.
type DayPoint struct {
	Day            string   `json:"day"`
	EmotionalScore *float64 `json:"emotionalScore"`
	TasksDone      int      `json:"tasksDone"`
	Completed      bool     `json:"completed"`
	CheckedIn      bool     `json:"checkedIn"`
}

// Daily returns one point per day for the last days days (oldest first),
// ending today in loc. Days without a log have a nil score.
func (s *HistoryService) Daily(ctx context.Context, userID int64, loc *time.Location, days int) ([]DayPoint, error) {
	if days <= 0 {
		days = 1
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	today := domain.DayKey(s.now(), loc)
	from, err := domain.AddDays(today, -(days - 1))
	if err != nil {
		return nil, err
	}

	logs, err := s.logs.ListLogs(ctx, userID, from, today)
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]domain.DailyLog, len(logs))
	for _, l := range logs {
		byDay[l.Day] = l
	}

	checked, err := s.checkins.ListCheckins(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := domain.NewDaySet(checked)

	points := make([]DayPoint, 0, days)
	day := from
	for i := 0; i < days; i++ {
		p := DayPoint{Day: day, CheckedIn: set.Has(day)}
		if l, ok := byDay[day]; ok {
			score := l.EmotionalScore
			p.EmotionalScore = &score
			p.TasksDone = l.Tasks.Done()
			p.Completed = l.IsCompleted
		}
		points = append(points, p)

		if day, err = domain.AddDays(day, 1); err != nil {
			return nil, err
		}
	}
	return points, nil
}
