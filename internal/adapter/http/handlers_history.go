package adapthttp

import (
	"net/http"
	"time"

	"vibracional/internal/domain"
)

func (s *Server) handleHistoryDaily(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	u := userFromContext(r)
	loc := s.userLocation(u)
	days := intQuery(r, "days", 30)

	points, err := s.history.Daily(r.Context(), u.ID, loc, days)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	summary, err := s.streaks.Status(r.Context(), u.ID, domain.DayKey(time.Now(), loc))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"days": points,
		"summary": map[string]any{
			"totalCheckins": summary.Total,
			"current":       summary.Current,
			"longest":       summary.Longest,
		},
	})
}
