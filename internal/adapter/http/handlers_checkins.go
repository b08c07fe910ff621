package adapthttp

import (
	"net/http"
	"time"

	"vibracional/internal/domain"
)

func (s *Server) handleCheckins(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	u := userFromContext(r)
	today := domain.DayKey(time.Now(), s.userLocation(u))
	st, err := s.streaks.Status(r.Context(), u.ID, today)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCheckinToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t, release := s.tracker(r)
	defer release()
	writeJSON(w, http.StatusOK, t.ToggleCheckin(r.Context()))
}
