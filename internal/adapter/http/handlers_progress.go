package adapthttp

import (
	"net/http"

	"vibracional/internal/app"
	"vibracional/internal/domain"
)

// tracker returns the caller's tracker pinned for the length of the request.
func (s *Server) tracker(r *http.Request) (*app.Tracker, func()) {
	u := userFromContext(r)
	return s.progress.Acquire(u.ID, s.userLocation(u))
}

func (s *Server) handleProgressToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t, release := s.tracker(r)
	defer release()
	writeJSON(w, http.StatusOK, t.LoadToday(r.Context()))
}

func (s *Server) handleProgressTask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Task string `json:"task"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, release := s.tracker(r)
	defer release()
	snap, err := t.ToggleTask(r.Context(), domain.TaskKey(body.Task))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleProgressScore sets the score. Without commit the value stays local,
// as while a slider is dragged.
func (s *Server) handleProgressScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		Score  *float64 `json:"score"`
		Commit bool     `json:"commit"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.Score == nil {
		writeError(w, http.StatusBadRequest, domain.ErrScoreOutOfRange)
		return
	}

	t, release := s.tracker(r)
	defer release()
	var (
		snap app.Snapshot
		err  error
	)
	if body.Commit {
		snap, err = t.SetScoreAndCommit(r.Context(), *body.Score)
	} else {
		snap, err = t.SetScore(*body.Score)
	}
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleProgressScoreCommit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t, release := s.tracker(r)
	defer release()
	writeJSON(w, http.StatusOK, t.CommitScore(r.Context()))
}

func (s *Server) handleProgressComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t, release := s.tracker(r)
	defer release()
	snap, applied := t.CompletePractice(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"applied": applied, "progress": snap})
}

func (s *Server) handleProgressRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	t, release := s.tracker(r)
	defer release()
	writeJSON(w, http.StatusOK, t.Retry(r.Context()))
}
