package adapthttp

import (
	"net/http"
)

func (s *Server) handleAffirmation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	u := userFromContext(r)
	a, err := s.affirmations.Today(r.Context(), u.ID, s.userLocation(u))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"affirmation": a})
}

func (s *Server) handleAffirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	u := userFromContext(r)
	a, err := s.affirmations.Affirm(r.Context(), u.ID, s.userLocation(u))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"affirmation": a})
}
