package adapthttp

import (
	"net/http"
)

func (s *Server) handleDiagnosis(w http.ResponseWriter, r *http.Request) {
	u := userFromContext(r)
	switch r.Method {
	case http.MethodGet:
		d, err := s.diagnosis.Get(r.Context(), u.ID)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"diagnosis": d})
	case http.MethodPost:
		var body struct {
			Answers []string `json:"answers"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		d, err := s.diagnosis.Submit(r.Context(), u.ID, body.Answers)
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"diagnosis": d})
	case http.MethodDelete:
		if err := s.diagnosis.Reset(r.Context(), u.ID); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"diagnosis": nil})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
