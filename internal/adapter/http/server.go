package adapthttp

import (
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"vibracional/internal/app"
	"vibracional/internal/domain"
)

// OIDCConfig holds the SSO provider settings. A zero value disables SSO.
type OIDCConfig struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
}

// Services groups the application services the HTTP adapter drives.
type Services struct {
	Auth         *app.AuthService
	Progress     *app.ProgressService
	Streaks      *app.StreakService
	History      *app.HistoryService
	Diagnosis    *app.DiagnosisService
	Affirmations *app.AffirmationService
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	authSvc      *app.AuthService
	progress     *app.ProgressService
	streaks      *app.StreakService
	history      *app.HistoryService
	diagnosis    *app.DiagnosisService
	affirmations *app.AffirmationService
	oidcConfig   OIDCConfig
	loc          *time.Location
	webDir       string

	disableAuth bool
	anonymous   *domain.User
}

// New creates a Server wired to the given application services. loc is the
// timezone used for users that have none.
func New(svc Services, oidcConfig OIDCConfig, loc *time.Location, webDir string) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{
		authSvc:      svc.Auth,
		progress:     svc.Progress,
		streaks:      svc.Streaks,
		history:      svc.History,
		diagnosis:    svc.Diagnosis,
		affirmations: svc.Affirmations,
		oidcConfig:   oidcConfig,
		loc:          loc,
		webDir:       webDir,
	}
}

// WithoutAuth skips session checks and serves every request as u.
// Intended for tests.
func (s *Server) WithoutAuth(u *domain.User) *Server {
	s.disableAuth = true
	s.anonymous = u
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	api.HandleFunc("/config", s.handleConfig)

	api.HandleFunc("/auth/register", s.handleRegister)
	api.HandleFunc("/auth/login", s.handleLogin)
	api.HandleFunc("/auth/logout", s.handleLogout)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback)

	protected := http.NewServeMux()
	protected.HandleFunc("/auth/me", s.handleMe)
	protected.HandleFunc("/auth/timezone", s.handleTimezone)

	protected.HandleFunc("/progress/today", s.handleProgressToday)
	protected.HandleFunc("/progress/task", s.handleProgressTask)
	protected.HandleFunc("/progress/score", s.handleProgressScore)
	protected.HandleFunc("/progress/score/commit", s.handleProgressScoreCommit)
	protected.HandleFunc("/progress/complete", s.handleProgressComplete)
	protected.HandleFunc("/progress/retry", s.handleProgressRetry)

	protected.HandleFunc("/checkins", s.handleCheckins)
	protected.HandleFunc("/checkins/toggle", s.handleCheckinToggle)

	protected.HandleFunc("/history/daily", s.handleHistoryDaily)

	protected.HandleFunc("/diagnosis", s.handleDiagnosis)

	protected.HandleFunc("/affirmation", s.handleAffirmation)
	protected.HandleFunc("/affirmation/affirm", s.handleAffirm)

	guarded := s.authMiddleware(protected)
	for _, p := range []string{"/auth/me", "/auth/timezone", "/progress/", "/checkins", "/checkins/", "/history/", "/diagnosis", "/affirmation", "/affirmation/"} {
		api.Handle(p, guarded)
	}

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
