package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	adapthttp "vibracional/internal/adapter/http"
	"vibracional/internal/adapter/memory"
	"vibracional/internal/adapter/postgres"
	"vibracional/internal/app"
	"vibracional/internal/config"
	"vibracional/internal/domain"
	"vibracional/internal/logger"
)

// stores bundles the repositories of the selected backend.
type stores struct {
	users     domain.UserRepository
	sessions  domain.SessionRepository
	logs      domain.DailyLogRepository
	checkins  domain.CheckinRepository
	diagnoses domain.DiagnosisRepository
	affirms   domain.AffirmationRepository
	close     func() error
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Store {
	case "memory":
		logger.Warn("using in-memory store; data is lost on exit")
		db := memory.New()
		return &stores{
			users:     db,
			sessions:  db.NewSessionRepo(),
			logs:      db,
			checkins:  db,
			diagnoses: db,
			affirms:   db,
			close:     func() error { return nil },
		}, nil
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		return &stores{
			users:     db,
			sessions:  postgres.NewSessionRepo(db),
			logs:      db,
			checkins:  db,
			diagnoses: db,
			affirms:   db,
			close:     db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func setupOIDC(ctx context.Context, cfg *config.Config) (adapthttp.OIDCConfig, error) {
	if !cfg.OIDCEnabled() {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.OIDCIssuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, fmt.Errorf("oidc provider: %w", err)
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     cfg.OIDCClientID,
			ClientSecret: cfg.OIDCClientSecret,
			RedirectURL:  cfg.OIDCRedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

// ServeCmd runs the HTTP API until interrupted.
type ServeCmd struct{}

// Run starts the server, the background sweeper and waits for a signal.
func (c *ServeCmd) Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	rule, err := cfg.ScoreRule()
	if err != nil {
		return err
	}
	phrases, err := cfg.Affirmations()
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	authSvc := app.NewAuthService(st.users, st.sessions, cfg.SessionTTL)
	progress := app.NewProgressService(st.logs, st.checkins, app.TrackerOptions{
		DefaultScore: cfg.DefaultScore,
		ScoreRule:    rule,
		StoreTimeout: cfg.StoreTimeout,
	})

	oidcConfig, err := setupOIDC(ctx, cfg)
	if err != nil {
		return err
	}

	sched := app.NewScheduler(loc)
	if cfg.SweepInterval > 0 {
		if _, err := sched.ScheduleInterval(cfg.SweepInterval, app.SweepJob(authSvc, progress, cfg.TrackerIdle)); err != nil {
			return err
		}
	}
	sched.Start()
	defer sched.Stop()

	h := adapthttp.New(adapthttp.Services{
		Auth:         authSvc,
		Progress:     progress,
		Streaks:      app.NewStreakService(st.checkins),
		History:      app.NewHistoryService(st.logs, st.checkins),
		Diagnosis:    app.NewDiagnosisService(st.diagnoses),
		Affirmations: app.NewAffirmationService(st.affirms, phrases),
	}, oidcConfig, loc, cfg.WebDir).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "store", cfg.Store, "tz", loc.String(), "sso", oidcConfig.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// MigrateCmd creates or updates the PostgreSQL schema and exits.
type MigrateCmd struct{}

// Run opens the database, which applies pending migrations.
func (c *MigrateCmd) Run(cfg *config.Config) error {
	if cfg.Store != "postgres" {
		return errors.New("migrate requires --store=postgres")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	logger.Info("schema up to date")
	return db.Close()
}

// SweepCmd purges expired sessions once, for use from an external cron.
type SweepCmd struct{}

// Run performs a single sweep.
func (c *SweepCmd) Run(cfg *config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	return app.Sweep(ctx, app.NewAuthService(st.users, st.sessions, cfg.SessionTTL), nil, 0)
}
