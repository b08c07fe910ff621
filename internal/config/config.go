// Package config defines runtime settings shared by every command.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"vibracional/internal/domain"
)

// Config keeps runtime settings. Every field maps to a flag and an
// environment variable.
type Config struct {
	Addr        string `name:"addr" env:"ADDR" default:":8080" help:"HTTP listen address."`
	WebDir      string `name:"web-dir" env:"WEB_DIR" default:"web" help:"Directory with the built front-end."`
	Store       string `name:"store" env:"STORE" enum:"postgres,memory" default:"postgres" help:"Persistence backend (postgres, memory)."`
	DatabaseURL string `name:"database-url" env:"DATABASE_URL" help:"PostgreSQL connection string."`

	Timezone     string        `name:"timezone" env:"TIMEZONE" default:"America/Sao_Paulo" help:"Default IANA timezone for users without one."`
	StoreTimeout time.Duration `name:"store-timeout" env:"STORE_TIMEOUT" default:"5s" help:"Timeout for a single progress store call."`
	DefaultScore float64       `name:"default-score" env:"DEFAULT_SCORE" default:"50" help:"Emotional score shown before anything is recorded."`
	ScoreRange   string        `name:"score-range" env:"SCORE_RANGE" help:"Optional MIN:MAX bounds for the emotional score, either side may be empty."`

	AffirmationsFile string `name:"affirmations-file" env:"AFFIRMATIONS_FILE" help:"Optional file with one daily affirmation per line."`

	SessionTTL    time.Duration `name:"session-ttl" env:"SESSION_TTL" default:"24h" help:"Lifetime of a login session."`
	SweepInterval time.Duration `name:"sweep-interval" env:"SWEEP_INTERVAL" default:"1h" help:"How often expired sessions and idle trackers are purged."`
	TrackerIdle   time.Duration `name:"tracker-idle" env:"TRACKER_IDLE" default:"2h" help:"Idle time after which an in-memory progress tracker is dropped."`

	LogLevel string `name:"log-level" env:"LOG_LEVEL" default:"info" help:"Log level (debug, info, warn, error)."`
	LogFile  string `name:"log-file" env:"LOG_FILE" help:"Optional rotated log file."`
	LogJSON  bool   `name:"log-json" env:"LOG_JSON" help:"Emit JSON log lines."`

	OIDCIssuer       string `name:"oidc-issuer" env:"OIDC_ISSUER" help:"OIDC issuer URL; enables SSO when set."`
	OIDCClientID     string `name:"oidc-client-id" env:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `name:"oidc-client-secret" env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `name:"oidc-redirect-url" env:"OIDC_REDIRECT_URL"`
}

// LoadDotEnv loads variables from the given files (".env" when none) into
// the process environment. Missing files are ignored; existing variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Validate is called by the CLI parser after flags are resolved.
func (c *Config) Validate() error {
	if c.Store == "postgres" && strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required for the postgres store")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	rule, err := c.ScoreRule()
	if err != nil {
		return err
	}
	if err := rule.Validate(c.DefaultScore); err != nil {
		return fmt.Errorf("default score: %w", err)
	}
	if _, err := c.Affirmations(); err != nil {
		return err
	}
	if c.StoreTimeout <= 0 {
		return errors.New("store timeout must be positive")
	}
	if c.OIDCIssuer != "" && (c.OIDCClientID == "" || c.OIDCRedirectURL == "") {
		return errors.New("OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required when OIDC_ISSUER is set")
	}
	return nil
}

// Location resolves the default timezone.
func (c *Config) Location() (*time.Location, error) {
	return domain.LoadLocation(c.Timezone)
}

// OIDCEnabled reports whether SSO is configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != ""
}

// ScoreRule parses ScoreRange ("MIN:MAX", "0:", ":100" or empty).
func (c *Config) ScoreRule() (domain.ScoreRule, error) {
	raw := strings.TrimSpace(c.ScoreRange)
	if raw == "" {
		return domain.ScoreRule{}, nil
	}
	lo, hi, ok := strings.Cut(raw, ":")
	if !ok {
		return domain.ScoreRule{}, fmt.Errorf("score range %q: expected MIN:MAX", raw)
	}

	var rule domain.ScoreRule
	if lo = strings.TrimSpace(lo); lo != "" {
		v, err := strconv.ParseFloat(lo, 64)
		if err != nil {
			return domain.ScoreRule{}, fmt.Errorf("score range min: %w", err)
		}
		rule.Min = &v
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		v, err := strconv.ParseFloat(hi, 64)
		if err != nil {
			return domain.ScoreRule{}, fmt.Errorf("score range max: %w", err)
		}
		rule.Max = &v
	}
	if rule.Min != nil && rule.Max != nil && *rule.Min > *rule.Max {
		return domain.ScoreRule{}, fmt.Errorf("score range %q: min above max", raw)
	}
	return rule, nil
}

// Affirmations reads the phrase library from AffirmationsFile. Blank lines
// and lines starting with # are skipped. Without a file it returns nil and
// the built-in library is used.
func (c *Config) Affirmations() ([]string, error) {
	if c.AffirmationsFile == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(c.AffirmationsFile)
	if err != nil {
		return nil, fmt.Errorf("affirmations file: %w", err)
	}
	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("affirmations file %s has no phrases", c.AffirmationsFile)
	}
	return out, nil
}
