// Package config loads and validates application configuration from environment
// variables and the TOML session file they point at.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/lipanski/flycheap/internal/domain"
	"github.com/lipanski/flycheap/internal/qpx"
)

// Config holds all configuration values for the watcher process.
// Values are populated by Load from environment variables and the session file.
type Config struct {
	// Port is the TCP port the status API listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins for the
	// status API. Empty by default. Set CORS_ORIGINS to a comma-separated list.
	CORSOrigins []string

	// SessionPath is where the session file was read from. FLYCHEAP_CONFIG,
	// defaults to "config.toml".
	SessionPath string

	// SearchURL is the pricing API endpoint. QPX_SEARCH_URL.
	SearchURL string

	// Timeout bounds a single search call. QPX_TIMEOUT, defaults to 30s.
	Timeout time.Duration

	// Concurrency caps parallel searches within a round. ROUND_CONCURRENCY,
	// defaults to 1.
	Concurrency int

	// NoColor disables colored console output. Set when NO_COLOR is non-empty.
	NoColor bool

	Session Session
}

// Session is what the user wants watched and how much budget it may use.
type Session struct {
	RequestsPerDay int    `toml:"requests_per_day" validate:"gt=0"`
	RequestName    string `toml:"request_name" validate:"required"`
	SaleCountry    string `toml:"sale_country" validate:"required,iso3166_1_alpha2"`
	Email          string `toml:"email" validate:"omitempty,email"`
	GoogleAPIKey   string `toml:"google_api_key" validate:"required"`
	Trips          []Trip `toml:"trips" validate:"required,min=1,dive"`
}

// Trip is one [[trips]] table of the session file.
type Trip struct {
	From  string   `toml:"from" validate:"len=3,alpha"`
	To    string   `toml:"to" validate:"len=3,alpha"`
	Dates []string `toml:"dates" validate:"min=1,dive,datetime=2006-01-02"`
}

// TripSpecs converts the configured trips for the planner. Airport codes are
// upper-cased.
func (s Session) TripSpecs() []domain.TripSpec {
	specs := make([]domain.TripSpec, 0, len(s.Trips))
	for _, t := range s.Trips {
		specs = append(specs, domain.TripSpec{
			From:  strings.ToUpper(t.From),
			To:    strings.ToUpper(t.To),
			Dates: t.Dates,
		})
	}
	return specs
}

// Load reads configuration from environment variables and the session file
// and returns a Config. Validation failures wrap domain.ErrValidation.
func Load() (Config, error) {
	cfg := Config{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: splitCSV(os.Getenv("CORS_ORIGINS")),
		SessionPath: getEnv("FLYCHEAP_CONFIG", "config.toml"),
		SearchURL:   getEnv("QPX_SEARCH_URL", qpx.DefaultSearchURL),
		NoColor:     os.Getenv("NO_COLOR") != "",
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.Timeout, err = time.ParseDuration(getEnv("QPX_TIMEOUT", "30s")); err != nil || cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("%w: QPX_TIMEOUT must be a positive duration", domain.ErrValidation)
	}
	if cfg.Concurrency, err = strconv.Atoi(getEnv("ROUND_CONCURRENCY", "1")); err != nil || cfg.Concurrency < 1 {
		return Config{}, fmt.Errorf("%w: ROUND_CONCURRENCY must be a positive integer", domain.ErrValidation)
	}

	if cfg.Session, err = LoadSession(cfg.SessionPath); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadSession decodes and validates the session file at path. QPX_API_KEY,
// when set, replaces google_api_key.
func LoadSession(path string) (Session, error) {
	var s Session
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return Session{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Session{}, fmt.Errorf("%w: %s: unknown keys: %s", domain.ErrValidation, path, strings.Join(keys, ", "))
	}

	if key := os.Getenv("QPX_API_KEY"); key != "" {
		s.GoogleAPIKey = key
	}

	if err := validator.New().Struct(s); err != nil {
		return Session{}, fmt.Errorf("%w: %s: %s", domain.ErrValidation, path, describe(err))
	}
	return s, nil
}

// describe flattens validator field errors into "Field failed tag" pairs.
func describe(err error) string {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err.Error()
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s failed %s", f.Namespace(), f.Tag()))
	}
	return strings.Join(parts, "; ")
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
