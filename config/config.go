package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

// Default values
const (
	DefaultMinimumEntries = 131072
	DefaultFetchTimeout   = 10 * time.Second
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Environment holds settings read from STATUSLIST_* environment variables.
type Environment struct {
	LogLevel       string        `env:"STATUSLIST_LOG_LEVEL,default=info"`
	LogFormat      string        `env:"STATUSLIST_LOG_FORMAT,default=text"`
	MinimumEntries int           `env:"STATUSLIST_MINIMUM_ENTRIES,default=131072"`
	FetchTimeout   time.Duration `env:"STATUSLIST_FETCH_TIMEOUT,default=10s"`
	Issuer         string        `env:"STATUSLIST_ISSUER"`
}

// Load reads the environment and validates it.
func Load() (*Environment, error) {
	es, err := env.EnvironToEnvSet(os.Environ())
	if err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return LoadFrom(es)
}

// LoadFrom reads settings from an explicit variable set.
func LoadFrom(es env.EnvSet) (*Environment, error) {
	var cfg Environment
	if err := env.Unmarshal(es, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (e *Environment) Validate() error {
	if e.MinimumEntries < 1 {
		return fmt.Errorf("STATUSLIST_MINIMUM_ENTRIES must be a positive integer")
	}
	if e.FetchTimeout <= 0 {
		return fmt.Errorf("STATUSLIST_FETCH_TIMEOUT must be positive")
	}
	if _, err := e.Level(); err != nil {
		return err
	}
	switch strings.ToLower(e.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid STATUSLIST_LOG_FORMAT: %s", e.LogFormat)
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (e *Environment) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid STATUSLIST_LOG_LEVEL: %s", e.LogLevel)
	}
	return level, nil
}

// Logger builds a structured logger writing to w.
func (e *Environment) Logger(w io.Writer) *slog.Logger {
	level, err := e.Level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(e.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
