package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(env.EnvSet{})
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultLogFormat, cfg.LogFormat)
	assert.Equal(t, DefaultMinimumEntries, cfg.MinimumEntries)
	assert.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)
	assert.Empty(t, cfg.Issuer)
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(env.EnvSet{
		"STATUSLIST_LOG_LEVEL":       "debug",
		"STATUSLIST_LOG_FORMAT":      "json",
		"STATUSLIST_MINIMUM_ENTRIES": "1024",
		"STATUSLIST_FETCH_TIMEOUT":   "3s",
		"STATUSLIST_ISSUER":          "did:example:issuer",
	})
	require.NoError(t, err)

	assert.Equal(t, 1024, cfg.MinimumEntries)
	assert.Equal(t, 3*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "did:example:issuer", cfg.Issuer)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadFromInvalid(t *testing.T) {
	tests := []struct {
		name     string
		es       env.EnvSet
		errorMsg string
	}{
		{name: "zero minimum", es: env.EnvSet{"STATUSLIST_MINIMUM_ENTRIES": "0"}, errorMsg: "STATUSLIST_MINIMUM_ENTRIES"},
		{name: "non-numeric minimum", es: env.EnvSet{"STATUSLIST_MINIMUM_ENTRIES": "many"}, errorMsg: "failed to unmarshal environment variables"},
		{name: "negative timeout", es: env.EnvSet{"STATUSLIST_FETCH_TIMEOUT": "-1s"}, errorMsg: "STATUSLIST_FETCH_TIMEOUT"},
		{name: "unknown level", es: env.EnvSet{"STATUSLIST_LOG_LEVEL": "loud"}, errorMsg: "STATUSLIST_LOG_LEVEL"},
		{name: "unknown format", es: env.EnvSet{"STATUSLIST_LOG_FORMAT": "xml"}, errorMsg: "STATUSLIST_LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.es)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLogger(t *testing.T) {
	cfg := &Environment{LogLevel: "warn", LogFormat: "json"}

	var buf bytes.Buffer
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "id", "list-1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"id":"list-1"`)
}
