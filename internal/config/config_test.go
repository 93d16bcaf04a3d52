package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so host settings don't leak into tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEPETTO_API_URL", "NEXT_PUBLIC_API_URL",
		"GEPETTO_API_PORT", "NEXT_PUBLIC_API_PORT",
		"GEPETTO_API_ENDPOINT", "NEXT_PUBLIC_API_ENDPOINT",
		"GEPETTO_FIXED_MODEL", "GEPETTO_CLIENT_TIMEOUT", "GEPETTO_LOG_LEVEL",
		"GEPETTO_LLM_PROVIDER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaultsWarnOnMissingBackend(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, BackendConfig{BaseURL: DefaultBackendURL, Port: DefaultBackendPort, Path: DefaultBackendPath}, cfg.Backend)
	assert.Equal(t, DefaultFixedModel, cfg.FixedModel)
	assert.Equal(t, "http://66.114.112.70:22186/generate", cfg.Backend.URL())
	assert.Equal(t, ProviderOllama, cfg.Provider.Provider)
	assert.Equal(t, time.Duration(0), cfg.ClientTimeout)
	require.Len(t, cfg.Warnings, 3)
	assert.Contains(t, cfg.Warnings[0], "GEPETTO_API_URL")
	assert.Contains(t, cfg.Warnings[1], "GEPETTO_API_PORT")
	assert.Contains(t, cfg.Warnings[2], "GEPETTO_API_ENDPOINT")
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEPETTO_API_URL", "http://inference.local/")
	t.Setenv("GEPETTO_API_PORT", "8080")
	t.Setenv("GEPETTO_API_ENDPOINT", "v1/generate")
	t.Setenv("GEPETTO_FIXED_MODEL", "llama3")
	t.Setenv("GEPETTO_CLIENT_TIMEOUT", "45s")
	t.Setenv("GEPETTO_LLM_PROVIDER", "Anthropic")

	cfg := Load()

	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, "http://inference.local:8080/v1/generate", cfg.Backend.URL())
	assert.Equal(t, "llama3", cfg.FixedModel)
	assert.Equal(t, 45*time.Second, cfg.ClientTimeout)
	assert.Equal(t, ProviderAnthropic, cfg.Provider.Provider)
}

func TestLoadLegacyAliases(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_API_URL", "http://legacy")
	t.Setenv("NEXT_PUBLIC_API_PORT", "9000")
	t.Setenv("NEXT_PUBLIC_API_ENDPOINT", "/gen")

	cfg := Load()

	assert.Empty(t, cfg.Warnings)
	assert.Equal(t, "http://legacy:9000/gen", cfg.Backend.URL())
}

func TestLoadInvalidPortFallsBack(t *testing.T) {
	tests := []string{"abc", "0", "70000", "-1"}

	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GEPETTO_API_PORT", raw)

			cfg := Load()

			assert.Equal(t, DefaultBackendPort, cfg.Backend.Port)
			found := false
			for _, w := range cfg.Warnings {
				if strings.Contains(w, "invalid GEPETTO_API_PORT") {
					found = true
				}
			}
			assert.True(t, found, "expected invalid port warning in %v", cfg.Warnings)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestLogWarnings(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	Config{Warnings: []string{"GEPETTO_API_URL not set"}}.LogWarnings(logger)

	assert.Contains(t, stderr.String(), "level=WARN")
	assert.Contains(t, stderr.String(), "GEPETTO_API_URL not set")
	assert.Contains(t, file.String(), `"level":"WARN"`)
}

func TestSetupLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gepetto.log")

	logger, cleanup := SetupLogger(path, slog.LevelInfo, "test")
	logger.Info("hello", "key", "value")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestSetupFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.log")

	logger, cleanup := SetupFileLogger(path, slog.LevelWarn, "cli")
	logger.Info("dropped")
	logger.Error("generate failed", "error", "boom")
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"msg":"generate failed"`)
	assert.Contains(t, string(data), `"component":"cli"`)

	logger, cleanup = SetupFileLogger("", slog.LevelInfo, "cli")
	logger.Info("discarded")
	assert.NoError(t, cleanup())
}

func TestLoadDotEnv(t *testing.T) {
	t.Setenv("GEPETTO_DOTENV_PRESET", "kept")
	t.Cleanup(func() { _ = os.Unsetenv("GEPETTO_DOTENV_NEW") })
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GEPETTO_DOTENV_PRESET=overridden\nGEPETTO_DOTENV_NEW=loaded\n"), 0o644))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))

	assert.Equal(t, "kept", os.Getenv("GEPETTO_DOTENV_PRESET"))
	assert.Equal(t, "loaded", os.Getenv("GEPETTO_DOTENV_NEW"))
}
