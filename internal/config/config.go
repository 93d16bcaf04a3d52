package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported inference providers for the reference backend.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Defaults for the remote inference backend.
const (
	DefaultBackendURL  = "http://66.114.112.70"
	DefaultBackendPort = 22186
	DefaultBackendPath = "/generate"
	DefaultFixedModel  = "nemotron"
)

// BackendConfig locates the inference endpoint the proxy forwards to.
type BackendConfig struct {
	BaseURL string
	Port    int
	Path    string
}

// URL joins base URL, port and path into the backend endpoint.
func (b BackendConfig) URL() string {
	path := b.Path
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return fmt.Sprintf("%s:%d%s", strings.TrimRight(b.BaseURL, "/"), b.Port, path)
}

// ProviderConfig selects the LLM used by the reference backend.
type ProviderConfig struct {
	Provider string
	Model    string

	OllamaHost string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	AnthropicAPIKey string

	AWSRegion string
}

// Config holds all configuration values.
type Config struct {
	// Proxy -> backend
	Backend    BackendConfig
	FixedModel string

	// Proxy server
	ServerPort string
	ModelsFile string

	// CLI -> proxy
	ProxyURL      string
	ClientTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level

	// Reference backend
	BackendPort string
	Provider    ProviderConfig

	// Warnings collected while loading; logged once a logger exists.
	Warnings []string
}

// Load reads configuration from environment variables.
// Missing backend settings fall back to defaults and are reported in Warnings.
func Load() Config {
	var warnings []string

	baseURL, ok := lookupEnv("GEPETTO_API_URL", "NEXT_PUBLIC_API_URL")
	if !ok {
		baseURL = DefaultBackendURL
		warnings = append(warnings, fmt.Sprintf("GEPETTO_API_URL not set, using default %s", DefaultBackendURL))
	}

	port := DefaultBackendPort
	if raw, ok := lookupEnv("GEPETTO_API_PORT", "NEXT_PUBLIC_API_PORT"); !ok {
		warnings = append(warnings, fmt.Sprintf("GEPETTO_API_PORT not set, using default %d", DefaultBackendPort))
	} else if p, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil || p <= 0 || p > 65535 {
		warnings = append(warnings, fmt.Sprintf("invalid GEPETTO_API_PORT %q, using default %d", raw, DefaultBackendPort))
	} else {
		port = p
	}

	path, ok := lookupEnv("GEPETTO_API_ENDPOINT", "NEXT_PUBLIC_API_ENDPOINT")
	if !ok {
		path = DefaultBackendPath
		warnings = append(warnings, fmt.Sprintf("GEPETTO_API_ENDPOINT not set, using default %s", DefaultBackendPath))
	}

	timeout, err := time.ParseDuration(getEnv("GEPETTO_CLIENT_TIMEOUT", "0s"))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("invalid GEPETTO_CLIENT_TIMEOUT: %v", err))
		timeout = 0
	}

	return Config{
		Backend: BackendConfig{
			BaseURL: baseURL,
			Port:    port,
			Path:    path,
		},
		FixedModel: getEnv("GEPETTO_FIXED_MODEL", DefaultFixedModel),

		ServerPort: getEnv("GEPETTO_SERVER_PORT", "3000"),
		ModelsFile: getEnv("GEPETTO_MODELS_FILE", ""),

		ProxyURL:      getEnv("GEPETTO_PROXY_URL", "http://localhost:3000"),
		ClientTimeout: timeout,

		LogFile:  getEnv("GEPETTO_LOG_FILE", "/tmp/gepetto.log"),
		LogLevel: parseLogLevel(getEnv("GEPETTO_LOG_LEVEL", "INFO")),

		BackendPort: getEnv("GEPETTO_BACKEND_PORT", strconv.Itoa(DefaultBackendPort)),
		Provider: ProviderConfig{
			Provider:        strings.ToLower(getEnv("GEPETTO_LLM_PROVIDER", ProviderOllama)),
			Model:           getEnv("GEPETTO_LLM_MODEL", "nemotron-mini"),
			OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			AWSRegion:       getEnv("AWS_REGION", ""),
		},

		Warnings: warnings,
	}
}

// LogWarnings reports configuration fallbacks collected by Load.
func (c Config) LogWarnings(logger *slog.Logger) {
	for _, w := range c.Warnings {
		logger.Warn("configuration fallback", "detail", w)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// lookupEnv returns the first non-empty value among keys.
func lookupEnv(keys ...string) (string, bool) {
	for _, k := range keys {
		if val := os.Getenv(k); val != "" {
			return val, true
		}
	}
	return "", false
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
