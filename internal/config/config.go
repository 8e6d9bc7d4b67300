package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Manager holds the validated runtime configuration, loaded once from the
// environment at startup.
type Manager struct {
	// Server
	Host string
	Port int

	// Backend
	OllamaBaseURL         string
	DefaultModel          string
	RequestTimeout        time.Duration
	ConnectTimeout        time.Duration
	ResponseHeaderTimeout time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int

	// Persistence
	DatabaseDSN      string
	RedisDSN         string
	LogRetentionDays int

	// Model catalog
	ModelCatalogTTL  time.Duration
	ModelAliasesFile string

	// HTTP surface
	EnableCORS     bool
	AllowedOrigins []string
	EnableGzip     bool

	// Logging
	LogLevel  string
	LogFormat string
}

// NewManager loads configuration from the environment. A .env file in the
// working directory is honored when present.
func NewManager() (*Manager, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	m := &Manager{
		Host:                  envString("HOST", "0.0.0.0"),
		Port:                  envInt("PORT", 8088),
		OllamaBaseURL:         envString("OLLAMA_BASE_URL", "http://localhost:11434"),
		DefaultModel:          envString("DEFAULT_MODEL", ""),
		RequestTimeout:        envDuration("REQUEST_TIMEOUT", 300*time.Second),
		ConnectTimeout:        envDuration("CONNECT_TIMEOUT", 10*time.Second),
		ResponseHeaderTimeout: envDuration("RESPONSE_HEADER_TIMEOUT", 60*time.Second),
		MaxIdleConns:          envInt("MAX_IDLE_CONNS", 100),
		MaxIdleConnsPerHost:   envInt("MAX_IDLE_CONNS_PER_HOST", 20),
		DatabaseDSN:           envString("DATABASE_DSN", "./data/llamabridge.db"),
		RedisDSN:              envString("REDIS_DSN", ""),
		LogRetentionDays:      envInt("LOG_RETENTION_DAYS", 30),
		ModelCatalogTTL:       envDuration("MODEL_CATALOG_TTL", 30*time.Second),
		ModelAliasesFile:      envString("MODEL_ALIASES_FILE", ""),
		EnableCORS:            envBool("ENABLE_CORS", true),
		AllowedOrigins:        envStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableGzip:            envBool("ENABLE_GZIP", true),
		LogLevel:              envString("LOG_LEVEL", "info"),
		LogFormat:             envString("LOG_FORMAT", "text"),
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the loaded configuration for values the gateway cannot
// run with.
func (m *Manager) Validate() error {
	if m.Port < 1 || m.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", m.Port)
	}
	parsed, err := url.Parse(m.OllamaBaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid OLLAMA_BASE_URL: %q", m.OllamaBaseURL)
	}
	if m.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if m.ConnectTimeout <= 0 {
		return fmt.Errorf("CONNECT_TIMEOUT must be positive")
	}
	if m.LogRetentionDays < 0 {
		return fmt.Errorf("LOG_RETENTION_DAYS must not be negative")
	}
	return nil
}

// ListenAddr returns the host:port the HTTP server binds.
func (m *Manager) ListenAddr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

func envString(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func envInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": value}).Warn("Invalid integer env value, using default")
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": value}).Warn("Invalid boolean env value, using default")
		return fallback
	}
	return parsed
}

// envDuration accepts Go duration strings ("90s", "5m") and, for
// compatibility with older deployments, bare integers meaning seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	trimmed := strings.TrimSpace(value)
	if seconds, err := strconv.Atoi(trimmed); err == nil {
		return time.Duration(seconds) * time.Second
	}
	parsed, err := time.ParseDuration(trimmed)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": value}).Warn("Invalid duration env value, using default")
		return fallback
	}
	return parsed
}

func envStringSlice(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
