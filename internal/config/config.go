// Package config loads the client configuration from flags, environment
// variables and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	// apiPrefix is appended to every base URL so callers can point the
	// client at a bare host without caring about the mount path.
	apiPrefix = "/api"

	defaultBaseURL = "http://localhost:5000"
	defaultDBFile  = "session.db"

	envBaseURL      = "PHOTODECK_BASE_URL"
	envDBPath       = "PHOTODECK_DB"
	envChatProvider = "PHOTODECK_CHAT_PROVIDER"
)

// Config holds the resolved client configuration.
type Config struct {
	BaseURL      string      `json:"base_url"`
	DBPath       string      `json:"db_path"`
	LogLevel     string      `json:"log_level"`
	ChatProvider string      `json:"chat_provider,omitempty"`
	Logger       *zap.Logger `json:"-"`
}

// Load resolves the configuration. Explicit flag values win over environment
// variables, which win over .env entries, which win over defaults.
func Load(baseURL, dbPath, logLevel string, logger *zap.Logger) (*Config, error) {
	// godotenv respects existing environment variables, so real env always
	// takes precedence over the .env file.
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, continuing with system environment variables", zap.Error(err))
	} else {
		logger.Info(".env file loaded successfully")
	}

	cfg := &Config{
		LogLevel:     logLevel,
		ChatProvider: os.Getenv(envChatProvider),
		Logger:       logger,
	}

	if baseURL == "" {
		baseURL = os.Getenv(envBaseURL)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	cfg.BaseURL = normalized
	logger.Info("Backend base URL resolved", zap.String("baseURL", cfg.BaseURL))

	if dbPath == "" {
		dbPath = os.Getenv(envDBPath)
	}
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".photodeck", defaultDBFile)
	}
	cfg.DBPath = dbPath

	return cfg, nil
}

// NormalizeBaseURL validates the URL and guarantees it ends with the fixed
// API prefix, with no trailing slash.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	if !strings.HasSuffix(u.Path, apiPrefix) {
		u.Path = strings.TrimRight(u.Path, "/") + apiPrefix
	}
	return u.String(), nil
}
