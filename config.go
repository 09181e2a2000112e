package rill

import (
	"fmt"
	"log/slog"
	"strings"
)

// Provider names accepted in Config.Provider.
const (
	ProviderRemote    = "remote"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config holds user configuration. Zero values are filled by DefaultConfig.
type Config struct {
	Provider      string   `toml:"provider"`
	BaseURL       string   `toml:"base_url"`
	Model         string   `toml:"model"`
	UserID        int      `toml:"user_id"`
	GeminiAPIKey  string   `toml:"gemini_api_key"`
	AnthropicKey  string   `toml:"anthropic_api_key"`
	AllowedModels []string `toml:"allowed_models"`
	LogFile       string   `toml:"log_file"`
	LogLevel      string   `toml:"log_level"`
	StreamBuffer  int      `toml:"stream_buffer"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Provider:     ProviderRemote,
		BaseURL:      "http://localhost:8000",
		UserID:       1,
		LogLevel:     "info",
		StreamBuffer: 4096,
	}
}

// Validate checks the configuration for values no component can use.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderRemote:
		if c.BaseURL == "" {
			return fmt.Errorf("base_url is required for the remote provider: %w", ErrValidation)
		}
	case ProviderGemini, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown provider %q: %w", c.Provider, ErrValidation)
	}
	if c.StreamBuffer < 0 {
		return fmt.Errorf("stream_buffer must be non-negative, got %d: %w", c.StreamBuffer, ErrValidation)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps a level name to a slog level. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q: %w", s, ErrValidation)
	}
}
