// Package toml loads [rill.Config] from TOML files.
package toml

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fwojciec/rill"
)

// Environment variables that fill the API keys the file leaves empty.
// Load does not read them; callers apply them after flag overrides.
const (
	EnvGeminiAPIKey    = "GEMINI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// DefaultPath returns ~/.rill/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("toml: %w", err)
	}
	return filepath.Join(home, ".rill", "config.toml"), nil
}

// Load reads the configuration at path over [rill.DefaultConfig]. An empty
// path means [DefaultPath], which may be absent. Unknown keys are rejected.
func Load(path string) (rill.Config, error) {
	cfg := rill.DefaultConfig()
	optional := path == ""
	if optional {
		p, err := DefaultPath()
		if err != nil {
			return rill.Config{}, err
		}
		path = p
	}

	md, err := toml.DecodeFile(expandHome(path), &cfg)
	switch {
	case err == nil:
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return rill.Config{}, fmt.Errorf("toml: %s: unknown keys %s: %w", path, strings.Join(keys, ", "), rill.ErrValidation)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
		cfg = rill.DefaultConfig()
	default:
		return rill.Config{}, fmt.Errorf("toml: %w", err)
	}

	cfg.LogFile = expandHome(cfg.LogFile)
	if err := cfg.Validate(); err != nil {
		return rill.Config{}, fmt.Errorf("toml: %s: %w", path, err)
	}
	return cfg, nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
