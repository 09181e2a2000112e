package toml_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
provider = "remote"
base_url = "http://backend:9000"
model = "qwen2.5:7b"
user_id = 4
allowed_models = ["qwen*:*", "llama3*:*"]
log_level = "debug"
log_file = "/var/log/rill.log"
`)

	cfg, err := toml.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "http://backend:9000", cfg.BaseURL)
	assert.Equal(t, "qwen2.5:7b", cfg.Model)
	assert.Equal(t, 4, cfg.UserID)
	assert.Equal(t, []string{"qwen*:*", "llama3*:*"}, cfg.AllowedModels)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/var/log/rill.log", cfg.LogFile)
	assert.Equal(t, rill.DefaultConfig().StreamBuffer, cfg.StreamBuffer)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "unknown key", content: "colour = \"blue\"\n", want: "unknown keys colour"},
		{name: "unknown provider", content: "provider = \"openai\"\n", want: `unknown provider "openai"`},
		{name: "bad log level", content: "log_level = \"loud\"\n", want: `unknown log level "loud"`},
		{name: "negative buffer", content: "stream_buffer = -1\n", want: "stream_buffer must be non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := toml.Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, rill.ErrValidation)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_SyntaxError(t *testing.T) {
	t.Parallel()
	_, err := toml.Load(writeConfig(t, "provider = \n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, rill.ErrValidation)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Parallel()
	_, err := toml.Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(toml.EnvGeminiAPIKey, "from-env")

	cfg, err := toml.Load("")

	require.NoError(t, err)
	assert.Equal(t, rill.DefaultConfig(), cfg)
}

func TestLoad_DefaultPathExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".rill"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".rill", "config.toml"), []byte(`
provider = "gemini"
gemini_api_key = "file-key"
log_file = "~/.rill/rill.log"
`), 0o600))

	cfg, err := toml.Load("")

	require.NoError(t, err)
	assert.Equal(t, rill.ProviderGemini, cfg.Provider)
	assert.Equal(t, "file-key", cfg.GeminiAPIKey)
	assert.Equal(t, filepath.Join(home, ".rill", "rill.log"), cfg.LogFile)

	path, err := toml.DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".rill", "config.toml"), path)
}
