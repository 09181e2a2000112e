package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/engine"
	"github.com/fwojciec/rill/toml"
	"github.com/spf13/cobra"
)

// app carries the persistent flags and the resources shared by subcommands.
type app struct {
	getenv func(string) string

	configPath string
	provider   string
	baseURL    string
	model      string
	logLevel   string

	cfg     rill.Config
	logger  *slog.Logger
	closers []io.Closer
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{getenv: getenv}
	cmd := &cobra.Command{
		Use:           "rill",
		Short:         "Stream chat replies and model downloads from a backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to config file (default ~/.rill/config.toml)")
	flags.StringVar(&a.provider, "provider", "", "provider: remote, gemini, anthropic")
	flags.StringVar(&a.baseURL, "base-url", "", "backend base URL")
	flags.StringVar(&a.model, "model", "", "model used when a request names none")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(
		newChatCmd(a),
		newAskCmd(a),
		newPullCmd(a),
		newRmCmd(a),
		newModelsCmd(a),
	)
	return cmd
}

// setup loads the config file, applies flag overrides and opens the log.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := toml.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = a.provider
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("model") {
		cfg.Model = a.model
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = a.getenv(toml.EnvGeminiAPIKey)
	}
	if cfg.AnthropicKey == "" {
		cfg.AnthropicKey = a.getenv(toml.EnvAnthropicAPIKey)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	a.cfg = cfg

	logger, closer, err := openLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return err
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	a.logger = logger
	return nil
}

func (a *app) close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// engine builds an engine over session for the configured provider.
func (a *app) engine(ctx context.Context, session *rill.Session) (*engine.Engine, error) {
	chat, models, err := resolveServices(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	return engine.New(session, chat, models,
		engine.WithLogger(a.logger),
		engine.WithAllowedModels(a.cfg.AllowedModels...),
		engine.WithUserID(a.cfg.UserID),
		engine.WithModel(a.cfg.Model),
		engine.WithBufferSize(a.cfg.StreamBuffer),
	), nil
}

// openLogger returns a text logger writing to path at level. An empty path
// discards all records.
func openLogger(path, level string) (*slog.Logger, io.Closer, error) {
	lvl, err := rill.ParseLogLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl})), f, nil
}
