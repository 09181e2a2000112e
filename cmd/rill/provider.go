package main

import (
	"context"
	"fmt"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/anthropic"
	"github.com/fwojciec/rill/gemini"
	"github.com/fwojciec/rill/remote"
)

// resolveServices constructs the chat and model services for cfg. Only the
// remote backend manages models; the hosted providers return a nil model
// service.
func resolveServices(ctx context.Context, cfg rill.Config) (rill.ChatService, rill.ModelService, error) {
	switch cfg.Provider {
	case rill.ProviderRemote, "":
		client := remote.New(remote.WithBaseURL(cfg.BaseURL))
		return client, client, nil
	case rill.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, nil, fmt.Errorf("GEMINI_API_KEY not set (use gemini_api_key in the config file or the environment variable)")
		}
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, gemini.WithModel(cfg.Model))
		if err != nil {
			return nil, nil, err
		}
		return client, nil, nil
	case rill.ProviderAnthropic:
		if cfg.AnthropicKey == "" {
			return nil, nil, fmt.Errorf("ANTHROPIC_API_KEY not set (use anthropic_api_key in the config file or the environment variable)")
		}
		return anthropic.New(cfg.AnthropicKey, anthropic.WithModel(cfg.Model)), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown provider %q: must be %q, %q or %q", cfg.Provider, rill.ProviderRemote, rill.ProviderGemini, rill.ProviderAnthropic)
	}
}
