// Command rill is a terminal client for a streaming chat backend.
//
// Usage:
//
//	rill chat [--session file]   interactive chat
//	rill ask <prompt>            one-shot streamed answer
//	rill pull <model>            download a model
//	rill rm <model>              delete a model
//	rill models                  list models
//
// Persistent flags override values from ~/.rill/config.toml:
//
//	--config string     Path to config file
//	--provider string   Provider: remote, gemini, anthropic
//	--base-url string   Backend base URL (remote provider)
//	--model string      Model used when a request names none
//	--log-level string  debug, info, warn or error
//
// GEMINI_API_KEY and ANTHROPIC_API_KEY fill API keys the file leaves empty.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rill: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Interrupt cancels the active operation; commands decide how to report it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd(os.Getenv).ExecuteContext(ctx)
}
