package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/rill"
	bt "github.com/fwojciec/rill/bubbletea"
	rilljson "github.com/fwojciec/rill/json"
	"github.com/spf13/cobra"
)

const progressInterval = 250 * time.Millisecond

func newChatCmd(a *app) *cobra.Command {
	var sessionPath string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := loadSession(sessionPath)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			eng, err := a.engine(ctx, session)
			if err != nil {
				return err
			}
			if err := bt.Run(ctx, bt.New(ctx, eng, rill.DefaultTheme())); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			if session.Len() == 0 {
				return nil
			}
			path := sessionPath
			if path == "" {
				path = defaultSessionPath(session.CreatedAt())
			}
			if err := rilljson.Save(path, session); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			if sessionPath == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Session saved to %s\n", path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionPath, "session", "", "path to session file to resume")
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Stream a single answer to stdout",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx, rill.NewSession(""))
			if err != nil {
				return err
			}
			printer := &answerPrinter{out: cmd.OutOrStdout(), errOut: cmd.ErrOrStderr()}
			return eng.Send(ctx, rill.ChatRequest{Message: strings.Join(args, " ")}, printer)
		},
	}
}

func newPullCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pull <model>",
		Short: "Download a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx, rill.NewSession(""))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := eng.Pull(ctx, args[0], newProgressPrinter(out, progressInterval)); err != nil {
				return err
			}
			models, err := eng.ListModels(ctx)
			if err != nil {
				return err
			}
			printModels(out, models)
			return nil
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <model>",
		Short: "Delete a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx, rill.NewSession(""))
			if err != nil {
				return err
			}
			if err := eng.DeleteModel(ctx, args[0]); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newModelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, err := a.engine(ctx, rill.NewSession(""))
			if err != nil {
				return err
			}
			models, err := eng.ListModels(ctx)
			if err != nil {
				return err
			}
			printModels(cmd.OutOrStdout(), models)
			return nil
		},
	}
}

// loadSession resumes the transcript at path. An empty or missing path
// starts a new session.
func loadSession(path string) (*rill.Session, error) {
	if path == "" {
		return rill.NewSession(""), nil
	}
	session, err := rilljson.Load(path)
	switch {
	case err == nil:
		return session, nil
	case errors.Is(err, fs.ErrNotExist):
		return rill.NewSession(""), nil
	default:
		return nil, fmt.Errorf("load session: %w", err)
	}
}

func defaultSessionPath(created time.Time) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".rill", "sessions", strconv.FormatInt(created.UnixNano(), 10)+".json")
}
