// Package bubbletea provides a Bubble Tea TUI that renders a chat session
// while the engine streams into it.
package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/rill"
)

// Engine is the subset of the session engine the TUI drives.
type Engine interface {
	Session() *rill.Session
	Send(ctx context.Context, req rill.ChatRequest, observer rill.ChatObserver) error
	Cancel() (rill.ChatRequest, bool)
	Pull(ctx context.Context, model string, observer rill.DownloadObserver) error
	AbandonPull() bool
	DeleteModel(ctx context.Context, model string) error
	ListModels(ctx context.Context) ([]rill.Model, error)
}

// Run creates and runs the Bubble Tea TUI program. It blocks until the program
// exits. The context is used for graceful shutdown: when cancelled, the
// program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// TurnMsg carries a copy of a turn the engine created or changed.
type TurnMsg struct {
	Turn  rill.Turn
	Final bool
	State rill.ChatState
}

// ProgressMsg carries one download progress report.
type ProgressMsg struct {
	Model    string
	Progress rill.EventProgress
}

// DownloadDoneMsg reports that a download reached a terminal state.
type DownloadDoneMsg struct {
	Model string
	State rill.DownloadState
	Err   error
}

// ChatDoneMsg signals that a Send call returned.
type ChatDoneMsg struct {
	Err error
}

// PullDoneMsg signals that a Pull call returned.
type PullDoneMsg struct {
	Model string
	Err   error
}

// DeleteDoneMsg signals that a model deletion finished.
type DeleteDoneMsg struct {
	Model string
	Err   error
}

// ModelsMsg carries the model catalogue.
type ModelsMsg struct {
	Models []rill.Model
	Err    error
}
