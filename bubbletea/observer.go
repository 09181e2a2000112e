package bubbletea

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/rill"
)

// Interface compliance checks.
var (
	_ rill.ChatObserver     = (*Observer)(nil)
	_ rill.DownloadObserver = (*Observer)(nil)
)

// Observer forwards engine callbacks to the TUI as messages. Sends block
// until the TUI takes the message or ctx is done, so callbacks arrive in
// order and a stopped program never wedges a stream.
type Observer struct {
	ctx context.Context
	ch  chan<- tea.Msg
}

// NewObserver creates an Observer sending on ch.
func NewObserver(ctx context.Context, ch chan<- tea.Msg) *Observer {
	return &Observer{ctx: ctx, ch: ch}
}

func (o *Observer) TurnMaterialized(t rill.Turn) {
	o.send(TurnMsg{Turn: t, State: rill.ChatStreaming})
}

func (o *Observer) TurnAppended(t rill.Turn, _ string) {
	o.send(TurnMsg{Turn: t, State: rill.ChatStreaming})
}

func (o *Observer) TurnFinalized(t rill.Turn, state rill.ChatState) {
	o.send(TurnMsg{Turn: t, State: state, Final: true})
}

func (o *Observer) DownloadProgress(model string, p rill.EventProgress) {
	o.send(ProgressMsg{Model: model, Progress: p})
}

func (o *Observer) DownloadFinished(model string, state rill.DownloadState, err error) {
	o.send(DownloadDoneMsg{Model: model, State: state, Err: err})
}

func (o *Observer) send(msg tea.Msg) {
	select {
	case o.ch <- msg:
	case <-o.ctx.Done():
	}
}

// listen waits for the next observer message.
func listen(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
