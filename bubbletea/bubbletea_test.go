package bubbletea_test

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/rill"
	bt "github.com/fwojciec/rill/bubbletea"
	"github.com/fwojciec/rill/engine"
	"github.com/fwojciec/rill/mock"
	"github.com/stretchr/testify/require"
)

// newEngine creates an engine over session backed by the given doubles.
func newEngine(session *rill.Session, chat *mock.ChatService, models *mock.ModelService) *engine.Engine {
	if models == nil {
		return engine.New(session, chat, nil)
	}
	return engine.New(session, chat, models)
}

// initModel creates a model and sends a WindowSizeMsg to initialize the viewport.
func initModel(t *testing.T, eng bt.Engine) bt.Model {
	t.Helper()
	m := bt.New(context.Background(), eng, rill.DefaultTheme())
	return updateModel(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
}

// updateModel sends a message and returns the updated Model.
func updateModel(t *testing.T, m bt.Model, msg tea.Msg) bt.Model {
	t.Helper()
	updated, _ := m.Update(msg)
	model, ok := updated.(bt.Model)
	require.True(t, ok)
	return model
}

// stream returns a chat service replying with the given lines.
func stream(lines ...string) *mock.ChatService {
	return &mock.ChatService{
		SubmitChatFn: func(context.Context, rill.ChatRequest) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(strings.Join(lines, "\n\n") + "\n\n")), nil
		},
	}
}
