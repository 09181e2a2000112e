package bubbletea_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/fwojciec/rill"
	bt "github.com/fwojciec/rill/bubbletea"
	"github.com/fwojciec/rill/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	m := bt.New(context.Background(), newEngine(rill.NewSession(""), stream(), nil), rill.DefaultTheme())

	assert.False(t, m.Running())
	assert.Empty(t, m.Pulling())
	assert.NoError(t, m.Err())
	assert.Equal(t, "Initializing...", m.View())
}

func TestModel_Update(t *testing.T) {
	t.Parallel()

	t.Run("window size sizes viewport", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))

		assert.Equal(t, 80, m.Viewport.Width)
		assert.Equal(t, 18, m.Viewport.Height) // 24 - input - status - progress - 3 newlines

		m = updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
		assert.Equal(t, 120, m.Viewport.Width)
		assert.Equal(t, 34, m.Viewport.Height)
	})

	t.Run("restored session renders on init", func(t *testing.T) {
		t.Parallel()
		session := rill.RestoreSession("s-1", []rill.Turn{
			{ID: "a", Role: rill.RoleUser, Content: "hello there", Complete: true},
			{ID: "b", Role: rill.RoleAssistant, Content: "Hi! How can I help?", Complete: true},
			{ID: "c", Role: rill.RoleUser, Content: "never mind", Complete: true},
			{ID: "d", Role: rill.RoleAssistant, Content: rill.CancellationNotice, Complete: true, Cancelled: true},
		}, time.Time{}, time.Time{})

		m := initModel(t, newEngine(session, stream(), nil))

		content := bt.RenderContent(m)
		assert.Contains(t, content, "> hello there")
		assert.Contains(t, content, "How can I help?")
		assert.Contains(t, content, "> never mind")
		assert.Contains(t, content, rill.CancellationNotice)
	})

	t.Run("unknown command shows error", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))
		m.Input.SetValue("/bogus arg")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		assert.Contains(t, bt.RenderContent(m), "unknown command: /bogus arg")
		assert.Empty(t, m.Input.Value())
		assert.False(t, m.Running())
	})

	t.Run("enter on empty input does nothing", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))
		m.Input.SetValue("   ")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		assert.Nil(t, cmd)
		assert.False(t, updated.(bt.Model).Running())
	})

	t.Run("enter starts a chat", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))
		m.Input.SetValue("hi")

		updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

		require.NotNil(t, cmd)
		model := updated.(bt.Model)
		assert.True(t, model.Running())
		assert.Empty(t, model.Input.Value())
		assert.Contains(t, model.View(), "Generating")
	})

	t.Run("escape without chat keeps input", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))
		m.Input.SetValue("draft")

		m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyEsc})

		assert.Equal(t, "draft", m.Input.Value())
	})

	t.Run("chat done with validation error shows error block", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))

		m = updateModel(t, m, bt.ChatDoneMsg{Err: rill.ErrValidation})

		assert.ErrorIs(t, m.Err(), rill.ErrValidation)
		assert.Contains(t, bt.RenderContent(m), "Error: validation error")
		assert.Contains(t, m.View(), "Error: validation error")
	})

	t.Run("progress shows bar and byte counts", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))

		m = updateModel(t, m, bt.ProgressMsg{
			Model:    "llama3.2:3b",
			Progress: rill.EventProgress{Status: "pulling manifest", Total: 2000, Completed: 1000},
		})

		assert.Equal(t, "llama3.2:3b", m.Pulling())
		view := m.View()
		assert.Contains(t, view, "llama3.2:3b pulling manifest")
		assert.Contains(t, view, "1.0 kB/2.0 kB")

		m = updateModel(t, m, bt.DownloadDoneMsg{Model: "llama3.2:3b", State: rill.DownloadSucceeded})
		assert.Empty(t, m.Pulling())
		assert.NotContains(t, m.View(), "pulling manifest")
	})

	t.Run("model list notice", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))

		m = updateModel(t, m, bt.ModelsMsg{Models: []rill.Model{
			{Name: "llama3.2:3b", Size: 2_000_000_000, Downloaded: true, Description: "Meta Llama"},
			{Name: "llava:7b"},
		}})

		content := bt.RenderContent(m)
		assert.Contains(t, content, "* llama3.2:3b (2.0 GB) Meta Llama")
		assert.Contains(t, content, "llava:7b")
	})

	t.Run("abandoned pull is a notice not an error", func(t *testing.T) {
		t.Parallel()
		m := initModel(t, newEngine(rill.NewSession(""), stream(), nil))

		m = updateModel(t, m, bt.PullDoneMsg{Model: "m", Err: rill.ErrAborted})

		content := bt.RenderContent(m)
		assert.Contains(t, content, "Stopped watching m")
		assert.NotContains(t, content, "Error")
	})
}

func TestModel_Teatest(t *testing.T) {
	t.Parallel()

	t.Run("chat streams into the conversation", func(t *testing.T) {
		t.Parallel()
		session := rill.NewSession("")
		eng := newEngine(session, stream(
			`data: {"content":"Hello!","session_id":"s-1"}`,
			`data: {"done":true,"session_id":"s-1"}`,
		), nil)
		m := bt.New(t.Context(), eng, rill.DefaultTheme())

		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Type("hi")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Hello!")) &&
				bytes.Contains(out, []byte("Enter to send"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.False(t, final.Running())
		assert.NoError(t, final.Err())
		assert.Equal(t, 2, session.Len())
		assert.Equal(t, "s-1", session.ID())
	})

	t.Run("escape cancels and restores input", func(t *testing.T) {
		t.Parallel()
		submitted := make(chan struct{})
		chat := &mock.ChatService{
			SubmitChatFn: func(context.Context, rill.ChatRequest) (io.ReadCloser, error) {
				pr, _ := io.Pipe()
				close(submitted)
				return pr, nil
			},
		}
		session := rill.NewSession("")
		m := bt.New(t.Context(), newEngine(session, chat, nil), rill.DefaultTheme())

		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Type("slow question")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})
		<-submitted
		tm.Send(tea.KeyMsg{Type: tea.KeyEsc})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("cancelled."))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.Equal(t, "slow question", final.Input.Value())
		assert.NoError(t, final.Err())
		turn, ok := session.Turn(1)
		require.True(t, ok)
		assert.True(t, turn.Cancelled)
		assert.Equal(t, rill.CancellationNotice, turn.Content)
	})

	t.Run("failed chat shows error", func(t *testing.T) {
		t.Parallel()
		session := rill.NewSession("")
		eng := newEngine(session, stream(
			`data: {"content":"par"}`,
			`data: {"error":"model crashed"}`,
		), nil)
		m := bt.New(t.Context(), eng, rill.DefaultTheme())

		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Type("hi")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("crashed"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
		turn, ok := session.Turn(1)
		require.True(t, ok)
		assert.True(t, turn.Failed())
		assert.Equal(t, "par", turn.Content)
		assert.Equal(t, "model crashed", turn.Err)
	})

	t.Run("pull reports success and refreshes models", func(t *testing.T) {
		t.Parallel()
		models := &mock.ModelService{
			PullModelFn: func(_ context.Context, name string) (io.ReadCloser, error) {
				assert.Equal(t, "llama3.2:3b", name)
				return io.NopCloser(strings.NewReader(
					"data: {\"status\":\"pulling manifest\"}\n\n" +
						"data: {\"status\":\"downloading\",\"digest\":\"sha256:1\",\"total\":100,\"completed\":50}\n\n" +
						"data: {\"status\":\"success\"}\n\n",
				)), nil
			},
			ListModelsFn: func(context.Context) ([]rill.Model, error) {
				return []rill.Model{{Name: "llama3.2:3b", Downloaded: true, Description: "Meta"}}, nil
			},
		}
		m := bt.New(t.Context(), newEngine(rill.NewSession(""), stream(), models), rill.DefaultTheme())

		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Type("/pull llama3.2:3b")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Pulled")) && bytes.Contains(out, []byte("Meta"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})

		fm := tm.FinalModel(t, teatest.WithFinalTimeout(5*time.Second))
		final, ok := fm.(bt.Model)
		require.True(t, ok)
		assert.Empty(t, final.Pulling())
	})

	t.Run("rm deletes model", func(t *testing.T) {
		t.Parallel()
		deleted := make(chan string, 1)
		models := &mock.ModelService{
			DeleteModelFn: func(_ context.Context, name string) error {
				deleted <- name
				return nil
			},
		}
		m := bt.New(t.Context(), newEngine(rill.NewSession(""), stream(), models), rill.DefaultTheme())

		tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(80, 24))

		tm.Type("/rm gemma2:2b")
		tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

		teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
			return bytes.Contains(out, []byte("Deleted"))
		}, teatest.WithDuration(5*time.Second))

		tm.Send(tea.KeyMsg{Type: tea.KeyCtrlC})
		tm.WaitFinished(t, teatest.WithFinalTimeout(5*time.Second))
		assert.Equal(t, "gemma2:2b", <-deleted)
	})
}
