package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fwojciec/rill"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the rill TUI.
//
// Conversation blocks mirror the engine's session: every TurnMsg and
// ChatDoneMsg re-reads the session, so block contents never depend on the
// order in which observer messages and command results arrive.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	ctx    context.Context
	engine Engine
	theme  rill.Theme
	styles Styles
	msgs   chan tea.Msg
	obs    *Observer

	spinner  spinner.Model
	progress progress.Model

	blocks []MessageBlock
	turns  map[int]*AssistantBlock // keyed by rill.Turn.Index
	synced int                     // session turns already turned into blocks

	chats   int    // Send calls not yet returned
	pulling string // model being downloaded, empty when none
	last    rill.EventProgress
	err     error
	ready   bool
}

// New creates a TUI Model driving eng. ctx bounds every operation the TUI
// starts.
func New(ctx context.Context, eng Engine, theme rill.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message, or /pull, /rm, /models"
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	styles := NewStyles(theme)
	sp.Style = styles.Muted

	popts := []progress.Option{progress.WithoutPercentage()}
	if c := progressColor(theme); c != "" {
		popts = append(popts, progress.WithSolidFill(c))
	}

	msgs := make(chan tea.Msg)
	return Model{
		Input:    ti,
		ctx:      ctx,
		engine:   eng,
		theme:    theme,
		styles:   styles,
		msgs:     msgs,
		obs:      NewObserver(ctx, msgs),
		spinner:  sp,
		progress: progress.New(popts...),
		turns:    make(map[int]*AssistantBlock),
	}
}

// Running reports whether a chat is in flight.
func (m Model) Running() bool { return m.chats > 0 }

// Pulling returns the model being downloaded, or "" when none.
func (m Model) Pulling() string { return m.pulling }

// Err returns the last error, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listen(m.msgs))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TurnMsg:
		m = m.sync()
		if b, ok := m.turns[msg.Turn.Index]; ok {
			b.Set(msg.Turn)
		}
		return m.refresh(), listen(m.msgs)

	case ChatDoneMsg:
		m.chats = max(m.chats-1, 0)
		if msg.Err != nil {
			m.err = msg.Err
			if errors.Is(msg.Err, rill.ErrValidation) {
				m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
			}
		}
		m = m.sync()
		return m.refresh(), nil

	case ProgressMsg:
		m.pulling = msg.Model
		m.last = msg.Progress
		return m, listen(m.msgs)

	case DownloadDoneMsg:
		if msg.Model == m.pulling {
			m.pulling = ""
			m.last = rill.EventProgress{}
		}
		return m, listen(m.msgs)

	case PullDoneMsg:
		if msg.Model == m.pulling && !errors.Is(msg.Err, rill.ErrAborted) {
			m.pulling = ""
			m.last = rill.EventProgress{}
		}
		switch {
		case msg.Err == nil:
			m = m.notice(fmt.Sprintf("Pulled %s", msg.Model), m.styles.Success)
			return m.refresh(), m.listModels()
		case errors.Is(msg.Err, rill.ErrAborted):
			m = m.notice(fmt.Sprintf("Stopped watching %s", msg.Model), m.styles.Muted)
		default:
			m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
		}
		return m.refresh(), nil

	case DeleteDoneMsg:
		if msg.Err != nil {
			m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
		} else {
			m = m.notice(fmt.Sprintf("Deleted %s", msg.Model), m.styles.Success)
		}
		return m.refresh(), nil

	case ModelsMsg:
		if msg.Err != nil {
			m.blocks = append(m.blocks, NewErrorBlock(msg.Err, m.styles))
		} else {
			m = m.notice(formatModels(msg.Models), m.styles.Muted)
		}
		return m.refresh(), nil

	case spinner.TickMsg:
		if !m.Running() && m.pulling == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	if m.pulling != "" {
		b.WriteString(m.progressLine())
		b.WriteString("\n")
	}
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	const (
		inputHeight    = 1
		statusHeight   = 1
		progressHeight = 1
		newlines       = 3
	)
	vpHeight := max(msg.Height-inputHeight-statusHeight-progressHeight-newlines, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
		m = m.sync()
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	m.progress.Width = max(msg.Width/3, 10)
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.engine.Cancel()
		m.engine.AbandonPull()
		return m, tea.Quit

	case tea.KeyEsc:
		req, ok := m.engine.Cancel()
		if ok && strings.TrimSpace(m.Input.Value()) == "" {
			m.Input.SetValue(req.Message)
			m.Input.CursorEnd()
		}
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		m.Input.SetValue("")
		m.err = nil
		if strings.HasPrefix(text, "/") {
			return m.command(text)
		}
		return m.send(text)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) send(text string) (tea.Model, tea.Cmd) {
	wasIdle := !m.Running() && m.pulling == ""
	m.chats++
	eng, ctx, obs := m.engine, m.ctx, m.obs
	cmds := []tea.Cmd{func() tea.Msg {
		return ChatDoneMsg{Err: eng.Send(ctx, rill.ChatRequest{Message: text}, obs)}
	}}
	if wasIdle {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) command(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	name, args := fields[0], fields[1:]
	switch {
	case name == "/models" && len(args) == 0:
		return m, m.listModels()
	case name == "/pull" && len(args) == 1:
		wasIdle := !m.Running() && m.pulling == ""
		model := args[0]
		m.pulling = model
		m.last = rill.EventProgress{}
		eng, ctx, obs := m.engine, m.ctx, m.obs
		cmds := []tea.Cmd{func() tea.Msg {
			return PullDoneMsg{Model: model, Err: eng.Pull(ctx, model, obs)}
		}}
		if wasIdle {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)
	case name == "/rm" && len(args) == 1:
		model := args[0]
		eng, ctx := m.engine, m.ctx
		return m, func() tea.Msg {
			return DeleteDoneMsg{Model: model, Err: eng.DeleteModel(ctx, model)}
		}
	case name == "/stop" && len(args) == 0:
		m.engine.AbandonPull()
		return m, nil
	}
	m.blocks = append(m.blocks, NewErrorBlock(fmt.Errorf("unknown command: %s", text), m.styles))
	return m.refresh(), nil
}

func (m Model) listModels() tea.Cmd {
	eng, ctx := m.engine, m.ctx
	return func() tea.Msg {
		models, err := eng.ListModels(ctx)
		return ModelsMsg{Models: models, Err: err}
	}
}

// sync creates blocks for session turns added since the last call and
// refreshes assistant blocks that were still streaming.
func (m Model) sync() Model {
	if !m.ready {
		return m
	}
	session := m.engine.Session()
	for _, b := range m.turns {
		if b.Complete() {
			continue
		}
		if t, ok := session.Turn(b.Index()); ok {
			b.Set(t)
		}
	}
	for ; m.synced < session.Len(); m.synced++ {
		t, ok := session.Turn(m.synced)
		if !ok {
			break
		}
		switch t.Role {
		case rill.RoleUser:
			m.blocks = append(m.blocks, NewUserMessageBlock(t, m.styles))
		case rill.RoleAssistant:
			b := NewAssistantBlock(t, m.theme, m.styles)
			m.turns[t.Index] = b
			m.blocks = append(m.blocks, b)
		}
	}
	return m
}

func (m Model) notice(text string, style lipgloss.Style) Model {
	m.blocks = append(m.blocks, NewNoticeBlock(text, style))
	return m
}

func (m Model) refresh() Model {
	if !m.ready {
		return m
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) renderContent() string {
	var b strings.Builder
	for i, block := range m.blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(block.View(m.Viewport.Width))
	}
	return b.String()
}

func (m Model) statusLine() string {
	var s string
	switch {
	case m.err != nil:
		return m.styles.Error.Render(runewidth.Truncate(fmt.Sprintf("Error: %v", m.err), m.Viewport.Width, "…"))
	case m.Running():
		s = m.spinner.View() + " Generating... Esc to cancel"
	default:
		s = "Enter to send, Esc to cancel, Ctrl+C to quit"
	}
	return m.styles.Muted.Render(runewidth.Truncate(s, m.Viewport.Width, "…"))
}

func (m Model) progressLine() string {
	label := m.pulling
	if m.last.Status != "" {
		label += " " + m.last.Status
	}
	if m.last.Total > 0 {
		label += fmt.Sprintf(" %s/%s", humanize.Bytes(uint64(m.last.Completed)), humanize.Bytes(uint64(m.last.Total)))
	}
	bar := m.progress.ViewAs(m.last.Percent())
	width := max(m.Viewport.Width-lipgloss.Width(bar)-1, 0)
	return bar + " " + m.styles.Muted.Render(runewidth.Truncate(label, width, "…"))
}

func formatModels(models []rill.Model) string {
	if len(models) == 0 {
		return "No models available"
	}
	var b strings.Builder
	for i, mdl := range models {
		if i > 0 {
			b.WriteString("\n")
		}
		mark := " "
		if mdl.Downloaded {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %s", mark, mdl.Name)
		if mdl.Size > 0 {
			fmt.Fprintf(&b, " (%s)", humanize.Bytes(uint64(mdl.Size)))
		}
		if mdl.Description != "" {
			fmt.Fprintf(&b, " %s", mdl.Description)
		}
	}
	return b.String()
}
