package bubbletea

import (
	"strings"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/ansi"
	"github.com/fwojciec/rill/goldmark"
)

var _ MessageBlock = (*AssistantBlock)(nil)

// AssistantBlock renders an assistant turn with markdown formatting while it
// streams. Paragraphs closed by a blank line are rendered once per width and
// cached; only the trailing paragraph is re-rendered as deltas arrive.
type AssistantBlock struct {
	turn   rill.Turn
	theme  rill.Theme
	styles Styles

	// finalizedRaw is the stable prefix ending at the last blank line outside
	// a code fence.
	finalizedRaw     string
	finalizedByWidth map[int]string
}

// NewAssistantBlock creates a block for the assistant turn t.
func NewAssistantBlock(t rill.Turn, theme rill.Theme, styles Styles) *AssistantBlock {
	b := &AssistantBlock{
		theme:            theme,
		styles:           styles,
		finalizedByWidth: make(map[int]string),
	}
	b.Set(t)
	return b
}

// Index returns the session index of the rendered turn.
func (b *AssistantBlock) Index() int { return b.turn.Index }

// Complete reports whether the rendered turn is finalized.
func (b *AssistantBlock) Complete() bool { return b.turn.Complete }

// Set replaces the rendered turn. Updates arriving after the turn was
// finalized are ignored unless they are final themselves. Escape sequences
// in the content are stripped.
func (b *AssistantBlock) Set(t rill.Turn) {
	if b.turn.Complete && !t.Complete {
		return
	}
	t.Content = ansi.Sanitize(t.Content)
	if !strings.HasPrefix(t.Content, b.finalizedRaw) {
		b.finalizedRaw = ""
		clear(b.finalizedByWidth)
	}
	b.turn = t
	b.promoteFinalized()
}

func (b *AssistantBlock) View(width int) string {
	body := b.body(width)
	switch {
	case b.turn.Failed():
		if strings.TrimSpace(b.turn.Content) == "" || b.turn.Content == b.turn.Err {
			return b.styles.Error.Render("Error: " + b.turn.Err)
		}
		return body + "\n" + b.styles.Error.Render("Error: "+b.turn.Err)
	case b.turn.Cancelled:
		if b.turn.Content == rill.CancellationNotice {
			return b.styles.Muted.Render(b.turn.Content)
		}
		return body + "\n" + b.styles.Muted.Render("[cancelled]")
	case !b.turn.Complete && body == "":
		return b.styles.Muted.Render("…")
	}
	return body
}

func (b *AssistantBlock) body(width int) string {
	finalized := b.renderFinalized(width)
	trailing := b.trailingRaw()
	if hasUnclosedFence(trailing) {
		trailing += "\n```"
	}
	if trailing == "" {
		return finalized
	}
	rendered := goldmark.Render(trailing, width, b.theme)
	if strings.TrimSpace(rendered) == "" {
		return finalized
	}
	if finalized == "" {
		return rendered
	}
	return strings.TrimRight(finalized, "\n") + "\n\n" + strings.TrimLeft(rendered, "\n")
}

// promoteFinalized moves the split point to the last blank line whose prefix
// has every code fence closed.
func (b *AssistantBlock) promoteFinalized() {
	raw := b.turn.Content
	for end := len(raw); ; {
		idx := strings.LastIndex(raw[:end], "\n\n")
		if idx <= 0 {
			return
		}
		candidate := raw[:idx]
		if !hasUnclosedFence(candidate) {
			if candidate != b.finalizedRaw {
				b.finalizedRaw = candidate
				clear(b.finalizedByWidth)
			}
			return
		}
		end = idx
	}
}

func (b *AssistantBlock) renderFinalized(width int) string {
	if width <= 0 || b.finalizedRaw == "" {
		return ""
	}
	if cached, ok := b.finalizedByWidth[width]; ok {
		return cached
	}
	rendered := goldmark.Render(b.finalizedRaw, width, b.theme)
	b.finalizedByWidth[width] = rendered
	return rendered
}

func (b *AssistantBlock) trailingRaw() string {
	if b.finalizedRaw == "" {
		return b.turn.Content
	}
	return strings.TrimPrefix(b.turn.Content, b.finalizedRaw+"\n\n")
}

// hasUnclosedFence counts "```" occurrences. Triple backticks inside inline
// code spans are miscounted.
func hasUnclosedFence(s string) bool {
	return strings.Count(s, "```")%2 == 1
}
