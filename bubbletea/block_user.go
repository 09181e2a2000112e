package bubbletea

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/rill"
)

var _ MessageBlock = (*UserMessageBlock)(nil)

// UserMessageBlock renders a user turn with a "> " prefix.
type UserMessageBlock struct {
	text        string
	attachments int
	styles      Styles
}

// NewUserMessageBlock creates a UserMessageBlock for t.
func NewUserMessageBlock(t rill.Turn, styles Styles) *UserMessageBlock {
	return &UserMessageBlock{text: t.Content, attachments: len(t.Attachments), styles: styles}
}

func (b *UserMessageBlock) View(width int) string {
	content := b.styles.User.Render("> ") + b.text
	if b.attachments > 0 {
		noun := "attachment"
		if b.attachments > 1 {
			noun += "s"
		}
		content += " " + b.styles.Muted.Render(fmt.Sprintf("[%d %s]", b.attachments, noun))
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}
