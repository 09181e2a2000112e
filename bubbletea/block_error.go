package bubbletea

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	_ MessageBlock = (*ErrorBlock)(nil)
	_ MessageBlock = (*NoticeBlock)(nil)
)

// ErrorBlock renders an error message.
type ErrorBlock struct {
	err    error
	styles Styles
}

// NewErrorBlock creates an ErrorBlock.
func NewErrorBlock(err error, styles Styles) *ErrorBlock {
	return &ErrorBlock{err: err, styles: styles}
}

func (b *ErrorBlock) View(width int) string {
	content := b.styles.Error.Render(fmt.Sprintf("Error: %v", b.err))
	return lipgloss.NewStyle().Width(width).Render(content)
}

// NoticeBlock renders the outcome of a command, such as a finished download
// or the model list.
type NoticeBlock struct {
	text  string
	style lipgloss.Style
}

// NewNoticeBlock creates a NoticeBlock rendered with style.
func NewNoticeBlock(text string, style lipgloss.Style) *NoticeBlock {
	return &NoticeBlock{text: text, style: style}
}

func (b *NoticeBlock) View(width int) string {
	return lipgloss.NewStyle().Width(width).Render(b.style.Render(b.text))
}
