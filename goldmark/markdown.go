// Package goldmark renders finalized assistant turns from markdown to
// ANSI-styled terminal output, using goldmark for parsing and lipgloss for
// styling. GitHub-flavored tables, strikethrough and task lists are
// supported.
package goldmark

import "github.com/fwojciec/rill"

const defaultWidth = 80

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs, quotes and list items are word-wrapped to width. Code blocks
// are rendered verbatim without reflow.
func Render(source string, width int, theme rill.Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = defaultWidth
	}
	return newRenderer(theme, width).render([]byte(source))
}
