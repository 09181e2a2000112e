// Package ansi cleans server-supplied text before it reaches the terminal,
// using charmbracelet/x/ansi to parse escape sequences.
package ansi

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// Sanitize removes escape sequences and control characters from text a
// remote model produced, so streamed content cannot move the cursor, retitle
// the terminal or clear the screen. Tabs and newlines survive; CRLF becomes
// LF and a lone CR overwrites its line from the start, as a terminal would
// show it.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(xansi.Strip(s), "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(s))
	for i, line := range strings.Split(s, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(overwrite(line))
	}
	return b.String()
}

// overwrite drops control characters other than tab from line and applies
// carriage returns: each CR restarts writing at column zero, keeping any
// longer tail of the previous text.
func overwrite(line string) string {
	var (
		buf []rune
		col int
	)
	for _, r := range line {
		switch {
		case r == '\r':
			col = 0
		case r < 0x20 && r != '\t', r == 0x7f:
		case col < len(buf):
			buf[col] = r
			col++
		default:
			buf = append(buf, r)
			col++
		}
	}
	return string(buf)
}
