package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/rill"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style
	Accent    lipgloss.Style
	UserBg    lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t rill.Theme) Styles {
	return Styles{
		User:      lipgloss.NewStyle().Foreground(ansiColor(t.User)).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(ansiColor(t.Assistant)),
		Error:     lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:   lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:     lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		UserBg:    lipgloss.NewStyle().BorderStyle(lipgloss.ThickBorder()).BorderLeft(true).BorderForeground(ansiColor(t.User)).PaddingLeft(1),
	}
}

// progressColor returns the fill color for the download bar.
func progressColor(t rill.Theme) string {
	if t.Progress < 0 {
		return ""
	}
	return strconv.Itoa(t.Progress)
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
