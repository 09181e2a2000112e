package bubbletea_test

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/rill"
	bt "github.com/fwojciec/rill/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestUserMessageBlock_View(t *testing.T) {
	t.Parallel()

	t.Run("renders text with prompt prefix", func(t *testing.T) {
		t.Parallel()
		styles := bt.NewStyles(rill.DefaultTheme())
		block := bt.NewUserMessageBlock(rill.Turn{Content: "hello world"}, styles)
		assert.Contains(t, block.View(80), "> hello world")
	})

	t.Run("pads each line to full width", func(t *testing.T) {
		t.Parallel()
		styles := bt.NewStyles(rill.DefaultTheme())
		block := bt.NewUserMessageBlock(rill.Turn{Content: "test"}, styles)
		for _, line := range strings.Split(block.View(40), "\n") {
			assert.Equal(t, 40, lipgloss.Width(line))
		}
	})

	t.Run("counts attachments", func(t *testing.T) {
		t.Parallel()
		styles := bt.NewStyles(rill.DefaultTheme())
		one := bt.NewUserMessageBlock(rill.Turn{Content: "look", Attachments: []rill.Attachment{{Data: "QQ=="}}}, styles)
		two := bt.NewUserMessageBlock(rill.Turn{Content: "look", Attachments: []rill.Attachment{{Data: "QQ=="}, {Data: "Qg=="}}}, styles)
		assert.Contains(t, one.View(80), "[1 attachment]")
		assert.Contains(t, two.View(80), "[2 attachments]")
	})

	t.Run("wraps long text to width", func(t *testing.T) {
		t.Parallel()
		styles := bt.NewStyles(rill.DefaultTheme())
		block := bt.NewUserMessageBlock(rill.Turn{Content: "short words that keep going and going beyond the viewport width easily"}, styles)
		view := block.View(30)
		assert.Contains(t, view, "easily")
		assert.Greater(t, len(strings.Split(view, "\n")), 1)
	})
}
