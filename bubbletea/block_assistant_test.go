package bubbletea_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/rill"
	bt "github.com/fwojciec/rill/bubbletea"
	"github.com/fwojciec/rill/goldmark"
	"github.com/stretchr/testify/assert"
)

func newAssistantBlock(content string) *bt.AssistantBlock {
	theme := rill.DefaultTheme()
	return bt.NewAssistantBlock(rill.Turn{Index: 1, Role: rill.RoleAssistant, Content: content}, theme, bt.NewStyles(theme))
}

func TestAssistantBlock_View(t *testing.T) {
	t.Parallel()

	t.Run("renders markdown", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("hello **world**")
		view := block.View(80)
		assert.Contains(t, view, "hello")
		assert.Contains(t, view, "world")
		assert.NotContains(t, view, "**")
	})

	t.Run("set accumulates content", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("hello ")
		block.Set(rill.Turn{Index: 1, Content: "hello world"})
		assert.Contains(t, block.View(80), "hello world")
	})

	t.Run("streaming turn without content shows placeholder", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "…", newAssistantBlock("").View(80))
	})

	t.Run("finalized paragraph stays while trailing text streams", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("first paragraph\n\ntrailing")
		view := block.View(80)
		assert.Contains(t, view, "first paragraph")
		assert.Contains(t, view, "trailing")
	})

	t.Run("width change re-renders cached finalized content", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("word1 word2 word3 word4 word5 word6\n\ntail")
		narrow := block.View(20)
		wide := block.View(80)
		assert.NotEqual(t, strings.Count(narrow, "\n"), strings.Count(wide, "\n"))
	})

	t.Run("content ending at paragraph boundary matches full render", func(t *testing.T) {
		t.Parallel()
		theme := rill.DefaultTheme()
		block := newAssistantBlock("complete paragraph\n\n")
		assert.Equal(t,
			strings.TrimRight(goldmark.Render("complete paragraph", 80, theme), "\n"),
			strings.TrimRight(block.View(80), "\n"),
		)
	})

	t.Run("unclosed fenced code block renders safely", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("```go\nfmt.Println(\"x\")")
		view := block.View(80)
		assert.Contains(t, view, "fmt.Println")
		assert.NotContains(t, view, "```")
	})

	t.Run("blank line inside code fence does not split finalization", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("text\n\n```go\nfunc() {\n\ncode")
		view := block.View(80)
		assert.Contains(t, view, "code")
		assert.Contains(t, view, "text")
	})

	t.Run("trimmed content resets the cache", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("alpha\n\nbeta  ")
		block.Set(rill.Turn{Index: 1, Content: "gamma", Complete: true, Cancelled: true})
		view := block.View(80)
		assert.NotContains(t, view, "alpha")
		assert.Contains(t, view, "gamma")
		assert.Contains(t, view, "[cancelled]")
	})

	t.Run("cancellation notice renders alone", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("")
		block.Set(rill.Turn{Index: 1, Content: rill.CancellationNotice, Complete: true, Cancelled: true})
		assert.Equal(t, rill.CancellationNotice, block.View(80))
	})

	t.Run("failed turn shows partial content and error", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("partial")
		block.Set(rill.Turn{Index: 1, Content: "partial", Complete: true, Err: "model crashed"})
		view := block.View(80)
		assert.Contains(t, view, "partial")
		assert.Contains(t, view, "Error: model crashed")
	})

	t.Run("failed turn without content shows only error", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("")
		block.Set(rill.Turn{Index: 1, Content: "refused", Complete: true, Err: "refused"})
		assert.Equal(t, "Error: refused", block.View(80))
	})

	t.Run("updates after finalization are ignored", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("done")
		block.Set(rill.Turn{Index: 1, Content: "done", Complete: true})
		block.Set(rill.Turn{Index: 1, Content: "done and more"})
		assert.True(t, block.Complete())
		assert.NotContains(t, block.View(80), "more")
	})

	t.Run("escape sequences are stripped", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("\x1b[2Jsafe\x1b]0;title\x07 text")
		view := block.View(80)
		assert.Contains(t, view, "safe text")
		assert.NotContains(t, view, "\x1b[2J")
		assert.NotContains(t, view, "title")
	})

	t.Run("zero width renders gracefully", func(t *testing.T) {
		t.Parallel()
		block := newAssistantBlock("hello world")
		assert.NotPanics(t, func() { block.View(0) })
	})
}
