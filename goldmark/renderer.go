package goldmark

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/rill"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	codeGutter  = "│ "
	quoteGutter = "▎ "
	minWrap     = 10
)

type renderer struct {
	width  int
	source []byte

	bold      lipgloss.Style
	italic    lipgloss.Style
	strike    lipgloss.Style
	code      lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
}

func newRenderer(theme rill.Theme, width int) *renderer {
	return &renderer{
		width:     width,
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		strike:    lipgloss.NewStyle().Strikethrough(true),
		code:      lipgloss.NewStyle().Foreground(ansiColor(theme.Assistant)),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte) string {
	r.source = source
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(source))
	return strings.TrimRight(strings.Join(r.blocks(doc, r.width), "\n\n"), "\n")
}

// blocks renders each block child of node to its own string, wrapped to
// width.
func (r *renderer) blocks(node ast.Node, width int) []string {
	var out []string
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		if s := r.block(c, width); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (r *renderer) block(node ast.Node, width int) string {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return wrap(r.inline(n), width)
	case *ast.Heading:
		prefix := ""
		if n.Level > 2 {
			prefix = strings.Repeat("#", n.Level) + " "
		}
		return wrap(r.heading.Render(prefix+r.inline(n)), width)
	case *ast.FencedCodeBlock:
		return r.codeBlock(n, string(n.Language(r.source)))
	case *ast.CodeBlock:
		return r.codeBlock(n, "")
	case *ast.Blockquote:
		inner := strings.Join(r.blocks(n, max(width-len([]rune(quoteGutter)), minWrap)), "\n\n")
		return prefixLines(inner, r.muted.Render(quoteGutter), r.muted.Render(quoteGutter))
	case *ast.List:
		return r.list(n, width)
	case *ast.ThematicBreak:
		return r.muted.Render(strings.Repeat("─", min(width, defaultWidth)))
	case *extast.Table:
		return r.table(n)
	case *ast.HTMLBlock:
		var b strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(r.source))
		}
		return strings.TrimRight(b.String(), "\n")
	default:
		return strings.Join(r.blocks(n, width), "\n\n")
	}
}

func (r *renderer) codeBlock(node ast.Node, lang string) string {
	var lines []string
	if lang != "" {
		lines = append(lines, r.muted.Render(lang))
	}
	gutter := r.muted.Render(codeGutter)
	segs := node.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		line := strings.TrimRight(string(seg.Value(r.source)), "\n")
		lines = append(lines, gutter+r.code.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (r *renderer) list(node *ast.List, width int) string {
	var items []string
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		inner := r.blocks(c, max(width-len(marker), minWrap))
		sep := "\n"
		if !node.IsTight {
			sep = "\n\n"
		}
		items = append(items, prefixLines(strings.Join(inner, sep), marker, strings.Repeat(" ", len(marker))))
	}
	if node.IsTight {
		return strings.Join(items, "\n")
	}
	return strings.Join(items, "\n\n")
}

// table renders a GFM table with columns padded to their widest cell.
// Tables are not wrapped.
func (r *renderer) table(node *extast.Table) string {
	var rows [][]string
	for row := node.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			s := r.inline(cell)
			if _, ok := row.(*extast.TableHeader); ok {
				s = r.bold.Render(s)
			}
			cells = append(cells, s)
		}
		rows = append(rows, cells)
	}

	widths := make([]int, len(node.Alignments))
	for _, cells := range rows {
		for i, c := range cells {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}

	sep := r.muted.Render(" │ ")
	var out []string
	for ri, cells := range rows {
		padded := make([]string, len(widths))
		for i := range widths {
			var c string
			if i < len(cells) {
				c = cells[i]
			}
			padded[i] = pad(c, widths[i], node.Alignments[i])
		}
		out = append(out, strings.TrimRight(strings.Join(padded, sep), " "))
		if ri == 0 {
			rules := make([]string, len(widths))
			for i, w := range widths {
				rules[i] = strings.Repeat("─", w)
			}
			out = append(out, r.muted.Render(strings.Join(rules, "─┼─")))
		}
	}
	return strings.Join(out, "\n")
}

func (r *renderer) inline(node ast.Node) string {
	var b strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.writeInline(&b, c)
	}
	return b.String()
}

func (r *renderer) writeInline(b *strings.Builder, node ast.Node) {
	switch n := node.(type) {
	case *ast.Text:
		b.Write(n.Segment.Value(r.source))
		switch {
		case n.HardLineBreak():
			b.WriteByte('\n')
		case n.SoftLineBreak():
			b.WriteByte(' ')
		}
	case *ast.String:
		b.Write(n.Value)
	case *ast.Emphasis:
		if n.Level == 1 {
			b.WriteString(r.italic.Render(r.inline(n)))
		} else {
			b.WriteString(r.bold.Render(r.inline(n)))
		}
	case *extast.Strikethrough:
		b.WriteString(r.strike.Render(r.inline(n)))
	case *extast.TaskCheckBox:
		if n.IsChecked {
			b.WriteString("[x] ")
		} else {
			b.WriteString("[ ] ")
		}
	case *ast.CodeSpan:
		b.WriteString(r.code.Render(r.inline(n)))
	case *ast.Link:
		b.WriteString(r.underline.Render(r.inline(n)))
		b.WriteString(" " + r.muted.Render("("+string(n.Destination)+")"))
	case *ast.AutoLink:
		b.WriteString(r.underline.Render(string(n.URL(r.source))))
	case *ast.Image:
		b.WriteString(r.muted.Render("[image: " + r.inline(n) + "]"))
	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			b.Write(seg.Value(r.source))
		}
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			r.writeInline(b, c)
		}
	}
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

// prefixLines prepends first to the first line of s and rest to every other.
func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if i == 0 {
			lines[i] = first + l
		} else {
			lines[i] = rest + l
		}
	}
	return strings.Join(lines, "\n")
}

func pad(s string, width int, align extast.Alignment) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case extast.AlignRight:
		return strings.Repeat(" ", gap) + s
	case extast.AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	default:
		return s + strings.Repeat(" ", gap)
	}
}
