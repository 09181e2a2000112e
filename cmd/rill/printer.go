package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/ansi"
	"golang.org/x/time/rate"
)

var (
	mutedColor   = color.New(color.Faint)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
	statusColor  = color.New(color.FgCyan)
)

// Interface compliance checks.
var (
	_ rill.ChatObserver     = (*answerPrinter)(nil)
	_ rill.DownloadObserver = (*progressPrinter)(nil)
)

// answerPrinter streams an assistant turn to out as it arrives.
type answerPrinter struct {
	out     io.Writer
	errOut  io.Writer
	printed int // bytes of turn content already written
}

func (p *answerPrinter) TurnMaterialized(t rill.Turn) {
	p.write(t.Content)
}

func (p *answerPrinter) TurnAppended(_ rill.Turn, delta string) {
	p.write(delta)
}

func (p *answerPrinter) TurnFinalized(t rill.Turn, state rill.ChatState) {
	switch state {
	case rill.ChatCancelled:
		if t.Content == rill.CancellationNotice {
			if p.printed == 0 {
				mutedColor.Fprint(p.out, t.Content)
			}
			fmt.Fprintln(p.out)
			return
		}
		fmt.Fprintln(p.out)
		mutedColor.Fprintln(p.out, "[cancelled]")
	case rill.ChatFailed:
		if p.printed > 0 {
			fmt.Fprintln(p.out)
		}
		errorColor.Fprintf(p.errOut, "error: %s\n", t.Err)
	default:
		if p.printed > 0 && !strings.HasSuffix(t.Content, "\n") {
			fmt.Fprintln(p.out)
		}
	}
}

func (p *answerPrinter) write(s string) {
	if s == "" {
		return
	}
	n, _ := io.WriteString(p.out, ansi.Sanitize(s))
	p.printed += n
}

// progressPrinter reports download progress on its own line per update.
// Status changes are always printed; repeated statuses are throttled.
type progressPrinter struct {
	out       io.Writer
	interval  time.Duration
	sometimes *rate.Sometimes
	status    string
}

func newProgressPrinter(out io.Writer, interval time.Duration) *progressPrinter {
	return &progressPrinter{out: out, interval: interval}
}

func (p *progressPrinter) DownloadProgress(model string, e rill.EventProgress) {
	line := func() {
		statusColor.Fprint(p.out, e.Status)
		if e.Total > 0 {
			fmt.Fprintf(p.out, " %s/%s (%.0f%%)", humanize.Bytes(uint64(e.Completed)), humanize.Bytes(uint64(e.Total)), e.Percent()*100)
		}
		fmt.Fprintln(p.out)
	}
	if p.sometimes == nil || e.Status != p.status {
		p.status = e.Status
		p.sometimes = &rate.Sometimes{Interval: p.interval}
	}
	p.sometimes.Do(line)
}

func (p *progressPrinter) DownloadFinished(model string, state rill.DownloadState, err error) {
	if state == rill.DownloadSucceeded {
		successColor.Fprintf(p.out, "pulled %s\n", model)
	}
}

// printModels writes one line per model: a download marker, the name, the
// size and the description.
func printModels(out io.Writer, models []rill.Model) {
	if len(models) == 0 {
		mutedColor.Fprintln(out, "no models")
		return
	}
	width := 0
	for _, m := range models {
		width = max(width, len(m.Name))
	}
	for _, m := range models {
		mark := " "
		if m.Downloaded {
			mark = successColor.Sprint("*")
		}
		size := ""
		if m.Size > 0 {
			size = humanize.Bytes(uint64(m.Size))
		}
		fmt.Fprintf(out, "%s %-*s %8s  %s\n", mark, width, m.Name, size, m.Description)
	}
}
