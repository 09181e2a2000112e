package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/rill"
)

var errNotObject = errors.New("payload is not a JSON object")

// Parser maps single lines to events. Malformed lines are logged, counted and
// skipped; they never surface as errors. A Parser is not safe for concurrent
// use; each stream owns one.
type Parser struct {
	logger  *slog.Logger
	onSkip  func(*rill.ProtocolError)
	skipped int
}

// ParserOption configures a [Parser].
type ParserOption func(*Parser)

// WithLogger sets the logger used to report skipped lines.
func WithLogger(l *slog.Logger) ParserOption {
	return func(p *Parser) { p.logger = l }
}

// WithSkipHook registers fn to be called for every skipped line.
func WithSkipHook(fn func(*rill.ProtocolError)) ParserOption {
	return func(p *Parser) { p.onSkip = fn }
}

// NewParser creates a [Parser].
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Skipped returns the number of malformed lines skipped so far.
func (p *Parser) Skipped() int { return p.skipped }

type chatPayload struct {
	Content          string          `json:"content"`
	SessionID        string          `json:"session_id"`
	Done             bool            `json:"done"`
	Cancelled        bool            `json:"cancelled"`
	MessageID        json.RawMessage `json:"message_id"`
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	Error            json.RawMessage `json:"error"`
}

type pullPayload struct {
	Status    string          `json:"status"`
	Digest    string          `json:"digest"`
	Total     float64         `json:"total"`
	Completed float64         `json:"completed"`
	Error     json.RawMessage `json:"error"`
}

// ParseChat decodes one chat stream line. It returns nil for blank lines,
// lines without the data marker, empty payloads and malformed payloads.
//
// A payload declaring an error yields only [rill.EventFailure]. Otherwise the
// events are, in order: [rill.EventSessionAssigned] when a session id is
// present, [rill.EventContentDelta] when content is non-empty, and
// [rill.EventCompletion] when done is set.
func (p *Parser) ParseChat(line string) []rill.Event {
	var pl chatPayload
	if !p.decode(line, &pl) {
		return nil
	}
	if msg, ok := errorMessage(pl.Error); ok {
		return []rill.Event{rill.EventFailure{Message: msg}}
	}

	var evts []rill.Event
	if pl.SessionID != "" {
		evts = append(evts, rill.EventSessionAssigned{ID: pl.SessionID})
	}
	if pl.Content != "" {
		evts = append(evts, rill.EventContentDelta{Text: pl.Content})
	}
	switch {
	case pl.Done:
		evts = append(evts, rill.EventCompletion{
			Cancelled: pl.Cancelled,
			SessionID: pl.SessionID,
			MessageID: rawString(pl.MessageID),
			Usage: rill.Usage{
				PromptTokens:     pl.PromptTokens,
				CompletionTokens: pl.CompletionTokens,
			},
		})
	case pl.Cancelled:
		evts = append(evts, rill.EventFailure{Message: "protocol violation: cancelled without done"})
	}
	return evts
}

// ParseDownload decodes one download stream line. A declared error yields
// [rill.EventFailure], status "success" yields [rill.EventSuccess], and any
// other non-empty status yields [rill.EventProgress].
func (p *Parser) ParseDownload(line string) []rill.Event {
	var pl pullPayload
	if !p.decode(line, &pl) {
		return nil
	}
	if msg, ok := errorMessage(pl.Error); ok {
		return []rill.Event{rill.EventFailure{Message: msg}}
	}
	switch pl.Status {
	case "":
		return nil
	case "success":
		return []rill.Event{rill.EventSuccess{}}
	default:
		return []rill.Event{rill.EventProgress{
			Status:    pl.Status,
			Digest:    pl.Digest,
			Total:     int64(pl.Total),
			Completed: int64(pl.Completed),
		}}
	}
}

// decode strips the marker and unmarshals the payload into v. It reports
// false when the line carries nothing to apply.
func (p *Parser) decode(line string, v any) bool {
	payload, ok := Payload(line)
	if !ok || payload == "" {
		return false
	}
	var err error
	if payload[0] != '{' {
		err = errNotObject
	} else {
		err = json.Unmarshal([]byte(payload), v)
	}
	if err != nil {
		p.skip(&rill.ProtocolError{Line: line, Err: err})
		return false
	}
	return true
}

func (p *Parser) skip(perr *rill.ProtocolError) {
	p.skipped++
	p.logger.Warn("skipping malformed line", "line", truncate(perr.Line, 120), "error", perr.Err)
	if p.onSkip != nil {
		p.onSkip(perr)
	}
}

// Payload returns the text after the data marker and one optional space,
// trimmed of surrounding whitespace. It reports false for lines without the
// marker.
func Payload(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, marker)
	if !ok {
		return "", false
	}
	rest = strings.TrimPrefix(rest, " ")
	return strings.TrimSpace(rest), true
}

// errorMessage reports whether raw holds a truthy error value and returns
// its text. Strings are returned verbatim; other values as their JSON text.
func errorMessage(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	switch string(raw) {
	case "", "null", "false", "0", `""`:
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	return string(raw), true
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
