package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/sse"
)

// event is one named server-sent event with its joined data lines.
type event struct {
	name string
	data string
}

// events groups the lines of r into named events. A blank line ends an
// event; comments and unknown fields are ignored. A trailing event without
// the closing blank line is still yielded.
func events(r io.Reader) iter.Seq2[event, error] {
	return func(yield func(event, error) bool) {
		var (
			name string
			data strings.Builder
		)
		for line, err := range sse.Lines(r, 0) {
			if err != nil {
				yield(event{}, err)
				return
			}
			if line == "" {
				if data.Len() > 0 && !yield(event{name: name, data: data.String()}, nil) {
					return
				}
				name = ""
				data.Reset()
				continue
			}
			if v, ok := strings.CutPrefix(line, "event:"); ok {
				name = strings.TrimSpace(v)
				continue
			}
			if v, ok := sse.Payload(line); ok {
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(v)
			}
		}
		if data.Len() > 0 {
			yield(event{name: name, data: data.String()}, nil)
		}
	}
}

// relay translates the Messages event stream in r into chat frames on w.
// Text deltas become content frames; message_stop becomes a done frame
// with token usage, preceded by a call to commit with the full reply. An
// error event becomes an error frame. A stream that ends before
// message_stop writes no terminal frame and returns [rill.ErrUnexpectedEOF].
func relay(ctx context.Context, r io.Reader, sessionID string, w io.Writer, commit func(string)) (string, error) {
	enc := sse.NewEncoder(w)
	var (
		reply strings.Builder
		done  = sse.ChatFrame{Done: true, SessionID: sessionID}
	)
	for evt, err := range events(r) {
		if ctx.Err() != nil {
			return reply.String(), context.Cause(ctx)
		}
		if err != nil {
			return reply.String(), &rill.TransportError{Op: "read", Err: err}
		}
		switch evt.name {
		case "message_start":
			var v sseMessageStart
			if err := json.Unmarshal([]byte(evt.data), &v); err != nil {
				return reply.String(), fmt.Errorf("anthropic: failed to parse message_start: %w", err)
			}
			done.MessageID = v.Message.ID
			done.PromptTokens = v.Message.Usage.InputTokens
		case "content_block_delta":
			var v sseContentBlockDelta
			if err := json.Unmarshal([]byte(evt.data), &v); err != nil {
				return reply.String(), fmt.Errorf("anthropic: failed to parse content_block_delta: %w", err)
			}
			// Thinking, signature and tool input deltas are not part of the reply.
			if v.Delta.Type != "text_delta" || v.Delta.Text == "" {
				continue
			}
			reply.WriteString(v.Delta.Text)
			if err := enc.Encode(sse.ChatFrame{Content: v.Delta.Text, SessionID: sessionID}); err != nil {
				return reply.String(), err
			}
		case "message_delta":
			var v sseMessageDelta
			if err := json.Unmarshal([]byte(evt.data), &v); err != nil {
				return reply.String(), fmt.Errorf("anthropic: failed to parse message_delta: %w", err)
			}
			done.CompletionTokens = v.Usage.OutputTokens
		case "message_stop":
			if commit != nil {
				commit(reply.String())
			}
			return reply.String(), enc.Encode(done)
		case "error":
			var v apiErrorResponse
			msg := evt.data
			if json.Unmarshal([]byte(evt.data), &v) == nil && v.Error.Message != "" {
				msg = v.Error.Type + ": " + v.Error.Message
			}
			if err := enc.Encode(sse.ChatFrame{Error: msg}); err != nil {
				return reply.String(), err
			}
			return reply.String(), &rill.ApplicationError{Message: msg}
		}
	}
	if ctx.Err() != nil {
		return reply.String(), context.Cause(ctx)
	}
	return reply.String(), rill.ErrUnexpectedEOF
}
