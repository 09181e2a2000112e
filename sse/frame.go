package sse

import (
	"encoding/json"
	"fmt"
	"io"
)

// ChatFrame is the JSON payload of one chat stream line.
type ChatFrame struct {
	Content          string `json:"content,omitempty"`
	SessionID        string `json:"session_id,omitempty"`
	Done             bool   `json:"done,omitempty"`
	Cancelled        bool   `json:"cancelled,omitempty"`
	MessageID        string `json:"message_id,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	Error            string `json:"error,omitempty"`
}

// PullFrame is the JSON payload of one download stream line.
type PullFrame struct {
	Status    string `json:"status,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Encoder writes data-marked frames, each followed by a blank line.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes v as one frame.
func (e *Encoder) Encode(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: encode: %w", err)
	}
	buf := make([]byte, 0, len(marker)+1+len(data)+2)
	buf = append(buf, marker...)
	buf = append(buf, ' ')
	buf = append(buf, data...)
	buf = append(buf, '\n', '\n')
	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("sse: write: %w", err)
	}
	return nil
}
