package rill

import (
	"fmt"
	"strings"
)

// ChatRequest is one user submission. The chat service uses its own default
// model when Model is empty.
type ChatRequest struct {
	UserID      int
	Model       string
	Message     string
	SessionID   string // empty starts a new conversation
	Attachments []Attachment
}

// Validate checks universal constraints on ChatRequest.
func (r ChatRequest) Validate() error {
	if strings.TrimSpace(r.Message) == "" && len(r.Attachments) == 0 {
		return fmt.Errorf("message or attachment required: %w", ErrValidation)
	}
	if r.UserID < 0 {
		return fmt.Errorf("user_id must be non-negative, got %d: %w", r.UserID, ErrValidation)
	}
	for i, a := range r.Attachments {
		if a.Data == "" {
			return fmt.Errorf("attachment %d is empty: %w", i, ErrValidation)
		}
	}
	return nil
}

// Images returns the attachment payloads in order.
func (r ChatRequest) Images() []string {
	if len(r.Attachments) == 0 {
		return nil
	}
	out := make([]string, len(r.Attachments))
	for i, a := range r.Attachments {
		out[i] = a.Data
	}
	return out
}
