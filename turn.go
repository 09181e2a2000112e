package rill

import "time"

// CancellationNotice replaces the content of an assistant turn that was
// cancelled before any non-whitespace text arrived.
const CancellationNotice = "Generation cancelled."

// Attachment is an opaque blob sent alongside a user message. Data holds the
// base64-encoded payload exactly as the chat endpoint expects it.
type Attachment struct {
	Name     string
	MimeType string
	Data     string
}

// Turn is one message in a chat session.
//
// Index is the turn's stable identity: its position in the owning session,
// captured when the turn is created. Turns are never reordered or removed
// while an operation is active, so a captured index always names the same
// turn.
type Turn struct {
	ID          string
	Index       int
	Role        Role
	Content     string
	Attachments []Attachment
	Model       string
	SessionID   string
	MessageID   string
	Usage       Usage
	Complete    bool
	Cancelled   bool
	Err         string
	CreatedAt   time.Time
}

// Failed reports whether the turn was finalized by an error.
func (t Turn) Failed() bool { return t.Err != "" }

// Snapshot returns a deep copy safe to hand to another goroutine.
func (t Turn) Snapshot() Turn {
	if t.Attachments != nil {
		t.Attachments = append([]Attachment(nil), t.Attachments...)
	}
	return t
}
