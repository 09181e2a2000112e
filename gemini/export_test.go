package gemini

import (
	"context"
	"io"
	"iter"

	"google.golang.org/genai"
)

// GenerateFunc mirrors the SDK's streaming call for tests.
type GenerateFunc = generateFunc

// NewWithGenerator creates a Client backed by gen instead of the SDK.
func NewWithGenerator(gen GenerateFunc, opts ...Option) *Client {
	return newClient(gen, opts...)
}

// Relay exports relay for testing.
func Relay(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error], sessionID string, w io.Writer) (string, error) {
	return relay(ctx, seq, sessionID, w, nil)
}
