// Package gemini implements [rill.ChatService] directly against the Google
// Gemini API.
//
// It wraps the google.golang.org/genai SDK and relays the SDK's streaming
// iterator into the same data-marked line protocol the application backend
// speaks, so responses flow through the regular ingestion pipeline. The
// client keeps each conversation's history in memory, keyed by session id,
// the way the backend keeps it server-side.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 8192
)
