// Package anthropic implements [rill.ChatService] directly against the
// Anthropic Messages API.
//
// The Messages API streams named server-sent events (message_start,
// content_block_delta, message_delta, ...). The client folds that event
// stream into the data-marked line protocol the application backend speaks,
// so replies flow through the regular ingestion pipeline. Conversation
// history is kept in memory per session id.
package anthropic

const (
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 8192
	apiVersion       = "2023-06-01"
	messagesPath     = "/v1/messages"
)

// apiRequest is the JSON body sent to the Messages API.
type apiRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	Stream    bool              `json:"stream"`
	System    []apiContentBlock `json:"system,omitempty"`
	Messages  []apiMessage      `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

// apiContentBlock is a text or image block. Fields are populated by Type.
type apiContentBlock struct {
	Type   string          `json:"type"`
	Text   string          `json:"text,omitempty"`
	Source *apiImageSource `json:"source,omitempty"`
}

type apiImageSource struct {
	Type      string `json:"type"` // always "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// SSE payloads.

type sseMessageStart struct {
	Message struct {
		ID    string `json:"id"`
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

type sseContentBlockDelta struct {
	Index int `json:"index"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"delta"`
}

type sseMessageDelta struct {
	Delta struct {
		StopReason *string `json:"stop_reason"`
	} `json:"delta"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// apiErrorResponse is both the body of non-200 responses and the payload
// of the "error" stream event.
type apiErrorResponse struct {
	Type  string      `json:"type"`
	Error errorDetail `json:"error"`
}
