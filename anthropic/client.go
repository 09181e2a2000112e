package anthropic

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/fwojciec/rill"
	"github.com/google/uuid"
)

// Interface compliance check.
var _ rill.ChatService = (*Client)(nil)

// Client implements [rill.ChatService] for the Anthropic Messages API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	model        string
	maxTokens    int
	systemPrompt string

	mu      sync.Mutex
	history map[string][]apiMessage
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithModel sets the model used when a request names none.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithMaxTokens caps the length of each reply.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithSystemPrompt sets the system prompt sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// New creates a new Anthropic [Client] with the given API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		model:      defaultModel,
		maxTokens:  defaultMaxTokens,
		history:    make(map[string][]apiMessage),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitChat sends a streaming Messages request and returns the reply as a
// line stream. Requests without a session id start a new conversation
// under a fresh id. A non-200 response is returned as a
// [*rill.TransportError] before any line is produced.
func (c *Client) SubmitChat(ctx context.Context, req rill.ChatRequest) (io.ReadCloser, error) {
	user, err := convertRequest(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	body, err := json.Marshal(apiRequest{
		Model:     model,
		MaxTokens: c.maxTokens,
		Stream:    true,
		System:    convertSystem(c.systemPrompt),
		Messages:  append(c.conversation(sessionID), user),
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &rill.TransportError{Op: "submit", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	pr, pw := io.Pipe()
	go func() {
		defer resp.Body.Close()
		_, err := relay(ctx, resp.Body, sessionID, pw, func(reply string) {
			c.remember(sessionID, user, reply)
		})
		if err != nil && ctx.Err() == nil {
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()
	return pr, nil
}

func (c *Client) conversation(sessionID string) []apiMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.history[sessionID]
	out := make([]apiMessage, len(prev), len(prev)+1)
	copy(out, prev)
	return out
}

func (c *Client) remember(sessionID string, user apiMessage, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[sessionID] = append(c.history[sessionID], user, apiMessage{
		Role:    "assistant",
		Content: []apiContentBlock{{Type: "text", Text: reply}},
	})
}

// convertSystem converts a system prompt to content blocks. Returns nil
// when the prompt is empty.
func convertSystem(prompt string) []apiContentBlock {
	if prompt == "" {
		return nil
	}
	return []apiContentBlock{{Type: "text", Text: prompt}}
}

// convertRequest converts a chat request to a user message. Attachments
// become base64 image blocks; a missing MIME type is sniffed from the
// payload.
func convertRequest(req rill.ChatRequest) (apiMessage, error) {
	var blocks []apiContentBlock
	for i, a := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return apiMessage{}, fmt.Errorf("attachment %d: %w", i, err)
		}
		mime := a.MimeType
		if mime == "" {
			mime = http.DetectContentType(data)
		}
		blocks = append(blocks, apiContentBlock{
			Type: "image",
			Source: &apiImageSource{
				Type:      "base64",
				MediaType: mime,
				Data:      a.Data,
			},
		})
	}
	if req.Message != "" {
		blocks = append(blocks, apiContentBlock{Type: "text", Text: req.Message})
	}
	return apiMessage{Role: "user", Content: blocks}, nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &rill.TransportError{Op: "submit", StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	msg := strings.TrimSpace(string(body))
	var apiErr apiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		msg = apiErr.Error.Type + ": " + apiErr.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &rill.TransportError{Op: "submit", StatusCode: resp.StatusCode, Err: errors.New(msg)}
}
