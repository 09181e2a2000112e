package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"
	"sync"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/sse"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Interface compliance check.
var _ rill.ChatService = (*Client)(nil)

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]

// Client implements [rill.ChatService] for the Google Gemini API.
type Client struct {
	generate     generateFunc
	model        string
	maxTokens    int
	systemPrompt string

	mu      sync.Mutex
	history map[string][]*genai.Content
}

// Option configures a [Client].
type Option func(*Client)

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

// WithSystemPrompt sets the system instruction sent with every request.
func WithSystemPrompt(prompt string) Option {
	return func(c *Client) { c.systemPrompt = prompt }
}

// New creates a new Gemini [Client] with the given API key and options.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return newClient(gc.Models.GenerateContentStream, opts...), nil
}

func newClient(gen generateFunc, opts ...Option) *Client {
	c := &Client{
		generate:  gen,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		history:   make(map[string][]*genai.Content),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitChat starts a generation and returns its reply as a line stream.
// Requests without a session id start a new conversation under a fresh id,
// which is announced on the first frame. Closing the returned body or
// cancelling ctx stops the generation.
func (c *Client) SubmitChat(ctx context.Context, req rill.ChatRequest) (io.ReadCloser, error) {
	user, err := ConvertRequest(req)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	model := req.Model
	if model == "" {
		model = c.model
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	contents := append(c.conversation(sessionID), user)
	seq := c.generate(ctx, model, contents, c.config())

	pr, pw := io.Pipe()
	go func() {
		_, _ = relay(ctx, seq, sessionID, pw, func(reply string) {
			c.remember(sessionID, user, reply)
		})
		pw.Close()
	}()
	return pr, nil
}

func (c *Client) config() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.maxTokens),
	}
	if c.systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: c.systemPrompt}},
		}
	}
	return config
}

func (c *Client) conversation(sessionID string) []*genai.Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.history[sessionID]
	out := make([]*genai.Content, len(prev), len(prev)+1)
	copy(out, prev)
	return out
}

func (c *Client) remember(sessionID string, user *genai.Content, reply string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[sessionID] = append(c.history[sessionID], user, &genai.Content{
		Role:  "model",
		Parts: []*genai.Part{{Text: reply}},
	})
}

// relay writes each text chunk of seq as a content frame and finishes with
// a done frame carrying token usage. commit, when non-nil, receives the full
// reply before the done frame is written. A generation error is written as
// an error frame and returned. Output is abandoned without a terminal frame
// when ctx is cancelled or w stops accepting writes.
func relay(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error], sessionID string, w io.Writer, commit func(string)) (string, error) {
	enc := sse.NewEncoder(w)
	var (
		reply     strings.Builder
		usage     *genai.GenerateContentResponseUsageMetadata
		messageID string
	)
	for resp, err := range seq {
		if ctx.Err() != nil {
			return reply.String(), context.Cause(ctx)
		}
		if err != nil {
			if werr := enc.Encode(sse.ChatFrame{Error: err.Error()}); werr != nil {
				return reply.String(), werr
			}
			return reply.String(), fmt.Errorf("gemini: %w", err)
		}
		if resp.UsageMetadata != nil {
			usage = resp.UsageMetadata
		}
		if resp.ResponseID != "" {
			messageID = resp.ResponseID
		}
		text := resp.Text()
		if text == "" {
			continue
		}
		reply.WriteString(text)
		if err := enc.Encode(sse.ChatFrame{Content: text, SessionID: sessionID}); err != nil {
			return reply.String(), err
		}
	}
	if ctx.Err() != nil {
		return reply.String(), context.Cause(ctx)
	}
	if commit != nil {
		commit(reply.String())
	}
	done := sse.ChatFrame{Done: true, SessionID: sessionID, MessageID: messageID}
	if usage != nil {
		done.PromptTokens = int(usage.PromptTokenCount)
		done.CompletionTokens = int(usage.CandidatesTokenCount)
	}
	if err := enc.Encode(done); err != nil {
		return reply.String(), err
	}
	return reply.String(), nil
}

// ConvertRequest converts a chat request to a user Content. Attachments
// become inline data; a missing MIME type is sniffed from the payload.
// Exported for testing.
func ConvertRequest(req rill.ChatRequest) (*genai.Content, error) {
	var parts []*genai.Part
	if req.Message != "" {
		parts = append(parts, &genai.Part{Text: req.Message})
	}
	for i, a := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return nil, fmt.Errorf("attachment %d: %w", i, err)
		}
		mime := a.MimeType
		if mime == "" {
			mime = http.DetectContentType(data)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: mime,
				Data:     data,
			},
		})
	}
	return &genai.Content{Role: "user", Parts: parts}, nil
}
