package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fwojciec/rill"
)

// Interface compliance checks.
var (
	_ rill.ChatService  = (*Client)(nil)
	_ rill.ModelService = (*Client)(nil)
)

// Client talks to the application backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the backend base URL. Useful for testing with httptest.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a [Client].
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SubmitChat posts req and returns the event stream body. Cancelling ctx
// aborts the request and unblocks any pending read on the body.
func (c *Client) SubmitChat(ctx context.Context, req rill.ChatRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(chatRequest{
		UserID:    req.UserID,
		Message:   req.Message,
		Model:     req.Model,
		SessionID: req.SessionID,
		Images:    req.Images(),
	})
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	return c.stream(httpReq, "submit")
}

// PullModel starts downloading name and returns the progress stream body.
func (c *Client) PullModel(ctx context.Context, name string) (io.ReadCloser, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pullPath+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	return c.stream(httpReq, "pull")
}

// DeleteModel removes name from the backend.
func (c *Client) DeleteModel(ctx context.Context, name string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+modelsPath+"/"+url.PathEscape(name), nil)
	if err != nil {
		return fmt.Errorf("remote: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &rill.TransportError{Op: "delete", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return parseHTTPError("delete", resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ListModels returns the backend's model catalogue.
func (c *Client) ListModels(ctx context.Context) ([]rill.Model, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+modelsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &rill.TransportError{Op: "list", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError("list", resp)
	}
	var list modelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("remote: decode models: %w", err)
	}
	models := make([]rill.Model, len(list.Models))
	for i, m := range list.Models {
		models[i] = rill.Model{
			Name:        m.Name,
			Size:        m.Size,
			Downloaded:  m.Downloaded,
			Family:      m.Family,
			Type:        m.Type,
			Description: m.Description,
		}
	}
	return models, nil
}

func (c *Client) stream(req *http.Request, op string) (io.ReadCloser, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &rill.TransportError{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, parseHTTPError(op, resp)
	}
	return resp.Body, nil
}

// parseHTTPError builds a TransportError from a non-success response,
// preferring the backend's "detail" field over the raw body.
func parseHTTPError(op string, resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return &rill.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	msg := strings.TrimSpace(string(body))
	var apiErr errorResponse
	if json.Unmarshal(body, &apiErr) == nil {
		switch d := apiErr.Detail.(type) {
		case string:
			msg = d
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				msg = string(b)
			}
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &rill.TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
}
