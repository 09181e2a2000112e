// Package engine coordinates chat and download operations for one session.
//
// It is the only place that starts operations: every Send and Pull goes
// through a [control.Controller], so at most one chat and one download are in
// flight at a time, and a new one of a kind cancels the previous one first.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/chat"
	"github.com/fwojciec/rill/control"
	"github.com/fwojciec/rill/download"
	"github.com/google/uuid"
)

// Engine owns a session and the operations that mutate it.
type Engine struct {
	session    *rill.Session
	chat       rill.ChatService
	models     rill.ModelService
	controller *control.Controller
	logger     *slog.Logger
	allowed    []string
	userID     int
	model      string
	bufSize    int
}

// requestKey carries a chat's request on its operation context.
type requestKey struct{}

// errNoModels is returned by model operations when no ModelService is set.
var errNoModels = fmt.Errorf("model management not supported: %w", errors.ErrUnsupported)

// Option configures an [Engine].
type Option func(*Engine)

// WithLogger sets the logger passed to every operation.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithController replaces the default controller.
func WithController(c *control.Controller) Option {
	return func(e *Engine) { e.controller = c }
}

// WithAllowedModels restricts Pull to model names matching at least one glob
// pattern. No patterns means every model is allowed.
func WithAllowedModels(patterns ...string) Option {
	return func(e *Engine) { e.allowed = append(e.allowed, patterns...) }
}

// WithUserID sets the user id used when a request carries none.
func WithUserID(id int) Option {
	return func(e *Engine) { e.userID = id }
}

// WithModel sets the model used when a request carries none.
func WithModel(model string) Option {
	return func(e *Engine) { e.model = model }
}

// WithBufferSize sets the read buffer size of every stream.
func WithBufferSize(n int) Option {
	return func(e *Engine) { e.bufSize = n }
}

// New creates an Engine for session. models may be nil when downloads are
// not supported by the backend.
func New(session *rill.Session, chatSvc rill.ChatService, models rill.ModelService, opts ...Option) *Engine {
	e := &Engine{
		session: session,
		chat:    chatSvc,
		models:  models,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(e)
	}
	if e.controller == nil {
		e.controller = control.NewController(control.WithLogger(e.logger))
	}
	return e
}

// Session returns the engine's session.
func (e *Engine) Session() *rill.Session { return e.session }

// Busy reports whether an operation of kind is in flight.
func (e *Engine) Busy(kind rill.OperationKind) bool {
	return e.controller.Active(kind) != nil
}

// Send appends a user turn for req and streams the assistant reply. Any chat
// already in flight is cancelled and finalized before the new one starts.
// Send blocks until the reply reaches a terminal state and returns nil for
// completed and cancelled replies.
func (e *Engine) Send(ctx context.Context, req rill.ChatRequest, observer rill.ChatObserver) error {
	if req.UserID == 0 {
		req.UserID = e.userID
	}
	if req.Model == "" {
		req.Model = e.model
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	op, err := e.controller.Begin(context.WithValue(ctx, requestKey{}, req), rill.KindChat)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if req.SessionID == "" {
		req.SessionID = e.session.ID()
	}
	e.session.AppendTurn(rill.Turn{
		ID:          uuid.NewString(),
		Role:        rill.RoleUser,
		Content:     req.Message,
		Attachments: req.Attachments,
		Model:       req.Model,
		SessionID:   req.SessionID,
		Complete:    true,
	})
	s := chat.New(e.session, op, e.chat, observer,
		chat.WithLogger(e.logger),
		chat.WithModel(req.Model),
		chat.WithBufferSize(e.bufSize),
	)
	return s.Run(req)
}

// Cancel aborts the chat in flight and returns its request so the caller can
// restore the input. It reports false when no chat is active. The request is
// read from the same operation that is aborted.
func (e *Engine) Cancel() (rill.ChatRequest, bool) {
	op := e.controller.Active(rill.KindChat)
	if op == nil {
		return rill.ChatRequest{}, false
	}
	req, _ := op.Context().Value(requestKey{}).(rill.ChatRequest)
	e.logger.Info("cancelling chat", "id", op.ID())
	op.Abort()
	return req, true
}

// Allowed reports whether name matches the allow-list.
func (e *Engine) Allowed(name string) bool {
	if len(e.allowed) == 0 {
		return true
	}
	for _, p := range e.allowed {
		ok, err := doublestar.Match(p, name)
		if err != nil {
			e.logger.Warn("invalid model pattern", "pattern", p, "error", err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// Pull downloads model, reporting progress to observer. A pull already in
// flight is abandoned first. Pull blocks until the download succeeds, fails
// or is abandoned; an abandoned pull returns an error matching
// [rill.ErrAborted].
func (e *Engine) Pull(ctx context.Context, model string, observer rill.DownloadObserver) error {
	if e.models == nil {
		return fmt.Errorf("engine: pull %s: %w", model, errNoModels)
	}
	if !e.Allowed(model) {
		return fmt.Errorf("engine: pull %s: %w", model, rill.ErrModelNotAllowed)
	}
	op, err := e.controller.Begin(ctx, rill.KindDownload)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	s := download.New(op, e.models, observer,
		download.WithLogger(e.logger),
		download.WithBufferSize(e.bufSize),
	)
	return s.Run(model)
}

// AbandonPull stops observing the download in flight and reports whether
// there was one.
func (e *Engine) AbandonPull() bool {
	return e.controller.Abort(rill.KindDownload)
}

// DeleteModel removes model from the backend.
func (e *Engine) DeleteModel(ctx context.Context, model string) error {
	if e.models == nil {
		return fmt.Errorf("engine: delete %s: %w", model, errNoModels)
	}
	if err := e.models.DeleteModel(ctx, model); err != nil {
		return fmt.Errorf("engine: delete %s: %w", model, err)
	}
	return nil
}

// ListModels returns the backend's model catalogue.
func (e *Engine) ListModels(ctx context.Context) ([]rill.Model, error) {
	if e.models == nil {
		return nil, fmt.Errorf("engine: list models: %w", errNoModels)
	}
	models, err := e.models.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: list models: %w", err)
	}
	return models, nil
}
