// Package control tracks the single active operation of each kind and
// delivers aborts to it.
//
// A new operation of a kind first aborts the previous one and waits for it
// to finish, so the previous operation reaches its terminal state strictly
// before the new one starts.
package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/rill"
	"github.com/google/uuid"
)

// Controller owns the active operation of each kind.
type Controller struct {
	logger *slog.Logger

	mu     sync.Mutex
	active map[rill.OperationKind]*Operation
	begin  map[rill.OperationKind]*sync.Mutex
}

// Option configures a [Controller].
type Option func(*Controller)

// WithLogger sets the logger for abort and supersede events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a [Controller] with no active operations.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		active: make(map[rill.OperationKind]*Operation),
		begin: map[rill.OperationKind]*sync.Mutex{
			rill.KindChat:     {},
			rill.KindDownload: {},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Begin registers a new operation of kind. An active operation of the same
// kind is aborted first, and Begin waits until that operation has finished.
// The new operation's context derives from ctx.
//
// Begin must not be called from the goroutine running the operation it would
// replace. It returns ctx's error if ctx ends while waiting.
func (c *Controller) Begin(ctx context.Context, kind rill.OperationKind) (*Operation, error) {
	bm := c.beginMutex(kind)
	bm.Lock()
	defer bm.Unlock()

	// prev stays registered until its Finish releases it, so a Begin that
	// gives up waiting leaves it visible to the next caller.
	if prev := c.Active(kind); prev != nil {
		c.logger.Info("superseding operation", "kind", kind, "id", prev.id)
		prev.Abort()
		select {
		case <-prev.Done():
		case <-ctx.Done():
			return nil, fmt.Errorf("control: waiting for %s operation %s: %w", kind, prev.id, context.Cause(ctx))
		}
	}
	if err := context.Cause(ctx); err != nil {
		return nil, fmt.Errorf("control: begin %s: %w", kind, err)
	}

	op := newOperation(ctx, kind, c)
	c.mu.Lock()
	c.active[kind] = op
	c.mu.Unlock()
	c.logger.Debug("operation started", "kind", kind, "id", op.id)
	return op, nil
}

// Abort aborts the active operation of kind and reports whether there was
// one. The operation stays registered until it finishes.
func (c *Controller) Abort(kind rill.OperationKind) bool {
	op := c.Active(kind)
	if op == nil {
		return false
	}
	c.logger.Info("aborting operation", "kind", kind, "id", op.id)
	op.Abort()
	return true
}

// Active returns the active operation of kind, or nil.
func (c *Controller) Active(kind rill.OperationKind) *Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[kind]
}

func (c *Controller) beginMutex(kind rill.OperationKind) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.begin[kind]
	if !ok {
		m = &sync.Mutex{}
		c.begin[kind] = m
	}
	return m
}

// release removes op if it is still the active operation of its kind.
func (c *Controller) release(op *Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active[op.kind] == op {
		delete(c.active, op.kind)
	}
}

// Operation is the handle of one in-flight operation.
type Operation struct {
	id     string
	kind   rill.OperationKind
	ctx    context.Context
	cancel context.CancelCauseFunc
	owner  *Controller

	aborted atomic.Bool
	target  atomic.Int64
	done    chan struct{}
	once    sync.Once
}

func newOperation(parent context.Context, kind rill.OperationKind, owner *Controller) *Operation {
	ctx, cancel := context.WithCancelCause(parent)
	op := &Operation{
		id:     uuid.NewString(),
		kind:   kind,
		ctx:    ctx,
		cancel: cancel,
		owner:  owner,
		done:   make(chan struct{}),
	}
	op.target.Store(-1)
	return op
}

// NewOperation returns an operation that is not registered with any
// controller. Useful for running a stream directly.
func NewOperation(ctx context.Context, kind rill.OperationKind) *Operation {
	return newOperation(ctx, kind, nil)
}

// ID returns the operation's unique id.
func (o *Operation) ID() string { return o.id }

// Kind returns the operation kind.
func (o *Operation) Kind() rill.OperationKind { return o.kind }

// Context returns a context cancelled with cause [rill.ErrAborted] when the
// operation is aborted, or with the parent's cause when the parent ends.
func (o *Operation) Context() context.Context { return o.ctx }

// Abort requests cancellation. It is safe to call more than once and from
// any goroutine.
func (o *Operation) Abort() {
	o.aborted.Store(true)
	o.cancel(rill.ErrAborted)
}

// Aborted reports whether the operation should stop: it was aborted, or its
// parent context ended.
func (o *Operation) Aborted() bool {
	return o.aborted.Load() || o.ctx.Err() != nil
}

// OnAbort arranges for fn to run in its own goroutine when the operation's
// context ends. Streams use it to close the transport so that a blocked read
// returns. The returned stop function unregisters fn.
func (o *Operation) OnAbort(fn func()) (stop func() bool) {
	return context.AfterFunc(o.ctx, fn)
}

// SetTarget records the index of the turn this operation mutates.
func (o *Operation) SetTarget(index int) { o.target.Store(int64(index)) }

// Target returns the recorded turn index, or false if none was set.
func (o *Operation) Target() (int, bool) {
	t := o.target.Load()
	return int(t), t >= 0
}

// Finish marks the operation as finished, releases its context and removes
// it from the controller. It is idempotent.
func (o *Operation) Finish() {
	o.once.Do(func() {
		if o.owner != nil {
			o.owner.release(o)
		}
		o.cancel(context.Canceled)
		close(o.done)
	})
}

// Done is closed once Finish has been called.
func (o *Operation) Done() <-chan struct{} { return o.done }
