// Package download drives one streaming model pull from request to terminal
// state.
package download

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/control"
	"github.com/fwojciec/rill/sse"
)

const defaultBufferSize = 4096

var errAlreadyRun = errors.New("download: stream already run")

// Stream is the state machine of one model pull. The wire protocol has no
// cancellation; aborting the operation only stops observing the stream.
type Stream struct {
	op       *control.Operation
	service  rill.ModelService
	observer rill.DownloadObserver
	logger   *slog.Logger
	parser   *sse.Parser
	bufSize  int

	model    string
	state    rill.DownloadState
	progress rill.EventProgress
	err      error
}

// Option configures a [Stream].
type Option func(*Stream)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) { s.logger = l }
}

// WithParser replaces the default line parser.
func WithParser(p *sse.Parser) Option {
	return func(s *Stream) { s.parser = p }
}

// WithBufferSize sets the read buffer size in bytes.
func WithBufferSize(n int) Option {
	return func(s *Stream) {
		if n > 0 {
			s.bufSize = n
		}
	}
}

// New creates a Stream. observer may be nil.
func New(op *control.Operation, service rill.ModelService, observer rill.DownloadObserver, opts ...Option) *Stream {
	s := &Stream{
		op:       op,
		service:  service,
		observer: observer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		bufSize:  defaultBufferSize,
	}
	for _, o := range opts {
		o(s)
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.parser == nil {
		s.parser = sse.NewParser(sse.WithLogger(s.logger))
	}
	return s
}

// State returns the current state.
func (s *Stream) State() rill.DownloadState { return s.state }

// Progress returns the most recent progress event.
func (s *Stream) Progress() rill.EventProgress { return s.progress }

// Run pulls model and consumes the progress stream until success or
// failure. It returns nil on success. When the operation is abandoned the
// returned error matches [rill.ErrAborted].
func (s *Stream) Run(model string) error {
	defer s.op.Finish()
	if s.state != rill.DownloadIdle {
		return errAlreadyRun
	}
	s.model = model
	s.transition(rill.DownloadPulling)

	if s.op.Aborted() {
		s.abandon()
		return s.err
	}
	body, err := s.service.PullModel(s.op.Context(), model)
	if err != nil {
		if s.op.Aborted() {
			s.abandon()
			return s.err
		}
		s.fail(transportError("pull", err))
		return s.err
	}
	defer body.Close()
	stop := s.op.OnAbort(func() { body.Close() })
	defer stop()

	s.consume(body)
	return s.err
}

func (s *Stream) consume(body io.Reader) {
	dec := sse.NewLineDecoder()
	defer dec.Close()
	buf := make([]byte, s.bufSize)
	for {
		if s.op.Aborted() {
			s.abandon()
			return
		}
		n, err := body.Read(buf)
		if s.op.Aborted() {
			s.abandon()
			return
		}
		if n > 0 {
			for line := range dec.Decode(buf[:n]) {
				for _, evt := range s.parser.ParseDownload(line) {
					s.apply(evt)
				}
				if s.state.Terminal() {
					return
				}
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.fail(transportError("read", rill.ErrUnexpectedEOF))
			return
		default:
			s.fail(transportError("read", err))
			return
		}
	}
}

func (s *Stream) apply(evt rill.Event) {
	if s.state.Terminal() {
		s.logger.Debug("ignoring event after terminal state", "state", s.state, "event", fmt.Sprintf("%T", evt))
		return
	}
	switch e := evt.(type) {
	case rill.EventProgress:
		s.progress = e
		s.observer.DownloadProgress(s.model, e)
	case rill.EventSuccess:
		s.finish(rill.DownloadSucceeded, nil)
	case rill.EventFailure:
		s.fail(&rill.ApplicationError{Message: e.Message})
	}
}

func (s *Stream) abandon() {
	s.logger.Info("download abandoned", "model", s.model, "operation", s.op.ID())
	s.fail(fmt.Errorf("download: pull %s: %w", s.model, rill.ErrAborted))
}

func (s *Stream) fail(err error) {
	if !errors.Is(err, rill.ErrAborted) {
		s.logger.Error("download failed", "model", s.model, "error", err)
	}
	s.finish(rill.DownloadFailed, err)
}

func (s *Stream) finish(state rill.DownloadState, err error) {
	if s.state.Terminal() {
		return
	}
	s.err = err
	s.transition(state)
	s.observer.DownloadFinished(s.model, state, err)
}

func (s *Stream) transition(to rill.DownloadState) {
	s.logger.Debug("download state", "model", s.model, "from", s.state, "to", to)
	s.state = to
}

func transportError(op string, err error) error {
	var te *rill.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &rill.TransportError{Op: op, Err: err}
}

type nopObserver struct{}

func (nopObserver) DownloadProgress(string, rill.EventProgress)        {}
func (nopObserver) DownloadFinished(string, rill.DownloadState, error) {}
