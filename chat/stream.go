package chat

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/fwojciec/rill"
	"github.com/fwojciec/rill/control"
	"github.com/fwojciec/rill/sse"
	"github.com/google/uuid"
)

var errAlreadyRun = errors.New("chat: stream already run")

// Stream is the state machine of one chat exchange. A Stream is single-use.
type Stream struct {
	session  *rill.Session
	op       *control.Operation
	service  rill.ChatService
	observer rill.ChatObserver
	logger   *slog.Logger
	parser   *sse.Parser
	bufSize  int
	model    string

	state     rill.ChatState
	target    int
	content   strings.Builder
	sessionID string // buffered from EventSessionAssigned
	err       error
}

// Option configures a [Stream].
type Option func(*Stream)

// WithLogger sets the logger for state transitions and ignored events.
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

// WithModel records the model name on the assistant turn.
func WithModel(model string) Option {
	return func(s *Stream) { s.model = model }
}

// New creates a Stream that mutates session on behalf of op. observer may be
// nil.
func New(session *rill.Session, op *control.Operation, service rill.ChatService, observer rill.ChatObserver, opts ...Option) *Stream {
	s := &Stream{
		session:  session,
		op:       op,
		service:  service,
		observer: observer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		bufSize:  defaultBufferSize,
		target:   -1,
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

// State returns the current state. It must only be called from the goroutine
// running the stream or after Run has returned.
func (s *Stream) State() rill.ChatState { return s.state }

// Target returns the index of the assistant turn, or false if none exists.
func (s *Stream) Target() (int, bool) { return s.target, s.target >= 0 }

// Run submits req and consumes the response until a terminal state is
// reached. It returns nil when the exchange completed or was cancelled, and
// the failure otherwise. Run always finishes the operation before returning.
func (s *Stream) Run(req rill.ChatRequest) error {
	defer s.op.Finish()
	if s.state != rill.ChatIdle {
		return errAlreadyRun
	}
	s.transition(rill.ChatSending)

	if s.op.Aborted() {
		s.cancel("")
		return nil
	}
	body, err := s.service.SubmitChat(s.op.Context(), req)
	if err != nil {
		if s.op.Aborted() {
			s.cancel("")
			return nil
		}
		s.fail(transportError("submit", err))
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
	defer func() {
		if n := dec.Close(); n > 0 {
			s.logger.Debug("discarded unterminated line", "bytes", n)
		}
	}()
	buf := make([]byte, s.bufSize)
	for {
		if s.op.Aborted() {
			s.cancel("")
			return
		}
		n, err := body.Read(buf)
		if s.op.Aborted() {
			s.cancel("")
			return
		}
		if n > 0 {
			for line := range dec.Decode(buf[:n]) {
				for _, evt := range s.parser.ParseChat(line) {
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
	case rill.EventSessionAssigned:
		s.sessionID = e.ID
	case rill.EventContentDelta:
		if s.target < 0 {
			turn := s.materialize(e.Text)
			s.transition(rill.ChatStreaming)
			s.observer.TurnMaterialized(turn)
			return
		}
		s.content.WriteString(e.Text)
		turn, _ := s.session.UpdateTurn(s.target, func(t *rill.Turn) {
			t.Content = s.content.String()
		})
		s.observer.TurnAppended(turn, e.Text)
	case rill.EventCompletion:
		if e.Cancelled {
			s.cancel(e.MessageID)
			return
		}
		s.complete(e)
	case rill.EventFailure:
		s.fail(&rill.ApplicationError{Message: e.Message})
	}
}

func (s *Stream) materialize(content string) rill.Turn {
	s.content.WriteString(content)
	s.target = s.session.AppendTurn(rill.Turn{
		ID:        uuid.NewString(),
		Role:      rill.RoleAssistant,
		Content:   content,
		Model:     s.model,
		SessionID: s.currentSessionID(),
	})
	s.op.SetTarget(s.target)
	turn, _ := s.session.Turn(s.target)
	return turn
}

// ensureTurn materializes an empty turn for terminal states reached without
// content and notifies the observer.
func (s *Stream) ensureTurn(content string) {
	if s.target >= 0 {
		return
	}
	s.observer.TurnMaterialized(s.materialize(content))
}

func (s *Stream) complete(e rill.EventCompletion) {
	id := e.SessionID
	if id == "" {
		id = s.sessionID
	}
	s.ensureTurn("")
	turn, _ := s.session.UpdateTurn(s.target, func(t *rill.Turn) {
		t.Complete = true
		t.MessageID = e.MessageID
		t.Usage = e.Usage
		if id != "" {
			t.SessionID = id
		}
	})
	if s.session.AdoptID(id) {
		s.logger.Debug("adopted session id", "session_id", id)
	}
	s.finalize(turn, rill.ChatCompleted)
}

func (s *Stream) cancel(messageID string) {
	if s.state.Terminal() {
		return
	}
	if s.target < 0 {
		s.ensureTurn(rill.CancellationNotice)
	}
	content := strings.TrimRightFunc(s.content.String(), unicode.IsSpace)
	if content == "" {
		content = rill.CancellationNotice
	}
	turn, _ := s.session.UpdateTurn(s.target, func(t *rill.Turn) {
		t.Content = content
		t.Complete = true
		t.Cancelled = true
		if messageID != "" {
			t.MessageID = messageID
		}
	})
	s.logger.Info("chat cancelled", "operation", s.op.ID(), "turn", s.target)
	s.finalize(turn, rill.ChatCancelled)
}

func (s *Stream) fail(err error) {
	if s.state.Terminal() {
		return
	}
	s.err = err
	s.ensureTurn(err.Error())
	turn, _ := s.session.UpdateTurn(s.target, func(t *rill.Turn) {
		t.Complete = true
		t.Err = err.Error()
	})
	s.logger.Error("chat failed", "operation", s.op.ID(), "error", err)
	s.finalize(turn, rill.ChatFailed)
}

func (s *Stream) finalize(turn rill.Turn, state rill.ChatState) {
	s.transition(state)
	s.observer.TurnFinalized(turn, state)
}

func (s *Stream) transition(to rill.ChatState) {
	s.logger.Debug("chat state", "operation", s.op.ID(), "from", s.state, "to", to)
	s.state = to
}

func (s *Stream) currentSessionID() string {
	if s.sessionID != "" {
		return s.sessionID
	}
	return s.session.ID()
}

func transportError(op string, err error) error {
	var te *rill.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &rill.TransportError{Op: op, Err: err}
}

type nopObserver struct{}

func (nopObserver) TurnMaterialized(rill.Turn)              {}
func (nopObserver) TurnAppended(rill.Turn, string)          {}
func (nopObserver) TurnFinalized(rill.Turn, rill.ChatState) {}
