package rill

// Event is a sealed interface representing one decoded stream event.
// A single line may decode into several events; they are applied in the
// order returned. The unexported marker method prevents external
// implementations.
type Event interface {
	event()
}

// EventContentDelta carries a chunk of assistant text.
type EventContentDelta struct {
	Text string
}

func (EventContentDelta) event() {}

// EventSessionAssigned carries the server-assigned conversation id.
type EventSessionAssigned struct {
	ID string
}

func (EventSessionAssigned) event() {}

// EventCompletion is the terminal marker of a chat stream. Cancelled is set
// when the server acknowledges a cancellation.
type EventCompletion struct {
	Cancelled bool
	SessionID string
	MessageID string
	Usage     Usage
}

func (EventCompletion) event() {}

// EventProgress reports download progress. Status is surfaced verbatim.
type EventProgress struct {
	Status    string
	Digest    string
	Total     int64
	Completed int64
}

func (EventProgress) event() {}

// Percent returns completion in [0, 1], or 0 when the total is unknown.
func (e EventProgress) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	p := float64(e.Completed) / float64(e.Total)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

// EventSuccess is the terminal marker of a successful download stream.
type EventSuccess struct{}

func (EventSuccess) event() {}

// EventFailure carries a server-declared error. Valid for both stream kinds.
type EventFailure struct {
	Message string
}

func (EventFailure) event() {}

// Interface compliance checks.
var (
	_ Event = EventContentDelta{}
	_ Event = EventSessionAssigned{}
	_ Event = EventCompletion{}
	_ Event = EventProgress{}
	_ Event = EventSuccess{}
	_ Event = EventFailure{}
)
