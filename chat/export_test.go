package chat

import "github.com/fwojciec/rill"

// Apply exports apply for testing.
func (s *Stream) Apply(evt rill.Event) { s.apply(evt) }

// Cancel exports cancel for testing.
func (s *Stream) Cancel() { s.cancel("") }

// Fail exports fail for testing.
func (s *Stream) Fail(err error) { s.fail(err) }
