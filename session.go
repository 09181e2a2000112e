package rill

import (
	"sync"
	"time"
)

// Session is an append-only list of turns plus the server-assigned
// conversation id. The id is empty until the first completed exchange
// reports one.
//
// Only the stream that owns the active operation appends or updates turns.
// Readers always receive copies.
type Session struct {
	mu        sync.RWMutex
	id        string
	turns     []Turn
	createdAt time.Time
	updatedAt time.Time
}

// NewSession returns an empty session. id may be empty.
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{id: id, createdAt: now, updatedAt: now}
}

// RestoreSession rebuilds a session from persisted state. Turn indices are
// reassigned to match their positions.
func RestoreSession(id string, turns []Turn, createdAt, updatedAt time.Time) *Session {
	s := &Session{id: id, createdAt: createdAt, updatedAt: updatedAt}
	s.turns = make([]Turn, len(turns))
	for i, t := range turns {
		t = t.Snapshot()
		t.Index = i
		s.turns[i] = t
	}
	return s
}

// ID returns the conversation id, or "" if none has been assigned.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// AdoptID sets the conversation id if none is set yet and reports whether it
// was adopted. An empty id is never adopted.
func (s *Session) AdoptID(id string) bool {
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != "" {
		return false
	}
	s.id = id
	s.updatedAt = time.Now()
	return true
}

// AppendTurn appends t and returns its index. The stored turn's Index field
// is set to that index.
func (s *Session) AppendTurn(t Turn) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	t = t.Snapshot()
	t.Index = len(s.turns)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.turns = append(s.turns, t)
	s.updatedAt = time.Now()
	return t.Index
}

// UpdateTurn applies fn to the turn at index and returns a copy of the result.
// It reports false when index is out of range. fn must not retain the pointer.
func (s *Session) UpdateTurn(index int, fn func(*Turn)) (Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.turns) {
		return Turn{}, false
	}
	t := &s.turns[index]
	fn(t)
	t.Index = index
	s.updatedAt = time.Now()
	return t.Snapshot(), true
}

// Turn returns a copy of the turn at index.
func (s *Session) Turn(index int) (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.turns) {
		return Turn{}, false
	}
	return s.turns[index].Snapshot(), true
}

// Turns returns a copy of all turns in order.
func (s *Session) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	for i, t := range s.turns {
		out[i] = t.Snapshot()
	}
	return out
}

// Len returns the number of turns.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// CreatedAt returns the session creation time.
func (s *Session) CreatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.createdAt
}

// UpdatedAt returns the time of the last modification.
func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
