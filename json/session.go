// Package json persists chat sessions as versioned JSON documents.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/rill"
)

// envelope is the v1 wire format for a persisted session.
type envelope struct {
	Version   int       `json:"version"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []turnDTO `json:"turns"`
}

// MarshalSession serializes a Session to JSON in v1 envelope format.
func MarshalSession(s *rill.Session) ([]byte, error) {
	turns := s.Turns()
	env := envelope{
		Version:   1,
		ID:        s.ID(),
		CreatedAt: s.CreatedAt(),
		UpdatedAt: s.UpdatedAt(),
		Turns:     make([]turnDTO, len(turns)),
	}
	for i, t := range turns {
		dto, err := marshalTurn(t)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		env.Turns[i] = dto
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalSession deserializes a Session from JSON in v1 envelope format.
func UnmarshalSession(data []byte) (*rill.Session, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	turns := make([]rill.Turn, len(env.Turns))
	for i, dto := range env.Turns {
		t, err := unmarshalTurn(dto)
		if err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
		turns[i] = t
	}
	return rill.RestoreSession(env.ID, turns, env.CreatedAt, env.UpdatedAt), nil
}

// Save writes a Session to a JSON file, creating parent directories as needed.
func Save(path string, s *rill.Session) error {
	data, err := MarshalSession(s)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Session from a JSON file.
func Load(path string) (*rill.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return UnmarshalSession(data)
}
