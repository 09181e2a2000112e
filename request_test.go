package rill_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/rill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_Validate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		req     rill.ChatRequest
		wantErr bool
	}{
		{name: "message only", req: rill.ChatRequest{Message: "hi"}},
		{name: "attachment only", req: rill.ChatRequest{Attachments: []rill.Attachment{{Data: "AAAA"}}}},
		{name: "blank message", req: rill.ChatRequest{Message: "  \n"}, wantErr: true},
		{name: "negative user", req: rill.ChatRequest{Message: "hi", UserID: -1}, wantErr: true},
		{name: "empty attachment", req: rill.ChatRequest{Message: "hi", Attachments: []rill.Attachment{{Name: "x"}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, rill.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChatRequest_Images(t *testing.T) {
	t.Parallel()
	assert.Nil(t, rill.ChatRequest{}.Images())
	req := rill.ChatRequest{Attachments: []rill.Attachment{{Data: "a"}, {Data: "b"}}}
	assert.Equal(t, []string{"a", "b"}, req.Images())
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, rill.DefaultConfig().Validate())

	cfg := rill.DefaultConfig()
	cfg.Provider = "carrier-pigeon"
	assert.ErrorIs(t, cfg.Validate(), rill.ErrValidation)

	cfg = rill.DefaultConfig()
	cfg.BaseURL = ""
	assert.ErrorIs(t, cfg.Validate(), rill.ErrValidation)

	cfg = rill.DefaultConfig()
	cfg.LogLevel = "loud"
	assert.ErrorIs(t, cfg.Validate(), rill.ErrValidation)
}

func TestErrors_Unwrap(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection reset")

	te := &rill.TransportError{Op: "read", Err: cause}
	assert.ErrorIs(t, te, cause)
	assert.Equal(t, "read: connection reset", te.Error())

	te = &rill.TransportError{Op: "submit", StatusCode: 502, Err: cause}
	assert.Equal(t, "submit: status 502: connection reset", te.Error())

	pe := &rill.ProtocolError{Line: "data: {", Err: cause}
	assert.ErrorIs(t, pe, cause)

	var ae *rill.ApplicationError
	assert.True(t, errors.As(error(&rill.ApplicationError{Message: "boom"}), &ae))
	assert.Equal(t, "boom", ae.Error())
}
