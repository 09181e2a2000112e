package json

import (
	"fmt"
	"time"

	"github.com/fwojciec/rill"
)

// turnDTO is the JSON representation of a Turn. Role doubles as the type
// discriminator.
type turnDTO struct {
	ID          string          `json:"id"`
	Role        string          `json:"role"`
	Content     string          `json:"content"`
	Attachments []attachmentDTO `json:"attachments,omitempty"`
	Model       string          `json:"model,omitempty"`
	SessionID   string          `json:"session_id,omitempty"`
	MessageID   string          `json:"message_id,omitempty"`
	Usage       *usageDTO       `json:"usage,omitempty"`
	Complete    bool            `json:"complete"`
	Cancelled   bool            `json:"cancelled,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

type attachmentDTO struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data"`
}

type usageDTO struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

func marshalTurn(t rill.Turn) (turnDTO, error) {
	switch t.Role {
	case rill.RoleUser, rill.RoleAssistant:
	default:
		return turnDTO{}, fmt.Errorf("unknown role: %q", t.Role)
	}
	dto := turnDTO{
		ID:        t.ID,
		Role:      string(t.Role),
		Content:   t.Content,
		Model:     t.Model,
		SessionID: t.SessionID,
		MessageID: t.MessageID,
		Complete:  t.Complete,
		Cancelled: t.Cancelled,
		Error:     t.Err,
		CreatedAt: t.CreatedAt,
	}
	if t.Usage != (rill.Usage{}) {
		dto.Usage = &usageDTO{PromptTokens: t.Usage.PromptTokens, CompletionTokens: t.Usage.CompletionTokens}
	}
	for _, a := range t.Attachments {
		dto.Attachments = append(dto.Attachments, attachmentDTO{Name: a.Name, MimeType: a.MimeType, Data: a.Data})
	}
	return dto, nil
}

// unmarshalTurn restores a turn. A turn persisted while still streaming is
// restored as cancelled, since no stream can resume it.
func unmarshalTurn(dto turnDTO) (rill.Turn, error) {
	role := rill.Role(dto.Role)
	switch role {
	case rill.RoleUser, rill.RoleAssistant:
	default:
		return rill.Turn{}, fmt.Errorf("unknown role: %q", dto.Role)
	}
	t := rill.Turn{
		ID:        dto.ID,
		Role:      role,
		Content:   dto.Content,
		Model:     dto.Model,
		SessionID: dto.SessionID,
		MessageID: dto.MessageID,
		Complete:  dto.Complete,
		Cancelled: dto.Cancelled,
		Err:       dto.Error,
		CreatedAt: dto.CreatedAt,
	}
	if dto.Usage != nil {
		t.Usage = rill.Usage{PromptTokens: dto.Usage.PromptTokens, CompletionTokens: dto.Usage.CompletionTokens}
	}
	for _, a := range dto.Attachments {
		t.Attachments = append(t.Attachments, rill.Attachment{Name: a.Name, MimeType: a.MimeType, Data: a.Data})
	}
	if !t.Complete {
		t.Complete = true
		t.Cancelled = true
		if t.Content == "" {
			t.Content = rill.CancellationNotice
		}
	}
	return t, nil
}
