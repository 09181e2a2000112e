// Package mock provides test doubles for rill interfaces using function fields.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/rill"
)

// Interface compliance checks.
var (
	_ rill.ChatService  = (*ChatService)(nil)
	_ rill.ModelService = (*ModelService)(nil)
)

// ChatService is a test double for rill.ChatService.
// Set SubmitChatFn before calling SubmitChat.
type ChatService struct {
	SubmitChatFn func(ctx context.Context, req rill.ChatRequest) (io.ReadCloser, error)
}

// SubmitChat delegates to SubmitChatFn.
func (s *ChatService) SubmitChat(ctx context.Context, req rill.ChatRequest) (io.ReadCloser, error) {
	return s.SubmitChatFn(ctx, req)
}

// ModelService is a test double for rill.ModelService.
// Set the function fields for the methods you need.
type ModelService struct {
	PullModelFn   func(ctx context.Context, name string) (io.ReadCloser, error)
	DeleteModelFn func(ctx context.Context, name string) error
	ListModelsFn  func(ctx context.Context) ([]rill.Model, error)
}

// PullModel delegates to PullModelFn.
func (s *ModelService) PullModel(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.PullModelFn(ctx, name)
}

// DeleteModel delegates to DeleteModelFn.
func (s *ModelService) DeleteModel(ctx context.Context, name string) error {
	return s.DeleteModelFn(ctx, name)
}

// ListModels delegates to ListModelsFn.
func (s *ModelService) ListModels(ctx context.Context) ([]rill.Model, error) {
	return s.ListModelsFn(ctx)
}
