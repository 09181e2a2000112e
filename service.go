// Package rill holds the domain types of a streaming response ingestion
// engine: events decoded from a line-oriented stream, the turns and sessions
// they mutate, and the service and observer boundaries around them.
package rill

import (
	"context"
	"io"
)

// ChatService submits a chat request and returns the raw response body. The
// body is a stream of data-marked lines; the caller owns it and must close it.
// Closing the body interrupts a blocked read.
type ChatService interface {
	SubmitChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error)
}

// ModelService manages the model catalogue. PullModel returns the raw
// progress stream; the caller owns it and must close it.
type ModelService interface {
	PullModel(ctx context.Context, name string) (io.ReadCloser, error)
	DeleteModel(ctx context.Context, name string) error
	ListModels(ctx context.Context) ([]Model, error)
}

// ChatObserver receives copies of the target turn as a chat stream mutates
// it. Calls happen on the stream's goroutine, in event order.
// Implementations must not start a new chat operation from a callback.
type ChatObserver interface {
	// TurnMaterialized is called once, when the assistant turn is created.
	TurnMaterialized(t Turn)
	// TurnAppended is called for every delta after the first.
	TurnAppended(t Turn, delta string)
	// TurnFinalized is called exactly once with the terminal state.
	TurnFinalized(t Turn, state ChatState)
}

// DownloadObserver receives download progress and the terminal outcome.
type DownloadObserver interface {
	DownloadProgress(model string, p EventProgress)
	// DownloadFinished is called exactly once. err is nil on success and
	// matches ErrAborted when the download was abandoned.
	DownloadFinished(model string, state DownloadState, err error)
}
