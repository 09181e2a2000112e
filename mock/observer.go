package mock

import "github.com/fwojciec/rill"

// Interface compliance checks.
var (
	_ rill.ChatObserver     = (*ChatObserver)(nil)
	_ rill.DownloadObserver = (*DownloadObserver)(nil)
)

// ChatObserver is a test double for rill.ChatObserver.
// All function fields are nil-safe: unset callbacks are no-ops, since most
// tests only care about one of them.
type ChatObserver struct {
	TurnMaterializedFn func(t rill.Turn)
	TurnAppendedFn     func(t rill.Turn, delta string)
	TurnFinalizedFn    func(t rill.Turn, state rill.ChatState)
}

// TurnMaterialized delegates to TurnMaterializedFn.
func (o *ChatObserver) TurnMaterialized(t rill.Turn) {
	if o.TurnMaterializedFn != nil {
		o.TurnMaterializedFn(t)
	}
}

// TurnAppended delegates to TurnAppendedFn.
func (o *ChatObserver) TurnAppended(t rill.Turn, delta string) {
	if o.TurnAppendedFn != nil {
		o.TurnAppendedFn(t, delta)
	}
}

// TurnFinalized delegates to TurnFinalizedFn.
func (o *ChatObserver) TurnFinalized(t rill.Turn, state rill.ChatState) {
	if o.TurnFinalizedFn != nil {
		o.TurnFinalizedFn(t, state)
	}
}

// DownloadObserver is a test double for rill.DownloadObserver.
// Function fields are nil-safe.
type DownloadObserver struct {
	DownloadProgressFn func(model string, p rill.EventProgress)
	DownloadFinishedFn func(model string, state rill.DownloadState, err error)
}

// DownloadProgress delegates to DownloadProgressFn.
func (o *DownloadObserver) DownloadProgress(model string, p rill.EventProgress) {
	if o.DownloadProgressFn != nil {
		o.DownloadProgressFn(model, p)
	}
}

// DownloadFinished delegates to DownloadFinishedFn.
func (o *DownloadObserver) DownloadFinished(model string, state rill.DownloadState, err error) {
	if o.DownloadFinishedFn != nil {
		o.DownloadFinishedFn(model, state, err)
	}
}
