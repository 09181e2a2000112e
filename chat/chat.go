// Package chat drives one streaming chat exchange from request to terminal
// state.
//
// A [Stream] reads the response body of a submitted chat request, decodes it
// into events and applies them, in order, to a single assistant turn that it
// creates when the first content delta arrives. The turn is identified by
// the index captured at creation and finalized exactly once.
package chat

const defaultBufferSize = 4096
