// Package sse decodes the line-oriented event streams returned by the chat
// and model-pull endpoints.
//
// Each meaningful line carries the marker "data:" followed by one JSON
// object. [LineDecoder] reassembles lines from arbitrarily split byte chunks
// and [Parser] maps each line to zero or more domain events.
package sse

const (
	marker           = "data:"
	defaultChunkSize = 4096
)
