package rill_test

import (
	"testing"

	"github.com/fwojciec/rill"
	"github.com/stretchr/testify/assert"
)

func TestEventProgress_Percent(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		evt  rill.EventProgress
		want float64
	}{
		{name: "unknown total", evt: rill.EventProgress{Completed: 10}, want: 0},
		{name: "half", evt: rill.EventProgress{Total: 200, Completed: 100}, want: 0.5},
		{name: "complete", evt: rill.EventProgress{Total: 50, Completed: 50}, want: 1},
		{name: "clamped above", evt: rill.EventProgress{Total: 50, Completed: 80}, want: 1},
		{name: "clamped below", evt: rill.EventProgress{Total: 50, Completed: -5}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.evt.Percent(), 1e-9)
		})
	}
}

func TestChatState_Terminal(t *testing.T) {
	t.Parallel()
	assert.False(t, rill.ChatIdle.Terminal())
	assert.False(t, rill.ChatSending.Terminal())
	assert.False(t, rill.ChatStreaming.Terminal())
	assert.True(t, rill.ChatCompleted.Terminal())
	assert.True(t, rill.ChatCancelled.Terminal())
	assert.True(t, rill.ChatFailed.Terminal())
	assert.Equal(t, "cancelled", rill.ChatCancelled.String())
}

func TestDownloadState_Terminal(t *testing.T) {
	t.Parallel()
	assert.False(t, rill.DownloadPulling.Terminal())
	assert.True(t, rill.DownloadSucceeded.Terminal())
	assert.True(t, rill.DownloadFailed.Terminal())
	assert.Equal(t, "pulling", rill.DownloadPulling.String())
}

func TestUsage_Total(t *testing.T) {
	t.Parallel()
	u := rill.Usage{PromptTokens: 12, CompletionTokens: 30}
	assert.Equal(t, 42, u.Total())
}
