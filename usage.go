package rill

// Usage reports token consumption for one completed assistant turn, as
// declared by the server in the completion event.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Total returns the sum of prompt and completion tokens.
func (u Usage) Total() int {
	return u.PromptTokens + u.CompletionTokens
}
