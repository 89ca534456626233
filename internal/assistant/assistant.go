package assistant

import "context"

// Message represents a conversation message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Assistant defines the interface for LLM completion providers.
type Assistant interface {
	// Complete generates a single reply for the conversation using the
	// given model.
	Complete(ctx context.Context, model string, messages []Message) (string, error)
}
