package assistant

import (
	"context"
	"log"
	"time"

	"github.com/raysireks/conversationassist/internal/hub"
)

// contextWindow is how many recent history entries feed the completion.
// Transcription text and prior assistant replies are mixed positionally
// in history append order.
const contextWindow = 6

// completionTimeout bounds one assistant call.
const completionTimeout = 30 * time.Second

// Bridge triggers the assistant on finalized utterances and injects the
// reply back into the session as a persisted ai_log event. Failures are
// reported to peers as error events and never touch the transcription
// path.
type Bridge struct {
	hub    *hub.Hub
	client Assistant
	logger *log.Logger
}

// NewBridge wires an assistant client to the session hub.
func NewBridge(h *hub.Hub, client Assistant, logger *log.Logger) *Bridge {
	return &Bridge{hub: h, client: client, logger: logger}
}

// OnFinalizedText implements hub.AssistantNotifier. The hub calls it on
// its own goroutine with non-empty finalized text.
func (b *Bridge) OnFinalizedText(text string) {
	if !b.hub.AIEnabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()

	messages := b.buildContext()

	reply, err := b.client.Complete(ctx, b.hub.AIModel(), messages)
	if err != nil {
		b.logger.Printf("assistant: completion failed: %v", err)
		b.hub.Broadcast(hub.NewError("assistant unavailable: "+err.Error()), false)
		return
	}
	if reply == "" {
		return
	}

	b.hub.Broadcast(hub.NewAILog(reply, "assistant"), true)
}

// buildContext maps the recent history tail onto chat messages: finalized
// transcription text becomes user turns, assistant replies become
// assistant turns, everything else is skipped. The finalized utterance
// that triggered the bridge is already in history.
func (b *Bridge) buildContext() []Message {
	messages := []Message{{Role: "system", Content: SystemPrompt}}

	for _, ev := range b.hub.HistoryTail(contextWindow) {
		switch e := ev.(type) {
		case hub.Transcription:
			if text := transcriptionText(e); text != "" {
				messages = append(messages, Message{Role: "user", Content: text})
			}
		case hub.AILog:
			messages = append(messages, Message{Role: "assistant", Content: e.Text})
		}
	}
	return messages
}

func transcriptionText(e hub.Transcription) string {
	text := ""
	for _, s := range e.Segments {
		if s.Text == "" {
			continue
		}
		if text != "" {
			text += " "
		}
		text += s.Text
	}
	return text
}
