package hub

import (
	"encoding/json"

	"github.com/raysireks/conversationassist/internal/segment"
	"github.com/raysireks/conversationassist/internal/transcribe"
)

// EventKind discriminates the outbound event union.
type EventKind string

const (
	KindSessionState  EventKind = "session_state"
	KindTranscription EventKind = "transcription"
	KindAIState       EventKind = "ai_state"
	KindAILog         EventKind = "ai_log"
	KindError         EventKind = "error"
	KindRelay         EventKind = "relay"
)

// Event is one message on the session feed. Concrete types marshal to
// their own JSON shape; Kind is used internally for history filtering.
type Event interface {
	Kind() EventKind
}

// SessionState is the snapshot sent to a peer at registration time.
type SessionState struct {
	Type      EventKind `json:"type"`
	History   []Event   `json:"history"`
	AIEnabled bool      `json:"ai_enabled"`
	AIModel   string    `json:"ai_model"`
}

func (SessionState) Kind() EventKind { return KindSessionState }

// Transcription carries transcriber segments plus, on finalized text, the
// attached thought-segmentation result.
type Transcription struct {
	Type      EventKind            `json:"type"`
	Timestamp int64                `json:"timestamp,omitempty"`
	Segments  []transcribe.Segment `json:"segments"`
	IsFinal   bool                 `json:"is_final"`
	Thought   *segment.Result      `json:"thought_segment,omitempty"`
}

func (Transcription) Kind() EventKind { return KindTranscription }

// NewTranscription builds a transcription event. Segments may be empty
// (force-segment broadcasts carry only the thought payload).
func NewTranscription(segments []transcribe.Segment, isFinal bool, thought *segment.Result) Transcription {
	if segments == nil {
		segments = []transcribe.Segment{}
	}
	return Transcription{
		Type:     KindTranscription,
		Segments: segments,
		IsFinal:  isFinal,
		Thought:  thought,
	}
}

// AIState announces a change to the assistant toggle.
type AIState struct {
	Type    EventKind `json:"type"`
	Enabled bool      `json:"enabled"`
}

func (AIState) Kind() EventKind { return KindAIState }

func NewAIState(enabled bool) AIState {
	return AIState{Type: KindAIState, Enabled: enabled}
}

// AILog carries an assistant reply.
type AILog struct {
	Type      EventKind `json:"type"`
	Timestamp int64     `json:"timestamp,omitempty"`
	Text      string    `json:"text"`
	Role      string    `json:"role"`
}

func (AILog) Kind() EventKind { return KindAILog }

func NewAILog(text, role string) AILog {
	return AILog{Type: KindAILog, Text: text, Role: role}
}

// ErrorEvent reports a recoverable failure to all peers.
type ErrorEvent struct {
	Type    EventKind `json:"type"`
	Message string    `json:"message"`
}

func (ErrorEvent) Kind() EventKind { return KindError }

func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: KindError, Message: message}
}

// Relay is an opaque client payload passed through to all peers verbatim.
// The wire shape is the original object, with a timestamp merged in once
// persisted.
type Relay struct {
	Payload   map[string]any
	Timestamp int64
}

func (Relay) Kind() EventKind { return KindRelay }

func NewRelay(payload map[string]any) Relay {
	return Relay{Payload: payload}
}

func (r Relay) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Payload)+1)
	for k, v := range r.Payload {
		out[k] = v
	}
	if r.Timestamp != 0 {
		out["timestamp"] = r.Timestamp
	}
	return json.Marshal(out)
}
