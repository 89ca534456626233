// Package hub is the single serialization point for all shared session
// state: the viewer and listener registries, the ordered event history,
// and the assistant flags. Every read or mutation happens under one
// mutex, so broadcasts are totally ordered and a snapshot can never race
// a live event.
package hub

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/raysireks/conversationassist/internal/segment"
	"github.com/raysireks/conversationassist/internal/transcribe"
)

// Peer is a registered connection. Send must be bounded: a stuck peer
// returns an error instead of blocking the broadcast pass.
type Peer interface {
	ID() string
	Send(Event) error
	Close() error
}

// AssistantNotifier receives finalized utterance text. Implementations
// must return quickly; the hub calls it on its own goroutine already off
// the broadcast path.
type AssistantNotifier interface {
	OnFinalizedText(text string)
}

// Hub is the process-wide session registry. One instance serves the one
// active session; there is deliberately no session-ID concept.
type Hub struct {
	logger    *log.Logger
	segmenter *segment.Segmenter
	assistant AssistantNotifier
	now       func() time.Time

	// segMu serializes a segmenter decision with the broadcast that carries
	// it, so concurrent finalizations and force-segment commands publish in
	// decision order. It is never held together with mu from the outside in;
	// broadcasts take mu after segMu.
	segMu sync.Mutex

	mu        sync.Mutex
	viewers   map[string]Peer
	listeners map[string]Peer
	history   []Event
	aiEnabled bool
	aiModel   string
	closed    bool
}

// New creates a hub with the given default assistant model.
func New(logger *log.Logger, aiModel string) *Hub {
	return &Hub{
		logger:    logger,
		now:       time.Now,
		viewers:   make(map[string]Peer),
		listeners: make(map[string]Peer),
		aiModel:   aiModel,
	}
}

// SetSegmenter wires the thought segmenter. Optional; without one,
// finalized transcriptions carry no thought payload.
func (h *Hub) SetSegmenter(s *segment.Segmenter) {
	h.segmenter = s
}

// SetAssistant wires the assistant bridge. Optional.
func (h *Hub) SetAssistant(a AssistantNotifier) {
	h.assistant = a
}

// AddViewer registers a viewer and sends it the history snapshot. The
// snapshot and the registration happen under one lock acquisition, so the
// viewer misses no broadcast and sees no duplicate between snapshot and
// live feed. A failed snapshot send leaves the peer unregistered.
func (h *Hub) AddViewer(p Peer) error {
	return h.add(p, h.viewersLocked)
}

// AddListener registers a listener; it receives the same snapshot.
func (h *Hub) AddListener(p Peer) error {
	return h.add(p, h.listenersLocked)
}

func (h *Hub) viewersLocked() map[string]Peer   { return h.viewers }
func (h *Hub) listenersLocked() map[string]Peer { return h.listeners }

// ErrClosed is returned for registrations attempted after Close.
var ErrClosed = errors.New("hub: session closed")

func (h *Hub) add(p Peer, registry func() map[string]Peer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	snapshot := SessionState{
		Type:      KindSessionState,
		History:   append([]Event(nil), h.history...),
		AIEnabled: h.aiEnabled,
		AIModel:   h.aiModel,
	}
	if err := p.Send(snapshot); err != nil {
		return err
	}
	registry()[p.ID()] = p
	return nil
}

// RemoveViewer deregisters a viewer. Unknown IDs are ignored.
func (h *Hub) RemoveViewer(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.viewers, id)
}

// RemoveListener deregisters a listener. Unknown IDs are ignored.
func (h *Hub) RemoveListener(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, id)
}

// PeerCount returns the number of registered viewers and listeners.
func (h *Hub) PeerCount() (viewers, listeners int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers), len(h.listeners)
}

// Broadcast delivers an event to every registered peer. With persist,
// a timestamped copy is appended to History first, inside the same
// critical section. Peers whose send fails are evicted after the pass.
func (h *Hub) Broadcast(ev Event, persist bool) {
	h.mu.Lock()
	h.broadcastLocked(ev, persist)
	h.mu.Unlock()
}

func (h *Hub) broadcastLocked(ev Event, persist bool) {
	if persist {
		ev = h.stamp(ev)
		h.history = append(h.history, ev)
	}

	var dead []string
	for id, p := range h.viewers {
		if err := p.Send(ev); err != nil {
			h.logger.Printf("hub: dropping viewer %s: %v", id, err)
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		delete(h.viewers, id)
	}

	dead = dead[:0]
	for id, p := range h.listeners {
		if err := p.Send(ev); err != nil {
			h.logger.Printf("hub: dropping listener %s: %v", id, err)
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		delete(h.listeners, id)
	}
}

// stamp returns a copy of the event carrying the persistence timestamp
// in unix milliseconds.
func (h *Hub) stamp(ev Event) Event {
	ts := h.now().UnixMilli()
	switch e := ev.(type) {
	case Transcription:
		e.Timestamp = ts
		return e
	case AILog:
		e.Timestamp = ts
		return e
	case Relay:
		e.Timestamp = ts
		return e
	}
	return ev
}

// ToggleAI flips the assistant flag and announces the new state.
func (h *Hub) ToggleAI(enabled bool) {
	h.mu.Lock()
	h.aiEnabled = enabled
	h.broadcastLocked(NewAIState(enabled), false)
	h.mu.Unlock()
}

// ChangeModel switches the assistant model and announces the AI state.
func (h *Hub) ChangeModel(model string) {
	if model == "" {
		return
	}
	h.mu.Lock()
	h.aiModel = model
	h.broadcastLocked(NewAIState(h.aiEnabled), false)
	h.mu.Unlock()
}

// AIEnabled reports the current assistant toggle.
func (h *Hub) AIEnabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aiEnabled
}

// AIModel returns the current assistant model name.
func (h *Hub) AIModel() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aiModel
}

// HistoryTail returns up to n most recent history entries, oldest first.
func (h *Hub) HistoryTail(n int) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	start := len(h.history) - n
	if start < 0 {
		start = 0
	}
	return append([]Event(nil), h.history[start:]...)
}

// HandleForceSegment force-closes the current thought. The result, if
// any, goes out as a finalized transcription with empty segments.
func (h *Hub) HandleForceSegment() {
	if h.segmenter == nil {
		return
	}
	h.segMu.Lock()
	defer h.segMu.Unlock()
	res := h.segmenter.ManualTrigger()
	if res == nil {
		return
	}
	h.Broadcast(NewTranscription(nil, true, res), true)
}

// HandleRelay passes an opaque client payload through to all peers and
// persists it.
func (h *Hub) HandleRelay(payload map[string]any) {
	h.Broadcast(NewRelay(payload), true)
}

// BroadcastUpdate is the ingest integration point. Finalized text runs
// through the thought segmenter before broadcast, is persisted, and then
// triggers the assistant asynchronously. Partial updates are delivered
// but never stored.
func (h *Hub) BroadcastUpdate(ctx context.Context, segments []transcribe.Segment, isFinal bool) {
	text := joinSegmentText(segments)

	if isFinal && h.segmenter != nil {
		// Embedding runs under segMu, not the hub lock, so a slow embedder
		// never stalls concurrent broadcasts. Holding segMu through the
		// broadcast keeps the thought feed in decision order.
		h.segMu.Lock()
		thought := h.segmenter.Process(ctx, text)
		h.Broadcast(NewTranscription(segments, isFinal, thought), isFinal)
		h.segMu.Unlock()
	} else {
		h.Broadcast(NewTranscription(segments, isFinal, nil), isFinal)
	}

	if isFinal && text != "" && h.assistant != nil {
		go h.assistant.OnFinalizedText(text)
	}
}

// Close evicts and closes every peer. Further broadcasts deliver to
// nobody but remain safe to call.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	peers := make([]Peer, 0, len(h.viewers)+len(h.listeners))
	for _, p := range h.viewers {
		peers = append(peers, p)
	}
	for _, p := range h.listeners {
		peers = append(peers, p)
	}
	h.viewers = make(map[string]Peer)
	h.listeners = make(map[string]Peer)
	h.mu.Unlock()

	for _, p := range peers {
		_ = p.Close()
	}
}

func joinSegmentText(segments []transcribe.Segment) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
