// Package segment groups finalized transcription text into coherent
// thought units using embedding similarity plus question heuristics.
package segment

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/raysireks/conversationassist/internal/embed"
)

// Action describes what the caller should do with a segmenter result.
type Action string

const (
	ActionUpdate Action = "UPDATE"
	ActionFinal  Action = "FINAL"
)

// Type classifies a finalized thought.
type Type string

const (
	TypeStatement Type = "STATEMENT"
	TypeQuestion  Type = "QUESTION"
	TypeForcedEnd Type = "FORCED_END"
)

// similarityThreshold is the cosine score below which consecutive
// utterances are considered separate thoughts.
const similarityThreshold = 0.45

// Result is the outcome of feeding one finalized utterance through the
// segmenter.
type Result struct {
	Action     Action   `json:"action"`
	Text       string   `json:"text"`
	Similarity *float64 `json:"similarity_score,omitempty"`
	Type       Type     `json:"segment_type,omitempty"`
}

// Segmenter accumulates finalized utterances into a thought buffer and
// decides when one thought ends and the next begins.
type Segmenter struct {
	embedder embed.Embedder
	logger   *log.Logger

	mu        sync.Mutex
	buffer    string
	embedding []float32
}

// New creates a segmenter backed by the given embedder.
func New(embedder embed.Embedder, logger *log.Logger) *Segmenter {
	return &Segmenter{
		embedder: embedder,
		logger:   logger,
	}
}

// Process ingests one finalized utterance. Returns nil for empty input,
// an UPDATE when the utterance continues the current thought, or a FINAL
// carrying the closed thought when a boundary is detected (the utterance
// then seeds the next thought).
func (s *Segmenter) Process(ctx context.Context, text string) *Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer == "" {
		s.buffer = text
		s.embedding = s.embedText(ctx, text)
		return &Result{Action: ActionUpdate, Text: s.buffer}
	}

	var similarity *float64
	newEmbedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Printf("segmenter: embed failed, similarity unavailable: %v", err)
	} else if s.embedding != nil {
		score := embed.Cosine(s.embedding, newEmbedding)
		similarity = &score
	}

	isQuestion := strings.HasSuffix(text, "?")
	bufferIsQuestion := strings.HasSuffix(strings.TrimSpace(s.buffer), "?")

	// A low similarity score splits the thought, and a question always
	// breaks an in-progress non-question thought. Two consecutive
	// questions are not split on the question rule alone.
	boundary := (similarity != nil && *similarity < similarityThreshold) ||
		(isQuestion && !bufferIsQuestion)

	if boundary {
		finalized := s.buffer
		segType := TypeStatement
		if strings.HasSuffix(strings.TrimSpace(finalized), "?") {
			segType = TypeQuestion
		}

		s.buffer = text
		s.embedding = s.embedText(ctx, text)

		return &Result{
			Action:     ActionFinal,
			Text:       finalized,
			Similarity: similarity,
			Type:       segType,
		}
	}

	s.buffer += " " + text
	// Re-embed the whole grown buffer rather than the increment: the
	// thought's center of gravity drifts with it, which keeps long
	// thoughts from fragmenting.
	s.embedding = s.embedText(ctx, s.buffer)

	return &Result{
		Action:     ActionUpdate,
		Text:       s.buffer,
		Similarity: similarity,
	}
}

// ManualTrigger force-closes the current thought regardless of similarity.
// Returns nil when there is nothing buffered.
func (s *Segmenter) ManualTrigger() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buffer == "" {
		return nil
	}

	finalized := s.buffer
	s.buffer = ""
	s.embedding = nil

	return &Result{
		Action: ActionFinal,
		Text:   finalized,
		Type:   TypeForcedEnd,
	}
}

func (s *Segmenter) embedText(ctx context.Context, text string) []float32 {
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		s.logger.Printf("segmenter: embed failed: %v", err)
		return nil
	}
	return v
}
