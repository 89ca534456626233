package transcribe

import "context"

// Segment is one timed piece of transcribed text. Start and End are
// seconds relative to the audio window that produced it, not session time.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	ID    int     `json:"id"`
}

// Status describes transcriber availability for the status endpoint.
type Status struct {
	Model  string `json:"model"`
	Device string `json:"device"`
}

// Transcriber maps a window of normalized 16 kHz mono samples to timed
// text segments.
type Transcriber interface {
	// Transcribe runs speech-to-text over the given window. Segments are
	// ordered by start time. An empty result is not an error.
	Transcribe(ctx context.Context, samples []float32) ([]Segment, error)

	// Status probes the backing model for availability.
	Status(ctx context.Context) (Status, error)
}
