// Package audio holds the per-connection sample buffer and the endpointing
// rules applied to it. Everything here is pure in-memory bookkeeping; the
// ingest worker is the only owner of a Buffer, so none of it is locked.
package audio

import "encoding/binary"

// SampleRate is the fixed ingest rate: 16 kHz mono.
const SampleRate = 16000

const (
	// MinTranscribeSeconds is the minimum buffered audio before a
	// transcription attempt. Shorter windows make the model hallucinate.
	MinTranscribeSeconds = 1.0

	// WindowSeconds caps the audio handed to the transcriber at the most
	// recent 10s. Older audio stays buffered for duration accounting only.
	WindowSeconds = 10.0

	// MaxBufferSeconds is the lag-protection cap. When the worker falls
	// behind and the buffer grows past this, it is cut back to TrimSeconds.
	MaxBufferSeconds = 20.0

	// TrimSeconds is what survives a lag-protection trim.
	TrimSeconds = 10.0

	// TrailingSilenceSeconds of silence after the last transcribed segment
	// marks an utterance boundary.
	TrailingSilenceSeconds = 1.2

	// SilenceResetSeconds: buffered audio that produced no usable segments
	// for this long is discarded.
	SilenceResetSeconds = 3.0
)

// Buffer is a rolling window of normalized float32 samples, exclusively
// owned by one ingest worker.
type Buffer struct {
	samples []float32
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds decoded samples to the end of the buffer.
func (b *Buffer) Append(samples []float32) {
	b.samples = append(b.samples, samples...)
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	return len(b.samples)
}

// Duration returns the buffered audio length in seconds.
func (b *Buffer) Duration() float64 {
	return float64(len(b.samples)) / SampleRate
}

// Window returns a copy of the most recent WindowSeconds of audio, or the
// whole buffer when shorter. The copy keeps the transcriber from observing
// appends that happen during a slow call.
func (b *Buffer) Window() []float32 {
	max := int(WindowSeconds * SampleRate)
	src := b.samples
	if len(src) > max {
		src = src[len(src)-max:]
	}
	out := make([]float32, len(src))
	copy(out, src)
	return out
}

// TrimIfLagging applies lag protection: when the buffer has grown past
// MaxBufferSeconds it is cut down to the most recent TrimSeconds.
// Reports whether a trim happened.
func (b *Buffer) TrimIfLagging() bool {
	if b.Duration() <= MaxBufferSeconds {
		return false
	}
	keep := int(TrimSeconds * SampleRate)
	trimmed := make([]float32, keep)
	copy(trimmed, b.samples[len(b.samples)-keep:])
	b.samples = trimmed
	return true
}

// Reset empties the buffer. Called on finalization and silence reset so
// committed audio is never reprocessed.
func (b *Buffer) Reset() {
	b.samples = b.samples[:0]
}

// DecodePCM16 converts little-endian signed 16-bit PCM into normalized
// float32 samples in [-1, 1). A trailing odd byte is dropped.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return samples
}
