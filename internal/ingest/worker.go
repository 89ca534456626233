// Package ingest runs one worker per listener connection: it drains the
// connection's audio queue, applies the endpointing policy, and publishes
// transcription updates. The worker is the only goroutine touching its
// buffer; the receive loop just enqueues.
package ingest

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/raysireks/conversationassist/internal/audio"
	"github.com/raysireks/conversationassist/internal/transcribe"
)

// Publisher receives transcription updates produced by the worker.
type Publisher interface {
	BroadcastUpdate(ctx context.Context, segments []transcribe.Segment, isFinal bool)
}

// queueSize bounds the chunk backlog between the receive loop and the
// worker. Overflow drops the newest chunk; sustained lag is absorbed by
// the buffer's trim, not by blocking the producer.
const queueSize = 256

// idleSleep bounds CPU usage between iterations.
const idleSleep = 100 * time.Millisecond

// Worker owns one audio buffer and one inbound chunk queue for a single
// listener connection.
type Worker struct {
	transcriber transcribe.Transcriber
	publisher   Publisher
	logger      *log.Logger

	queue  chan []float32
	buf    *audio.Buffer
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWorker creates a worker. Call Start to begin processing.
func NewWorker(t transcribe.Transcriber, p Publisher, logger *log.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		transcriber: t,
		publisher:   p,
		logger:      logger,
		queue:       make(chan []float32, queueSize),
		buf:         audio.NewBuffer(),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Start launches the processing loop.
func (w *Worker) Start() {
	w.startOnce.Do(func() {
		go w.run()
	})
}

// Stop signals the loop to exit and blocks until it has. After Stop
// returns, no further events are published; the owning connection can be
// torn down safely.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		<-w.done
	})
}

// Enqueue hands a decoded chunk to the worker without blocking. Chunks
// arriving after Stop, or into a full queue, are dropped.
func (w *Worker) Enqueue(samples []float32) {
	select {
	case <-w.ctx.Done():
	case w.queue <- samples:
	default:
		w.logger.Printf("ingest: audio queue full, dropping %d samples", len(samples))
	}
}

func (w *Worker) run() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		w.iterate(w.ctx)

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(idleSleep):
		}
	}
}

// iterate runs one pass: catch up on queued audio, decide, transcribe,
// publish. Any failure is logged and the pass abandoned; the buffer is
// retained so the next pass can retry.
func (w *Worker) iterate(ctx context.Context) {
	w.drain()

	if w.buf.TrimIfLagging() {
		w.logger.Printf("ingest: lag protection trimmed buffer to %.1fs", w.buf.Duration())
	}

	if w.buf.Duration() < audio.MinTranscribeSeconds {
		return
	}

	segments, err := w.transcriber.Transcribe(ctx, w.buf.Window())
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Printf("ingest: transcribe failed: %v", err)
			sentry.CaptureException(err)
		}
		return
	}

	segments = transcribe.Filter(segments)

	var lastEnd float64
	if len(segments) > 0 {
		lastEnd = segments[len(segments)-1].End
	}

	decision := audio.Decide(w.buf.Duration(), len(segments), lastEnd)

	if len(segments) > 0 {
		w.publisher.BroadcastUpdate(ctx, segments, decision.IsFinal)
	}

	if decision.ClearBuffer {
		w.buf.Reset()
	}
}

// drain appends every currently queued chunk in one pass so a slow
// transcription call never leaves the worker permanently behind.
func (w *Worker) drain() {
	for {
		select {
		case chunk := <-w.queue:
			w.buf.Append(chunk)
		default:
			return
		}
	}
}
