package audio

// Decision is the outcome of one endpointing pass. It is consumed
// immediately by the worker and never stored.
type Decision struct {
	IsFinal     bool // the surviving segments are a committed utterance
	ClearBuffer bool // the buffer must be reset before the next iteration
}

// Decide applies the endpointing rules to the result of a transcription
// pass. bufferSeconds is the full buffered duration, survivors is the
// number of segments left after hallucination filtering, and lastEnd is
// the end time of the last segment (window-relative seconds).
//
// With survivors, trailing silence beyond TrailingSilenceSeconds commits
// the utterance. Without survivors, a buffer past SilenceResetSeconds is
// discarded so stale noise never accumulates context.
func Decide(bufferSeconds float64, survivors int, lastEnd float64) Decision {
	if survivors > 0 {
		if bufferSeconds-lastEnd > TrailingSilenceSeconds {
			return Decision{IsFinal: true, ClearBuffer: true}
		}
		return Decision{}
	}
	if bufferSeconds > SilenceResetSeconds {
		return Decision{ClearBuffer: true}
	}
	return Decision{}
}
