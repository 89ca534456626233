package transcribe

import "strings"

// hallucinations are artifacts the model produces on silence or noise.
// Matching is exact against the trimmed segment text.
var hallucinations = map[string]struct{}{
	"Thank you.":                           {},
	"Thank you for watching.":              {},
	"Thanks for watching!":                 {},
	"Thanks for watching.":                 {},
	"Please subscribe.":                    {},
	"Please subscribe!":                    {},
	"Subtitles by the Amara.org community": {},
	"you":                                  {},
	"You":                                  {},
	"Bye.":                                 {},
	"Bye-bye.":                             {},
}

// IsHallucination reports whether a segment's text is a known
// silence-induced artifact or too short to be real speech.
func IsHallucination(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= 1 {
		return true
	}
	_, ok := hallucinations[trimmed]
	return ok
}

// Filter drops hallucinated segments, preserving order. The input slice
// is not modified.
func Filter(segments []Segment) []Segment {
	out := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if IsHallucination(s.Text) {
			continue
		}
		out = append(out, s)
	}
	return out
}
