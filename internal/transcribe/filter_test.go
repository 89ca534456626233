package transcribe

import "testing"

func TestIsHallucination(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Thank you.", true},
		{"  Thank you.  ", true},
		{"Please subscribe.", true},
		{"you", true},
		{"a", true},
		{".", true},
		{"", true},
		{"Thank you for the report.", false},
		{"We discussed the architecture.", false},
		{"OK", false},
	}

	for _, c := range cases {
		if got := IsHallucination(c.text); got != c.want {
			t.Errorf("IsHallucination(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestFilterDropsArtifacts(t *testing.T) {
	in := []Segment{
		{ID: 0, Text: "Thank you.", Start: 0, End: 1},
		{ID: 1, Text: "Let's start with your background.", Start: 1, End: 3},
		{ID: 2, Text: "y", Start: 3, End: 3.1},
		{ID: 3, Text: "I spent five years on infra.", Start: 3.2, End: 5},
	}

	out := Filter(in)
	if len(out) != 2 {
		t.Fatalf("len(Filter) = %d, want 2", len(out))
	}
	if out[0].ID != 1 || out[1].ID != 3 {
		t.Errorf("Filter kept wrong segments: %+v", out)
	}
}

func TestFilterIdempotent(t *testing.T) {
	in := []Segment{
		{Text: "Thank you."},
		{Text: "Real speech here."},
	}
	once := Filter(in)
	twice := Filter(once)
	if len(once) != len(twice) {
		t.Errorf("Filter not idempotent: %d then %d", len(once), len(twice))
	}
}

func TestFilterPreservesInput(t *testing.T) {
	in := []Segment{{Text: "Thank you."}, {Text: "Keep me."}}
	_ = Filter(in)
	if in[0].Text != "Thank you." || len(in) != 2 {
		t.Error("Filter must not modify its input")
	}
}
