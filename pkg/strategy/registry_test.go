package strategy

import (
	"context"
	"testing"
)

// stubStrategy lets tests control matching and registration metadata.
type stubStrategy struct {
	desc    Descriptor
	matches bool
}

func (s *stubStrategy) Descriptor() Descriptor { return s.desc }
func (s *stubStrategy) Matches(SoftwareEntry) bool {
	return s.matches
}
func (s *stubStrategy) Detect(context.Context, SoftwareEntry) (Detection, error) {
	return Detection{Version: "1.0"}, nil
}
func (s *stubStrategy) ExtractDownloadLocation(SoftwareEntry) string { return "" }

func ids(strategies []Strategy) []string {
	out := make([]string, len(strategies))
	for i, s := range strategies {
		out[i] = s.Descriptor().ID
	}
	return out
}

func TestCandidatesOrdering(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubStrategy{desc: Descriptor{ID: "b", Priority: 20}, matches: true})
	r.Register(&stubStrategy{desc: Descriptor{ID: "a", Priority: 10}, matches: true})
	r.Register(&stubStrategy{desc: Descriptor{ID: "skip", Priority: 1}, matches: false})

	got := ids(r.CandidatesFor(SoftwareEntry{Name: "x"}))
	want := []string{"a", "b"}
	if len(got) != len(want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", got, want)
		}
	}
}

func TestCandidatesTieBreakByRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubStrategy{desc: Descriptor{ID: "first", Priority: 10}, matches: true})
	r.Register(&stubStrategy{desc: Descriptor{ID: "second", Priority: 10}, matches: true})

	got := ids(r.CandidatesFor(SoftwareEntry{}))
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("equal priorities must keep registration order, got %v", got)
	}
}

func TestCatchAllAlwaysLast(t *testing.T) {
	r := NewRegistry()
	// Catch-all registered first with the lowest priority still sorts last.
	r.Register(&stubStrategy{desc: Descriptor{ID: "generic", Priority: 1, CatchAll: true}, matches: true})
	r.Register(&stubStrategy{desc: Descriptor{ID: "specific", Priority: 50}, matches: true})

	got := ids(r.CandidatesFor(SoftwareEntry{}))
	if got[len(got)-1] != "generic" {
		t.Errorf("catch-all must sort last, got %v", got)
	}
}

func TestRegisterIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubStrategy{desc: Descriptor{ID: "s", Priority: 10}, matches: true})
	r.Register(&stubStrategy{desc: Descriptor{ID: "s", Priority: 10}, matches: false})

	if r.Len() != 1 {
		t.Fatalf("Len = %d, re-registration must replace, not duplicate", r.Len())
	}
	// The replacement (matches=false) is in effect.
	if got := r.CandidatesFor(SoftwareEntry{}); len(got) != 0 {
		t.Errorf("replaced strategy should be in effect, got %v", ids(got))
	}
}

func TestDefaultRegistryRouting(t *testing.T) {
	r := DefaultRegistry(&fakeFetcher{})

	chrome := r.CandidatesFor(SoftwareEntry{Name: "Chrome", URL: "https://www.google.com/chrome/"})
	if len(chrome) == 0 || chrome[0].Descriptor().ID != "chrome" {
		t.Errorf("Chrome entry should route to the chrome strategy first, got %v", ids(chrome))
	}
	if chrome[len(chrome)-1].Descriptor().ID != "generic" {
		t.Errorf("generic must be the final candidate, got %v", ids(chrome))
	}

	unknown := r.CandidatesFor(SoftwareEntry{Name: "Obscure Tool", URL: "https://obscure.example.com"})
	if len(unknown) != 1 || unknown[0].Descriptor().ID != "generic" {
		t.Errorf("unknown entry should fall through to generic only, got %v", ids(unknown))
	}
}
