package strategy

import (
	"sort"
	"sync"
)

// Registry holds the registered strategies and answers ordered candidate
// lists. Registration normally happens once at process start; all methods are
// nevertheless safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []registered
	nextSeq int
}

type registered struct {
	strategy Strategy
	seq      int // registration order, breaks priority ties
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a strategy. Registering an ID that already exists replaces
// the prior strategy in place, keeping its registration order.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := s.Descriptor().ID
	for i, e := range r.entries {
		if e.strategy.Descriptor().ID == id {
			r.entries[i].strategy = s
			return
		}
	}
	r.entries = append(r.entries, registered{strategy: s, seq: r.nextSeq})
	r.nextSeq++
}

// CandidatesFor returns the strategies that match the entry, ordered by
// priority ascending, ties broken by registration order. A catch-all strategy
// always sorts last.
func (r *Registry) CandidatesFor(entry SoftwareEntry) []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []registered
	for _, e := range r.entries {
		if e.strategy.Matches(entry) {
			matched = append(matched, e)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		di, dj := matched[i].strategy.Descriptor(), matched[j].strategy.Descriptor()
		if di.CatchAll != dj.CatchAll {
			return dj.CatchAll
		}
		if di.Priority != dj.Priority {
			return di.Priority < dj.Priority
		}
		return matched[i].seq < matched[j].seq
	})

	out := make([]Strategy, len(matched))
	for i, e := range matched {
		out[i] = e.strategy
	}
	return out
}

// Descriptors returns all registered descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Descriptor, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.strategy.Descriptor()
	}
	return out
}

// Len returns the number of registered strategies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
