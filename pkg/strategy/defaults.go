package strategy

import "github.com/verscout/verscout/pkg/fetch"

// DefaultRegistry builds a Registry with every bundled strategy registered,
// probing through the given fetcher.
func DefaultRegistry(f fetch.Fetcher) *Registry {
	r := NewRegistry()
	r.Register(NewGitHub(f))
	r.Register(NewChrome(f))
	r.Register(NewFirefox(f))
	r.Register(NewJetBrains(f))
	r.Register(NewGeneric(f))
	return r
}
