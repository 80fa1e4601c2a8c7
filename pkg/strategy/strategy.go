// Package strategy defines the detection strategy contract and the registry
// that orders candidate strategies for a software entry.
//
// A strategy binds one source family (a release API, a vendor site, a generic
// page scan) to the detection engine. Strategies are leaves: they probe via an
// injected [fetch.Fetcher], never retry internally, and never talk to the
// orchestrator. New sources are added by registering a new strategy, not by
// dynamic discovery.
package strategy

import (
	"context"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/verscout/verscout/pkg/fetch"
)

// Capability tags how a strategy obtains its data.
type Capability string

const (
	// CapabilityAPI strategies call a structured endpoint.
	CapabilityAPI Capability = "api"
	// CapabilityScraping strategies fetch a page and extract from its text.
	CapabilityScraping Capability = "scraping"
	// CapabilityHybrid strategies combine both when the sub-steps are
	// inseparable. Separable fallbacks belong in registry ordering instead.
	CapabilityHybrid Capability = "hybrid"
)

// SoftwareEntry identifies one software title to detect. Immutable input,
// created by the caller and read-only to the engine.
type SoftwareEntry struct {
	// Name is the human-facing software title, e.g. "Chrome".
	Name string

	// URL is the primary lookup URL, typically the vendor page.
	URL string

	// Hints carry optional caller knowledge that short-circuits matching.
	Hints Hints
}

// Hints are optional routing aids attached to a SoftwareEntry.
type Hints struct {
	// SourceFamily pins the entry to one strategy's source family
	// ("github", "chrome", ...). Empty means "let matching decide".
	SourceFamily string

	// Repo is a known "owner/name" repository identifier for entries
	// hosted on a source-code platform.
	Repo string
}

// Descriptor is the static registration metadata of a strategy.
type Descriptor struct {
	// ID uniquely identifies the strategy. Re-registering an ID replaces
	// the prior strategy.
	ID string

	// Priority ranks candidates; lower is tried first. Ties break by
	// registration order.
	Priority int

	// Capability tags the probing style.
	Capability Capability

	// SourceFamily names the source family for cache fingerprints.
	SourceFamily string

	// Host is the single external host this strategy probes, or "" when
	// the probed host depends on the entry. Used as the failure-domain
	// key for circuit breaking and admission.
	Host string

	// CatchAll marks the generic fallback, which always sorts last
	// regardless of priority.
	CatchAll bool
}

// Detection is a strategy's raw probe outcome before version parsing.
type Detection struct {
	// Version is the raw version string as published by the source.
	Version string

	// DownloadURL is the download location when the source exposes one.
	DownloadURL string

	// ReleasedAt is the publication timestamp when the source exposes one.
	ReleasedAt time.Time
}

// Strategy is the polymorphic detection contract.
type Strategy interface {
	// Descriptor returns the static registration metadata.
	Descriptor() Descriptor

	// Matches reports whether this strategy can handle the entry. Pure
	// predicate: deterministic, no I/O, no side effects.
	Matches(entry SoftwareEntry) bool

	// Detect probes the source for the entry's current version. It must
	// respect ctx's deadline and perform exactly one attempt; retrying is
	// the orchestrator's responsibility. Failures carry pkg/errors codes.
	Detect(ctx context.Context, entry SoftwareEntry) (Detection, error)

	// ExtractDownloadLocation returns a best-effort download URL for the
	// entry, or "" when none can be derived. Independent of Detect.
	ExtractDownloadLocation(entry SoftwareEntry) string
}

// hostMatcher compiles glob patterns over URL hosts. Patterns follow
// gobwas/glob syntax with "." as separator, e.g. "*.github.com".
type hostMatcher []glob.Glob

func newHostMatcher(patterns ...string) hostMatcher {
	m := make(hostMatcher, 0, len(patterns))
	for _, p := range patterns {
		m = append(m, glob.MustCompile(p, '.'))
	}
	return m
}

// match reports whether the URL's host matches any pattern.
func (m hostMatcher) match(rawURL string) bool {
	host := strings.ToLower(fetch.Host(rawURL))
	if host == "" {
		return false
	}
	for _, g := range m {
		if g.Match(host) {
			return true
		}
	}
	return false
}

// nameContains reports whether the entry name contains the token,
// case-insensitively.
func nameContains(entry SoftwareEntry, token string) bool {
	return strings.Contains(strings.ToLower(entry.Name), token)
}
