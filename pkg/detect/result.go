package detect

import (
	"time"

	"github.com/verscout/verscout/pkg/strategy"
	"github.com/verscout/verscout/pkg/version"
)

// SoftwareEntry is the caller-facing input type, re-exported for convenience.
type SoftwareEntry = strategy.SoftwareEntry

// Hints is re-exported alongside SoftwareEntry.
type Hints = strategy.Hints

// DetectionResult is the single authoritative outcome of one orchestrated
// request. Produced exactly once per request and immutable after creation; it
// is the unit cached and the unit handed to event subscribers.
type DetectionResult struct {
	// RequestID uniquely identifies the orchestrated request.
	RequestID string

	// Software is the entry the request was made for.
	Software SoftwareEntry

	// Fingerprint is the cache key the result is stored under.
	Fingerprint string

	// Success reports whether any strategy produced a version.
	Success bool

	// Version is the resolved version. Zero when Success is false.
	Version version.Version

	// RawVersion is the version string as published by the source.
	RawVersion string

	// DownloadURL is the download location, when one was found.
	DownloadURL string

	// ReleasedAt is the source's publication timestamp, when exposed.
	ReleasedAt time.Time

	// StrategyID identifies the strategy that produced the result.
	StrategyID string

	// FromCache reports whether the result was served from cache rather
	// than a fresh probe.
	FromCache bool

	// Duration is the wall time of the orchestrated request.
	Duration time.Duration

	// DetectedAt is when the result was produced. For cached results this
	// is the original detection time, not the cache-read time.
	DetectedAt time.Time

	// Err is the authoritative error for a failed request: the last
	// permanent or exhausted error observed across candidates.
	Err error

	// Failures lists every per-strategy failure for diagnostics, in
	// candidate order. Populated on failure and on success when earlier
	// candidates failed first.
	Failures []error
}

// Options tunes a single detection request.
//
// The zero value skips the cache read and applies engine defaults for the
// rest; start from [DefaultOptions] for the usual behavior.
type Options struct {
	// Timeout bounds the whole request, probes and backoff included.
	// Zero applies DefaultTimeout.
	Timeout time.Duration

	// UseCache enables the cache read before probing. Successful fresh
	// probes always write through, so disabling this forces a fresh
	// detection that still refreshes the cache.
	UseCache bool

	// MaxAttemptsPerStrategy bounds attempts per strategy call, including
	// the first. Zero applies the breaker config default.
	MaxAttemptsPerStrategy int
}

// DefaultTimeout bounds a detection request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// DefaultOptions returns the standard single-detection options.
func DefaultOptions() Options {
	return Options{Timeout: DefaultTimeout, UseCache: true}
}

// BatchOptions tunes a batch detection run.
type BatchOptions struct {
	Options

	// ConcurrencyLimit caps entries detected in parallel. Zero applies
	// DefaultBatchConcurrency.
	ConcurrencyLimit int
}

// DefaultBatchConcurrency caps parallel entries when
// BatchOptions.ConcurrencyLimit is zero.
const DefaultBatchConcurrency = 8

// DefaultBatchOptions returns the standard batch options.
func DefaultBatchOptions() BatchOptions {
	return BatchOptions{Options: DefaultOptions(), ConcurrencyLimit: DefaultBatchConcurrency}
}
