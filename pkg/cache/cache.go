// Package cache provides the tiered result cache for the detection engine.
//
// A cache key is a fingerprint derived from the normalized software name and
// its source family. Entries carry a per-entry TTL and are superseded, never
// mutated, on refresh.
//
// Tier implementations share one small interface:
//   - [MemoryCache]: in-process fast tier
//   - [RedisCache]: shared tier for multi-instance deployments
//   - [BoltCache]: embedded durable tier (single file, CLI friendly)
//   - [MongoCache]: durable tier for server deployments
//   - [FileCache]: directory-backed tier, one entry per file
//   - [NullCache]: disabled caching
//
// [Tiered] composes tiers fast→shared→durable: reads return the first hit and
// back-fill faster tiers, writes populate every tier, and a failing tier is
// skipped; caching is an optimization, never a correctness dependency.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// Sentinel errors for caching operations.
var (
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache closed")
)

// Cache is the contract implemented by every tier.
//
// Get returns (data, true, nil) on a hit, (nil, false, nil) on a miss, and a
// non-nil error only for backend failures. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL. A TTL of 0 means
	// the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// NormalizeName canonicalizes a software name for fingerprinting: lowercase,
// trimmed, inner whitespace collapsed to single hyphens.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}

// Fingerprint derives the cache key for a (software, source family) pair.
// Equal inputs always produce equal fingerprints.
func Fingerprint(name, family string) string {
	if family == "" {
		family = "any"
	}
	return "detect:" + NormalizeName(name) + ":" + strings.ToLower(family)
}
