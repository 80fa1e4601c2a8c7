// Package pkg provides the core libraries for verscout version detection.
//
// # Overview
//
// Verscout discovers the latest published version of software titles by
// probing external sources. The pkg directory is organized into four main
// areas:
//
//  1. [strategy] - Detection strategies (release APIs, vendor pages)
//  2. [detect] - Orchestration (strategy selection, events, caching policy)
//  3. [breaker], [limiter] - Resilience (circuit breaking, concurrency caps)
//  4. [cache], [fetch], [config] - Infrastructure (storage tiers, HTTP, settings)
//
// # Architecture
//
// The typical data flow through verscout:
//
//	Software Entry (name, URL, hints)
//	         ↓
//	[detect] Orchestrator: fingerprint, cache lookup
//	         ↓
//	[strategy] Registry: ordered candidates
//	         ↓
//	[breaker] + [limiter]: guarded probe via [fetch]
//	         ↓
//	[version]: parse and compare
//	         ↓
//	[cache]: write-through, [detect] events out
//
// Supporting packages: [errors] defines the error taxonomy shared across
// the module, [observability] carries lifecycle hooks, and [buildinfo]
// holds build-time version stamps.
package pkg
