// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about detection runs, cache operations, and outbound HTTP
// probes.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core engine dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetDetectionHooks(&myDetectionHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Detection().OnStrategyAttempt(ctx, software, strategyID)
//	// ... probe the source ...
//	observability.Detection().OnStrategyResult(ctx, software, strategyID, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Detection Hooks
// =============================================================================

// DetectionHooks receives events from the detection orchestrator.
type DetectionHooks interface {
	// OnDetectStart records the start of an orchestrated detection request.
	OnDetectStart(ctx context.Context, software string)

	// OnDetectComplete records the final outcome of a detection request.
	OnDetectComplete(ctx context.Context, software, strategyID string, duration time.Duration, err error)

	// OnStrategyAttempt records a single strategy probe being issued.
	OnStrategyAttempt(ctx context.Context, software, strategyID string)

	// OnStrategyResult records the outcome of a single strategy probe.
	OnStrategyResult(ctx context.Context, software, strategyID string, duration time.Duration, err error)

	// OnBreakerStateChange records a circuit breaker transition for a failure domain.
	OnBreakerStateChange(ctx context.Context, domain, from, to string)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit on the named tier.
	OnCacheHit(ctx context.Context, tier string)

	// OnCacheMiss records a cache miss on the named tier.
	OnCacheMiss(ctx context.Context, tier string)

	// OnCacheSet records a cache write on the named tier.
	OnCacheSet(ctx context.Context, tier string, size int)

	// OnCacheError records a degraded tier (read or write failure that was bypassed).
	OnCacheError(ctx context.Context, tier string, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDetectionHooks is a no-op implementation of DetectionHooks.
type NoopDetectionHooks struct{}

func (NoopDetectionHooks) OnDetectStart(context.Context, string) {}
func (NoopDetectionHooks) OnDetectComplete(context.Context, string, string, time.Duration, error) {
}
func (NoopDetectionHooks) OnStrategyAttempt(context.Context, string, string) {}
func (NoopDetectionHooks) OnStrategyResult(context.Context, string, string, time.Duration, error) {
}
func (NoopDetectionHooks) OnBreakerStateChange(context.Context, string, string, string) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)          {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)         {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)     {}
func (NoopCacheHooks) OnCacheError(context.Context, string, error) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	detectionHooks DetectionHooks = NoopDetectionHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	httpHooks      HTTPHooks      = NoopHTTPHooks{}
	hooksMu        sync.RWMutex
)

// SetDetectionHooks registers custom detection hooks.
// This should be called once at application startup before any detection runs.
func SetDetectionHooks(h DetectionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		detectionHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Detection returns the registered detection hooks.
func Detection() DetectionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return detectionHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	detectionHooks = NoopDetectionHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
