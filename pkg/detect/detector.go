// Package detect implements the detection orchestrator: the component that,
// given a software entry, consults the tiered cache, walks the ordered
// strategy candidates under admission, circuit-breaker and retry policy until
// one yields a version, then writes through the cache and emits an outcome
// event.
//
// The orchestrator owns no strategy logic and no network code. It decides
// which strategy runs, in what order, how failures are tolerated, and which
// single result is authoritative (first success wins).
package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/verscout/verscout/pkg/breaker"
	"github.com/verscout/verscout/pkg/cache"
	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/fetch"
	"github.com/verscout/verscout/pkg/limiter"
	"github.com/verscout/verscout/pkg/observability"
	"github.com/verscout/verscout/pkg/strategy"
	"github.com/verscout/verscout/pkg/version"
)

// TTLPolicy decides the cache TTL for a fresh result. prev is the previously
// cached version (nil when none), next the newly detected one. Returning base
// keeps the configured default; policies may shorten the TTL for software
// observed to change frequently.
type TTLPolicy func(prev, next *version.Version, base time.Duration) time.Duration

// Config holds orchestrator policy. Passed at construction; never ambient.
type Config struct {
	// CacheTTL is the base TTL for cached results. Default 1h.
	CacheTTL time.Duration

	// TTLPolicy adapts the TTL per write. Nil keeps CacheTTL as is.
	TTLPolicy TTLPolicy

	// Breaker is the circuit-breaker and retry policy.
	Breaker breaker.Config

	// Limiter is the admission policy.
	Limiter limiter.Config
}

// DefaultCacheTTL applies when Config.CacheTTL is zero.
const DefaultCacheTTL = time.Hour

// StrategyStats are per-strategy outcome counters, recorded for
// observability. They never influence candidate ordering.
type StrategyStats struct {
	Successes uint64
	Failures  uint64
}

// Orchestrator coordinates detection requests. Safe for concurrent use.
type Orchestrator struct {
	cfg      Config
	registry *strategy.Registry
	cache    cache.Cache
	breaker  *breaker.Controller
	limiter  *limiter.Limiter
	logger   *log.Logger
	bus      *Bus

	statsMu sync.Mutex
	stats   map[string]*StrategyStats
}

// New creates an Orchestrator over the given registry and cache. The breaker
// and limiter are built from cfg so isolated instances can run different
// policies concurrently. A nil cache disables caching entirely.
func New(cfg Config, registry *strategy.Registry, c cache.Cache, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Orchestrator{
		cfg:      cfg,
		registry: registry,
		cache:    c,
		breaker:  breaker.NewController(cfg.Breaker, logger),
		limiter:  limiter.New(cfg.Limiter),
		logger:   logger,
		bus:      NewBus(),
		stats:    make(map[string]*StrategyStats),
	}
}

// Events returns the outcome event bus for subscribers.
func (o *Orchestrator) Events() *Bus { return o.bus }

// cachedResult is the wire form a successful result is cached as. The parsed
// Version is rebuilt from the raw string on read, so parsing rules can evolve
// without invalidating stored entries.
type cachedResult struct {
	Name        string    `json:"name"`
	RawVersion  string    `json:"raw_version"`
	DownloadURL string    `json:"download_url,omitempty"`
	ReleasedAt  time.Time `json:"released_at,omitzero"`
	StrategyID  string    `json:"strategy_id"`
	DetectedAt  time.Time `json:"detected_at"`
}

// Detect resolves the current version for one software entry.
//
// It never returns an error: failures are reported through the result's
// Success flag, Err and Failures fields, so batch callers get per-entry
// isolation for free.
func (o *Orchestrator) Detect(ctx context.Context, entry SoftwareEntry, opts Options) DetectionResult {
	start := time.Now()
	res := DetectionResult{
		RequestID:   uuid.NewString(),
		Software:    entry,
		Fingerprint: cache.Fingerprint(entry.Name, entry.Hints.SourceFamily),
		DetectedAt:  start,
	}

	observability.Detection().OnDetectStart(ctx, entry.Name)
	logger := o.logger.With("request", res.RequestID, "software", entry.Name)

	if entry.Name == "" {
		res.Err = verrors.New(verrors.ErrCodeInvalidInput, "software name is required")
		return o.finish(ctx, logger, res, start, nil)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if opts.UseCache {
		if hit, ok := o.readCache(ctx, logger, res.Fingerprint); ok {
			res.Success = true
			res.FromCache = true
			res.RawVersion = hit.RawVersion
			res.Version = version.Parse(hit.RawVersion)
			res.DownloadURL = hit.DownloadURL
			res.ReleasedAt = hit.ReleasedAt
			res.StrategyID = hit.StrategyID
			res.DetectedAt = hit.DetectedAt
			return o.finish(ctx, logger, res, start, nil)
		}
	}

	candidates := o.registry.CandidatesFor(entry)
	if len(candidates) == 0 {
		res.Err = verrors.New(verrors.ErrCodeExhausted,
			"no candidate strategies for %q", entry.Name)
		return o.finish(ctx, logger, res, start, nil)
	}

	var lastErr error
	var failures error
	for _, cand := range candidates {
		desc := cand.Descriptor()
		domain := failureDomain(desc, entry)

		// Open domains are skipped without consuming an attempt slot;
		// the next candidate runs immediately.
		if o.breaker.State(domain) == breaker.Open {
			err := verrors.New(verrors.ErrCodeCircuitOpen, "domain %s unavailable", domain)
			logger.Debug("candidate skipped", "strategy", desc.ID, "domain", domain)
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", desc.ID, err))
			lastErr = err
			continue
		}

		release, err := o.limiter.Acquire(ctx, domain)
		if err != nil {
			lastErr = err
			break
		}

		var det strategy.Detection
		attemptStart := time.Now()
		err = o.breaker.Do(ctx, domain, opts.MaxAttemptsPerStrategy, func(ctx context.Context) error {
			observability.Detection().OnStrategyAttempt(ctx, entry.Name, desc.ID)
			d, derr := cand.Detect(ctx, entry)
			observability.Detection().OnStrategyResult(ctx, entry.Name, desc.ID, time.Since(attemptStart), derr)
			if derr == nil {
				det = d
			}
			return derr
		})
		release()

		if err != nil {
			o.recordStat(desc.ID, false)
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", desc.ID, err))
			lastErr = err
			logger.Debug("candidate failed", "strategy", desc.ID, "error", err)
			if verrors.Is(err, verrors.ErrCodeCanceled) {
				break
			}
			continue
		}

		if det.Version == "" {
			err := verrors.New(verrors.ErrCodeParseFailure,
				"strategy %s produced an empty version", desc.ID)
			o.recordStat(desc.ID, false)
			failures = multierr.Append(failures, fmt.Errorf("%s: %w", desc.ID, err))
			lastErr = err
			continue
		}

		// First success wins; remaining candidates are not tried.
		o.recordStat(desc.ID, true)
		res.Success = true
		res.RawVersion = det.Version
		res.Version = version.Parse(det.Version)
		res.DownloadURL = det.DownloadURL
		if res.DownloadURL == "" {
			res.DownloadURL = cand.ExtractDownloadLocation(entry)
		}
		res.ReleasedAt = det.ReleasedAt
		res.StrategyID = desc.ID
		break
	}

	res.Failures = multierr.Errors(failures)
	if !res.Success {
		res.Err = lastErr
	}

	var prev *version.Version
	if res.Success {
		// Read the superseded entry before overwriting it: the previous
		// version rides on the version-detected event so subscribers can
		// decide whether this result is news. Writes happen even when the
		// caller bypassed the cache read, so a forced fresh probe still
		// refreshes every tier.
		prev = o.previousVersion(ctx, res.Fingerprint)
		o.writeCache(ctx, logger, res, prev)
	}
	return o.finish(ctx, logger, res, start, prev)
}

// DetectBatch resolves many entries concurrently. Results correspond to input
// order regardless of completion order. One entry's failure never affects its
// siblings; cancellation stops admitting new probes and returns whatever each
// entry had reached.
func (o *Orchestrator) DetectBatch(ctx context.Context, entries []SoftwareEntry, opts BatchOptions) []DetectionResult {
	limit := opts.ConcurrencyLimit
	if limit <= 0 {
		limit = DefaultBatchConcurrency
	}

	start := time.Now()
	results := make([]DetectionResult, len(entries))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, entry := range entries {
		g.Go(func() error {
			results[i] = o.Detect(ctx, entry, opts.Options)
			return nil
		})
	}
	g.Wait()

	summary := BatchSummary{Total: len(entries), Duration: time.Since(start)}
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	o.bus.Publish(Event{Type: EventBatchCompleted, Batch: &summary})
	o.logger.Info("batch completed",
		"total", summary.Total, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "duration", summary.Duration)
	return results
}

// InvalidateCache removes cached results immediately, regardless of TTL.
//
// key is either a full fingerprint ("detect:...") or a software name; a name
// invalidates the entry under every registered source family plus the
// family-less fingerprint.
func (o *Orchestrator) InvalidateCache(ctx context.Context, key string) error {
	if strings.HasPrefix(key, "detect:") {
		return o.cache.Delete(ctx, key)
	}

	families := map[string]struct{}{"": {}}
	for _, d := range o.registry.Descriptors() {
		families[d.SourceFamily] = struct{}{}
	}

	var errs error
	for family := range families {
		if err := o.cache.Delete(ctx, cache.Fingerprint(key, family)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Stats returns a copy of the per-strategy outcome counters.
func (o *Orchestrator) Stats() map[string]StrategyStats {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()

	out := make(map[string]StrategyStats, len(o.stats))
	for id, s := range o.stats {
		out[id] = *s
	}
	return out
}

func (o *Orchestrator) recordStat(id string, success bool) {
	o.statsMu.Lock()
	defer o.statsMu.Unlock()

	s, ok := o.stats[id]
	if !ok {
		s = &StrategyStats{}
		o.stats[id] = s
	}
	if success {
		s.Successes++
	} else {
		s.Failures++
	}
}

// readCache attempts a cache read. Errors are logged and treated as misses;
// caching is an optimization, never a correctness dependency.
func (o *Orchestrator) readCache(ctx context.Context, logger *log.Logger, fp string) (cachedResult, bool) {
	data, hit, err := o.cache.Get(ctx, fp)
	if err != nil {
		logger.Warn("cache read failed", "fingerprint", fp, "error", err)
		return cachedResult{}, false
	}
	if !hit {
		return cachedResult{}, false
	}

	var cr cachedResult
	if err := json.Unmarshal(data, &cr); err != nil {
		logger.Warn("cache entry corrupt", "fingerprint", fp, "error", err)
		return cachedResult{}, false
	}
	return cr, true
}

// writeCache stores a successful result under its fingerprint. prev is the
// version the entry is superseding, consumed by the TTL policy.
func (o *Orchestrator) writeCache(ctx context.Context, logger *log.Logger, res DetectionResult, prev *version.Version) {
	cr := cachedResult{
		Name:        res.Software.Name,
		RawVersion:  res.RawVersion,
		DownloadURL: res.DownloadURL,
		ReleasedAt:  res.ReleasedAt,
		StrategyID:  res.StrategyID,
		DetectedAt:  res.DetectedAt,
	}
	data, err := json.Marshal(cr)
	if err != nil {
		logger.Warn("cache encode failed", "fingerprint", res.Fingerprint, "error", err)
		return
	}

	ttl := o.cfg.CacheTTL
	if o.cfg.TTLPolicy != nil {
		next := res.Version
		ttl = o.cfg.TTLPolicy(prev, &next, ttl)
	}
	if err := o.cache.Set(ctx, res.Fingerprint, data, ttl); err != nil {
		logger.Warn("cache write failed", "fingerprint", res.Fingerprint, "error", err)
	}
}

// previousVersion reads the version cached under fp, or nil when none.
func (o *Orchestrator) previousVersion(ctx context.Context, fp string) *version.Version {
	data, hit, err := o.cache.Get(ctx, fp)
	if err != nil || !hit {
		return nil
	}
	var cr cachedResult
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil
	}
	v := version.Parse(cr.RawVersion)
	return &v
}

// finish stamps the result, emits the outcome event and completion hook, and
// returns the result unchanged thereafter.
func (o *Orchestrator) finish(ctx context.Context, logger *log.Logger, res DetectionResult, start time.Time, prev *version.Version) DetectionResult {
	res.Duration = time.Since(start)

	if res.Success {
		o.bus.Publish(Event{Type: EventVersionDetected, Result: &res, Previous: prev})
		logger.Info("version detected",
			"version", res.RawVersion, "strategy", res.StrategyID,
			"cached", res.FromCache, "duration", res.Duration)
		observability.Detection().OnDetectComplete(ctx, res.Software.Name, res.StrategyID, res.Duration, nil)
		return res
	}

	o.bus.Publish(Event{Type: EventDetectionFailed, Result: &res})
	logger.Warn("detection failed", "error", res.Err, "duration", res.Duration)
	observability.Detection().OnDetectComplete(ctx, res.Software.Name, res.StrategyID, res.Duration, res.Err)
	return res
}

// failureDomain keys breaker and admission state: the strategy's fixed probe
// host when it has one, else the entry URL's host, else the strategy ID.
func failureDomain(desc strategy.Descriptor, entry SoftwareEntry) string {
	if desc.Host != "" {
		return desc.Host
	}
	if host := fetch.Host(entry.URL); host != "" {
		return host
	}
	return desc.ID
}
