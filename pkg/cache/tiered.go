package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/multierr"

	"github.com/verscout/verscout/pkg/observability"
)

// Tier is a named cache layer inside a [Tiered] composition. The name shows
// up in logs and cache hooks ("memory", "redis", "bolt", ...).
type Tier struct {
	Name  string
	Cache Cache
}

// Tiered composes cache tiers ordered fast → shared → durable.
//
// Reads are attempted tier-by-tier; the first hit wins and back-fills the
// faster tiers with the entry's remaining TTL. Writes populate all tiers.
// A failing tier degrades to the next one and never fails the caller.
type Tiered struct {
	tiers  []Tier
	logger *log.Logger
}

// envelope carries the expiry alongside the payload so back-filled entries
// keep their original deadline even in tiers that ignore TTLs.
type envelope struct {
	Payload   []byte    `json:"payload"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// NewTiered creates a tiered cache. Tiers are consulted in argument order.
// If no tiers are given, every operation is a no-op (equivalent to NullCache).
func NewTiered(logger *log.Logger, tiers ...Tier) *Tiered {
	if logger == nil {
		logger = log.Default()
	}
	return &Tiered{tiers: tiers, logger: logger}
}

// Get returns the first hit across tiers and back-fills faster tiers.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for i, tier := range t.tiers {
		raw, hit, err := tier.Cache.Get(ctx, key)
		if err != nil {
			observability.Cache().OnCacheError(ctx, tier.Name, err)
			t.logger.Warn("cache tier read failed", "tier", tier.Name, "error", err)
			continue
		}
		if !hit {
			observability.Cache().OnCacheMiss(ctx, tier.Name)
			continue
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			observability.Cache().OnCacheError(ctx, tier.Name, err)
			_ = tier.Cache.Delete(ctx, key)
			continue
		}
		if !env.ExpiresAt.IsZero() && time.Now().After(env.ExpiresAt) {
			_ = tier.Cache.Delete(ctx, key)
			observability.Cache().OnCacheMiss(ctx, tier.Name)
			continue
		}

		observability.Cache().OnCacheHit(ctx, tier.Name)
		t.backfill(ctx, key, raw, env.ExpiresAt, t.tiers[:i])
		return env.Payload, true, nil
	}
	return nil, false, nil
}

// Set writes through every tier. Failing tiers are logged and skipped; the
// combined error is returned for observability but may be ignored safely.
func (t *Tiered) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	env := envelope{Payload: data}
	if ttl > 0 {
		env.ExpiresAt = time.Now().Add(ttl)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}

	var errs error
	for _, tier := range t.tiers {
		if err := tier.Cache.Set(ctx, key, raw, ttl); err != nil {
			observability.Cache().OnCacheError(ctx, tier.Name, err)
			t.logger.Warn("cache tier write failed", "tier", tier.Name, "error", err)
			errs = multierr.Append(errs, err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, tier.Name, len(raw))
	}
	return errs
}

// Delete removes the key from all tiers immediately regardless of TTL.
func (t *Tiered) Delete(ctx context.Context, key string) error {
	var errs error
	for _, tier := range t.tiers {
		if err := tier.Cache.Delete(ctx, key); err != nil {
			observability.Cache().OnCacheError(ctx, tier.Name, err)
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Close closes every tier.
func (t *Tiered) Close() error {
	var errs error
	for _, tier := range t.tiers {
		errs = multierr.Append(errs, tier.Cache.Close())
	}
	return errs
}

// backfill copies a hit into the faster tiers with its remaining lifetime.
func (t *Tiered) backfill(ctx context.Context, key string, raw []byte, expiresAt time.Time, faster []Tier) {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			return
		}
	}
	for _, tier := range faster {
		if err := tier.Cache.Set(ctx, key, raw, ttl); err != nil {
			observability.Cache().OnCacheError(ctx, tier.Name, err)
		}
	}
}

var _ Cache = (*Tiered)(nil)
