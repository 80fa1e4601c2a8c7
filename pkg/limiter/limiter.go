// Package limiter bounds concurrent external probes with a global ceiling and
// an independent per-domain ceiling.
//
// Both ceilings are enforced with weighted semaphores, so waiters are served
// in FIFO order and blocked acquisitions unwind cleanly when their context is
// canceled. A probe holds both permits for its full duration; releasing is the
// caller's responsibility via the returned release function.
package limiter

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	verrors "github.com/verscout/verscout/pkg/errors"
)

// Default ceilings applied when a Config field is zero.
const (
	DefaultGlobalLimit    = 16
	DefaultPerDomainLimit = 4
)

// Config holds admission ceilings. The zero value selects defaults.
type Config struct {
	// GlobalLimit caps in-flight probes across all domains.
	GlobalLimit int

	// PerDomainLimit caps in-flight probes against one failure domain.
	PerDomainLimit int
}

func (c Config) withDefaults() Config {
	if c.GlobalLimit <= 0 {
		c.GlobalLimit = DefaultGlobalLimit
	}
	if c.PerDomainLimit <= 0 {
		c.PerDomainLimit = DefaultPerDomainLimit
	}
	return c
}

// Limiter grants admission for probes. Safe for concurrent use.
type Limiter struct {
	cfg    Config
	global *semaphore.Weighted

	mu      sync.Mutex
	domains map[string]*semaphore.Weighted
}

// New creates a Limiter with the given ceilings.
func New(cfg Config) *Limiter {
	cfg = cfg.withDefaults()
	return &Limiter{
		cfg:     cfg,
		global:  semaphore.NewWeighted(int64(cfg.GlobalLimit)),
		domains: make(map[string]*semaphore.Weighted),
	}
}

func (l *Limiter) domain(name string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.domains[name]
	if !ok {
		sem = semaphore.NewWeighted(int64(l.cfg.PerDomainLimit))
		l.domains[name] = sem
	}
	return sem
}

// Acquire blocks until both the global and the domain permit are granted, or
// ctx is canceled. On success it returns a release function that must be
// called exactly once when the probe finishes.
//
// The domain permit is taken first, so a caller queued on a saturated domain
// never holds global capacity hostage while it waits.
func (l *Limiter) Acquire(ctx context.Context, domainName string) (func(), error) {
	sem := l.domain(domainName)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, verrors.Wrap(verrors.ErrCodeCanceled, err, "admission canceled for %s", domainName)
	}

	if err := l.global.Acquire(ctx, 1); err != nil {
		sem.Release(1)
		return nil, verrors.Wrap(verrors.ErrCodeCanceled, err, "admission canceled")
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.global.Release(1)
			sem.Release(1)
		})
	}, nil
}

// TryAcquire is the non-blocking variant of Acquire. It returns false without
// waiting when either permit is unavailable.
func (l *Limiter) TryAcquire(domainName string) (func(), bool) {
	sem := l.domain(domainName)
	if !sem.TryAcquire(1) {
		return nil, false
	}
	if !l.global.TryAcquire(1) {
		sem.Release(1)
		return nil, false
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.global.Release(1)
			sem.Release(1)
		})
	}, true
}
