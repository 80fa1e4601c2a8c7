// Package breaker implements per-failure-domain circuit breaking and bounded
// retry for external probes.
//
// A failure domain is the unit over which health is tracked, typically the
// host a strategy probes, falling back to the strategy ID when the host is
// unknown. Each domain runs an independent three-state machine:
//
//	closed ──(threshold consecutive transient failures)──▶ open
//	open ──(cooldown elapsed)──▶ half-open
//	half-open ──(probe succeeds)──▶ closed
//	half-open ──(probe fails)──▶ open, cooldown × growth factor (capped)
//
// While a domain is open, calls are rejected immediately with a CIRCUIT_OPEN
// error and no network attempt is made. Within the closed state, individual
// calls retry transient failures with exponential backoff and jitter;
// permanent failures (NOT_FOUND, PARSE_FAILURE) are never retried and do not
// count against the domain: the source answered, so the domain is healthy.
package breaker

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	verrors "github.com/verscout/verscout/pkg/errors"
	"github.com/verscout/verscout/pkg/observability"
)

// State is the circuit state of one failure domain.
type State int

const (
	// Closed passes calls through and counts consecutive failures.
	Closed State = iota
	// Open rejects calls without any network attempt.
	Open
	// HalfOpen lets exactly one probe through to test recovery.
	HalfOpen
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config holds breaker and retry policy. The zero value selects defaults;
// components receive their own Config at construction so tests can run
// isolated instances with different policies concurrently.
type Config struct {
	// FailureThreshold is the number of consecutive transient failures
	// that opens the breaker. Default 5.
	FailureThreshold int

	// OpenInterval is the initial cooldown after opening. Default 30s.
	OpenInterval time.Duration

	// GrowthFactor multiplies the cooldown each time a half-open probe
	// fails. Default 2.0.
	GrowthFactor float64

	// MaxOpenInterval caps the grown cooldown. Default 10m.
	MaxOpenInterval time.Duration

	// MaxAttempts bounds attempts per call in the closed state, including
	// the first. Default 3.
	MaxAttempts int

	// RetryBaseDelay is the delay before the first retry; it doubles per
	// attempt. Default 500ms.
	RetryBaseDelay time.Duration

	// RetryMaxDelay caps the per-attempt delay. Default 15s.
	RetryMaxDelay time.Duration

	// Jitter is the fraction of each delay that is randomized, in [0, 1].
	// Default 0.2.
	Jitter float64
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.OpenInterval <= 0 {
		c.OpenInterval = 30 * time.Second
	}
	if c.GrowthFactor <= 1 {
		c.GrowthFactor = 2.0
	}
	if c.MaxOpenInterval <= 0 {
		c.MaxOpenInterval = 10 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 500 * time.Millisecond
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = 15 * time.Second
	}
	if c.Jitter <= 0 || c.Jitter > 1 {
		c.Jitter = 0.2
	}
	return c
}

// Controller owns all failure-domain state. Domains are created lazily on
// first use. All methods are safe for concurrent use; state for different
// domains is never locked together.
type Controller struct {
	cfg    Config
	logger *log.Logger

	mu      sync.Mutex
	domains map[string]*domain
}

// domain is the mutable per-failure-domain state, guarded by its own lock so
// a slow domain never blocks probes to healthy ones.
type domain struct {
	mu           sync.Mutex
	state        State
	failures     int           // consecutive transient failures in closed state
	openUntil    time.Time     // when an open domain may probe again
	openInterval time.Duration // current cooldown, grows on repeated opens
	probing      bool          // a half-open probe is in flight
}

// NewController creates a Controller with the given policy.
func NewController(cfg Config, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		cfg:     cfg.withDefaults(),
		logger:  logger,
		domains: make(map[string]*domain),
	}
}

// State returns the current circuit state for a domain. Unknown domains are
// closed.
func (c *Controller) State(name string) State {
	c.mu.Lock()
	d, ok := c.domains[name]
	c.mu.Unlock()
	if !ok {
		return Closed
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Open && !time.Now().Before(d.openUntil) {
		return HalfOpen
	}
	return d.state
}

func (c *Controller) domain(name string) *domain {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.domains[name]
	if !ok {
		d = &domain{openInterval: c.cfg.OpenInterval}
		c.domains[name] = d
	}
	return d
}

// admit decides whether a call may proceed. It returns the number of attempts
// the call is granted (1 for a half-open probe, cfg/caller max otherwise) or
// a CIRCUIT_OPEN error.
func (c *Controller) admit(ctx context.Context, name string, maxAttempts int) (int, error) {
	d := c.domain(name)
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if d.state == Open {
		if now.Before(d.openUntil) {
			return 0, verrors.New(verrors.ErrCodeCircuitOpen,
				"domain %s unavailable until %s", name, d.openUntil.Format(time.RFC3339))
		}
		c.transition(ctx, name, d, HalfOpen)
	}

	if d.state == HalfOpen {
		if d.probing {
			return 0, verrors.New(verrors.ErrCodeCircuitOpen,
				"domain %s is testing recovery", name)
		}
		d.probing = true
		return 1, nil
	}

	return maxAttempts, nil
}

// onSuccess records a successful (or permanent-error, i.e. host-healthy)
// probe outcome.
func (c *Controller) onSuccess(ctx context.Context, name string) {
	d := c.domain(name)
	d.mu.Lock()
	defer d.mu.Unlock()

	d.failures = 0
	d.probing = false
	if d.state != Closed {
		d.openInterval = c.cfg.OpenInterval
		c.transition(ctx, name, d, Closed)
	}
}

// onAbort releases a half-open probe slot without judging the domain.
// Used when a call is cancelled before producing a real outcome.
func (c *Controller) onAbort(name string) {
	d := c.domain(name)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.probing = false
}

// onFailure records an exhausted transient failure and opens the breaker when
// the threshold is reached. A failed half-open probe reopens with a grown
// cooldown.
func (c *Controller) onFailure(ctx context.Context, name string) {
	d := c.domain(name)
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	switch d.state {
	case HalfOpen:
		d.probing = false
		grown := time.Duration(float64(d.openInterval) * c.cfg.GrowthFactor)
		d.openInterval = min(grown, c.cfg.MaxOpenInterval)
		d.openUntil = now.Add(d.openInterval)
		c.transition(ctx, name, d, Open)
	case Closed:
		d.failures++
		if d.failures >= c.cfg.FailureThreshold {
			d.failures = 0
			d.openUntil = now.Add(d.openInterval)
			c.transition(ctx, name, d, Open)
		}
	}
}

// transition flips the domain state and notifies hooks. Caller holds d.mu.
func (c *Controller) transition(ctx context.Context, name string, d *domain, to State) {
	from := d.state
	if from == to {
		return
	}
	d.state = to
	c.logger.Debug("breaker state change", "domain", name, "from", from.String(), "to", to.String())
	observability.Detection().OnBreakerStateChange(ctx, name, from.String(), to.String())
}
