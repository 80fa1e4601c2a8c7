package breaker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	verrors "github.com/verscout/verscout/pkg/errors"
)

// fastConfig keeps test runs quick: no real backoff to speak of.
func fastConfig() Config {
	return Config{
		FailureThreshold: 3,
		OpenInterval:     20 * time.Millisecond,
		GrowthFactor:     2,
		MaxOpenInterval:  200 * time.Millisecond,
		MaxAttempts:      3,
		RetryBaseDelay:   time.Millisecond,
		RetryMaxDelay:    2 * time.Millisecond,
		Jitter:           0.1,
	}
}

func transientErr() error { return verrors.New(verrors.ErrCodeSourceUnavailable, "503") }
func permanentErr() error { return verrors.New(verrors.ErrCodeNotFound, "no release") }

func TestDoSuccess(t *testing.T) {
	c := NewController(fastConfig(), nil)
	calls := 0
	err := c.Do(context.Background(), "example.com", 0, func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if c.State("example.com") != Closed {
		t.Error("domain should stay closed after success")
	}
}

func TestTransientRetried(t *testing.T) {
	c := NewController(fastConfig(), nil)
	calls := 0
	err := c.Do(context.Background(), "example.com", 3, func(context.Context) error {
		calls++
		if calls < 3 {
			return transientErr()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (two retries then success)", calls)
	}
}

func TestPermanentNotRetried(t *testing.T) {
	c := NewController(fastConfig(), nil)
	calls := 0
	err := c.Do(context.Background(), "example.com", 5, func(context.Context) error {
		calls++
		return permanentErr()
	})
	if !verrors.Is(err, verrors.ErrCodeNotFound) {
		t.Fatalf("want NOT_FOUND, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, permanent errors must not be retried", calls)
	}
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	cfg := fastConfig()
	c := NewController(cfg, nil)
	ctx := context.Background()

	// Each Do exhausts MaxAttempts transient retries and counts one
	// domain failure. FailureThreshold of those opens the breaker.
	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = c.Do(ctx, "flaky.example.com", 1, func(context.Context) error {
			return transientErr()
		})
	}
	if c.State("flaky.example.com") != Open {
		t.Fatalf("state = %s, want open", c.State("flaky.example.com"))
	}

	// Calls while open are rejected before any network attempt.
	calls := 0
	err := c.Do(ctx, "flaky.example.com", 1, func(context.Context) error {
		calls++
		return nil
	})
	if !verrors.Is(err, verrors.ErrCodeCircuitOpen) {
		t.Fatalf("want CIRCUIT_OPEN, got %v", err)
	}
	if calls != 0 {
		t.Error("open breaker must not invoke the probe")
	}
}

func TestHalfOpenRecovery(t *testing.T) {
	cfg := fastConfig()
	c := NewController(cfg, nil)
	ctx := context.Background()

	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = c.Do(ctx, "d", 1, func(context.Context) error { return transientErr() })
	}

	// Wait out the cooldown; the next call is the half-open probe.
	time.Sleep(cfg.OpenInterval + 10*time.Millisecond)
	if c.State("d") != HalfOpen {
		t.Fatalf("state = %s, want half-open after cooldown", c.State("d"))
	}

	err := c.Do(ctx, "d", 1, func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("half-open probe error: %v", err)
	}
	if c.State("d") != Closed {
		t.Errorf("state = %s, want closed after successful probe", c.State("d"))
	}
}

func TestHalfOpenFailureGrowsCooldown(t *testing.T) {
	cfg := fastConfig()
	c := NewController(cfg, nil)
	ctx := context.Background()

	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = c.Do(ctx, "d", 1, func(context.Context) error { return transientErr() })
	}
	time.Sleep(cfg.OpenInterval + 10*time.Millisecond)

	// Failed probe reopens with a grown cooldown.
	_ = c.Do(ctx, "d", 1, func(context.Context) error { return transientErr() })
	if c.State("d") != Open {
		t.Fatalf("state = %s, want open after failed probe", c.State("d"))
	}

	// The original cooldown is no longer enough.
	time.Sleep(cfg.OpenInterval + 5*time.Millisecond)
	if c.State("d") != Open {
		t.Error("grown cooldown should outlast the initial interval")
	}
}

func TestHalfOpenSingleProbe(t *testing.T) {
	cfg := fastConfig()
	c := NewController(cfg, nil)
	ctx := context.Background()

	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = c.Do(ctx, "d", 1, func(context.Context) error { return transientErr() })
	}
	time.Sleep(cfg.OpenInterval + 10*time.Millisecond)

	var inFlight atomic.Int32
	release := make(chan struct{})
	probeStarted := make(chan struct{})

	go func() {
		_ = c.Do(ctx, "d", 1, func(context.Context) error {
			inFlight.Add(1)
			close(probeStarted)
			<-release
			return nil
		})
	}()

	<-probeStarted
	// A second call while the probe is in flight must be rejected.
	err := c.Do(ctx, "d", 1, func(context.Context) error { return nil })
	if !verrors.Is(err, verrors.ErrCodeCircuitOpen) {
		t.Errorf("want CIRCUIT_OPEN during half-open probe, got %v", err)
	}
	close(release)
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cfg := fastConfig()
	c := NewController(cfg, nil)
	ctx := context.Background()

	// Alternate failures and successes below the threshold; the breaker
	// must track consecutive failures, so it never opens.
	for i := 0; i < cfg.FailureThreshold*3; i++ {
		_ = c.Do(ctx, "d", 1, func(context.Context) error {
			if i%2 == 0 {
				return transientErr()
			}
			return nil
		})
	}
	if c.State("d") != Closed {
		t.Errorf("state = %s, want closed with non-consecutive failures", c.State("d"))
	}
}

func TestPermanentErrorDoesNotTripBreaker(t *testing.T) {
	cfg := fastConfig()
	c := NewController(cfg, nil)
	ctx := context.Background()

	for i := 0; i < cfg.FailureThreshold*2; i++ {
		_ = c.Do(ctx, "d", 1, func(context.Context) error { return permanentErr() })
	}
	if c.State("d") != Closed {
		t.Error("permanent errors indicate a healthy domain; breaker must stay closed")
	}
}

func TestDomainsAreIndependent(t *testing.T) {
	cfg := fastConfig()
	c := NewController(cfg, nil)
	ctx := context.Background()

	for i := 0; i < cfg.FailureThreshold; i++ {
		_ = c.Do(ctx, "bad.example.com", 1, func(context.Context) error { return transientErr() })
	}

	if c.State("bad.example.com") != Open {
		t.Fatal("bad domain should be open")
	}
	err := c.Do(ctx, "good.example.com", 1, func(context.Context) error { return nil })
	if err != nil {
		t.Errorf("healthy domain must be unaffected: %v", err)
	}
}

func TestDoCancellation(t *testing.T) {
	c := NewController(fastConfig(), nil)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Do(ctx, "d", 3, func(context.Context) error {
			calls++
			if calls == 1 {
				cancel()
			}
			return transientErr()
		})
	}()

	select {
	case err := <-errCh:
		if !verrors.Is(err, verrors.ErrCodeCanceled) {
			t.Errorf("want CANCELED, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}
