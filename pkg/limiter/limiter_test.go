package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	verrors "github.com/verscout/verscout/pkg/errors"
)

func TestAcquireRelease(t *testing.T) {
	l := New(Config{GlobalLimit: 2, PerDomainLimit: 1})
	ctx := context.Background()

	release, err := l.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}

	// Same domain is saturated; a different domain still fits.
	if _, ok := l.TryAcquire("example.com"); ok {
		t.Error("per-domain limit of 1 should block a second acquisition")
	}
	other, ok := l.TryAcquire("other.com")
	if !ok {
		t.Fatal("other domain should be admitted")
	}
	other()

	release()
	r2, ok := l.TryAcquire("example.com")
	if !ok {
		t.Error("released permit should be reusable")
	}
	r2()
}

func TestReleaseIdempotent(t *testing.T) {
	l := New(Config{GlobalLimit: 1, PerDomainLimit: 1})

	release, err := l.Acquire(context.Background(), "d")
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	release()
	release() // double release must not free a second permit

	r2, ok := l.TryAcquire("d")
	if !ok {
		t.Fatal("permit should be free after release")
	}
	if _, ok := l.TryAcquire("d"); ok {
		t.Error("double release should not mint an extra permit")
	}
	r2()
}

func TestGlobalCeiling(t *testing.T) {
	l := New(Config{GlobalLimit: 2, PerDomainLimit: 10})

	r1, _ := l.TryAcquire("a.com")
	r2, _ := l.TryAcquire("b.com")
	if r1 == nil || r2 == nil {
		t.Fatal("first two acquisitions should succeed")
	}
	if _, ok := l.TryAcquire("c.com"); ok {
		t.Error("global limit of 2 should block a third acquisition")
	}
	r1()
	r2()
}

func TestAcquireCancellation(t *testing.T) {
	l := New(Config{GlobalLimit: 1, PerDomainLimit: 1})
	release, err := l.Acquire(context.Background(), "d")
	if err != nil {
		t.Fatalf("Acquire error: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = l.Acquire(ctx, "d")
	if !verrors.Is(err, verrors.ErrCodeCanceled) {
		t.Errorf("want CANCELED for blocked acquisition, got %v", err)
	}
}

func TestPerDomainPeak(t *testing.T) {
	const (
		requests = 50
		limit    = 5
	)
	l := New(Config{GlobalLimit: requests, PerDomainLimit: limit})
	ctx := context.Background()

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(ctx, "hot.example.com")
			if err != nil {
				t.Errorf("Acquire error: %v", err)
				return
			}
			defer release()

			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > limit {
		t.Errorf("peak concurrency = %d, want <= %d", p, limit)
	}
}

func TestDefaults(t *testing.T) {
	l := New(Config{})
	if l.cfg.GlobalLimit != DefaultGlobalLimit {
		t.Errorf("GlobalLimit = %d, want %d", l.cfg.GlobalLimit, DefaultGlobalLimit)
	}
	if l.cfg.PerDomainLimit != DefaultPerDomainLimit {
		t.Errorf("PerDomainLimit = %d, want %d", l.cfg.PerDomainLimit, DefaultPerDomainLimit)
	}
}
