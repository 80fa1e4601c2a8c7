package breaker

import (
	"context"
	"math/rand/v2"
	"time"

	verrors "github.com/verscout/verscout/pkg/errors"
)

// Do executes fn against the named failure domain under the breaker and retry
// policy.
//
// maxAttempts overrides Config.MaxAttempts when positive; a half-open domain
// always grants exactly one attempt. Only transient errors are retried;
// permanent ones return immediately and count as a healthy probe of the
// domain. Backoff delays suspend only the calling goroutine and respect ctx
// cancellation.
func (c *Controller) Do(ctx context.Context, name string, maxAttempts int, fn func(context.Context) error) error {
	if maxAttempts <= 0 {
		maxAttempts = c.cfg.MaxAttempts
	}

	attempts, err := c.admit(ctx, name, maxAttempts)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				c.onAbort(name)
				return verrors.Wrap(verrors.ErrCodeCanceled, err, "retry aborted for %s", name)
			}
		}

		err := fn(ctx)
		if err == nil {
			c.onSuccess(ctx, name)
			return nil
		}
		lastErr = err

		if !verrors.Transient(err) {
			if verrors.GetCode(err) == verrors.ErrCodeCanceled {
				// Cancellation says nothing about domain health.
				c.onAbort(name)
			} else {
				// The source answered; the domain is healthy even
				// though this probe found nothing usable.
				c.onSuccess(ctx, name)
			}
			return err
		}
	}

	c.onFailure(ctx, name)
	return lastErr
}

// sleep blocks the calling goroutine for the attempt's backoff delay,
// doubling per attempt with jitter, capped at RetryMaxDelay.
func (c *Controller) sleep(ctx context.Context, attempt int) error {
	delay := c.cfg.RetryBaseDelay << (attempt - 1)
	if delay > c.cfg.RetryMaxDelay {
		delay = c.cfg.RetryMaxDelay
	}

	// Randomize a fraction of the delay to avoid thundering herds.
	j := c.cfg.Jitter
	delay = time.Duration(float64(delay) * (1 - j + j*rand.Float64()))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
