package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jdziat/entrybatch/pkg/security"
)

// Policy holds the attempt budget and backoff between attempts.
type Policy struct {
	// MaxAttempts is the number of attempts per record (including the first).
	// Default: 3
	MaxAttempts int

	// InitialBackoff is the pause before the second attempt.
	// Default: 1s
	InitialBackoff time.Duration

	// MaxBackoff caps the pause between attempts.
	// Default: 10s
	MaxBackoff time.Duration

	// Multiplier is applied to the backoff after each attempt.
	// Default: 2.0
	Multiplier float64

	// JitterFraction is the fraction of backoff to randomize (0.0 to 1.0).
	// Default: 0.1 (10% jitter)
	JitterFraction float64
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// Attempts returns the clamped attempt budget.
func (p Policy) Attempts() int {
	return security.ClampAttempts(p.MaxAttempts)
}

// Backoff returns the pause to apply after the given failed attempt (1-based),
// without jitter.
func (p Policy) Backoff(attempt int) time.Duration {
	if p.InitialBackoff <= 0 || attempt < 1 {
		return 0
	}
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	backoff := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		backoff *= mult
		if p.MaxBackoff > 0 && time.Duration(backoff) >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	d := time.Duration(backoff)
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

func (p Policy) jittered(attempt int) time.Duration {
	backoff := p.Backoff(attempt)
	if backoff <= 0 || p.JitterFraction <= 0 {
		return backoff
	}
	jitter := time.Duration(float64(backoff) * p.JitterFraction * (rand.Float64()*2 - 1))
	if d := backoff + jitter; d > 0 {
		return d
	}
	return backoff
}

// Wait sleeps for the backoff after the given failed attempt. It returns
// ctx.Err() if the context ends first.
func (p Policy) Wait(ctx context.Context, attempt int) error {
	return Sleep(ctx, p.jittered(attempt))
}

// Sleep pauses for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do executes the operation with exponential backoff on failure.
// It respects context cancellation and returns the last error if all attempts fail.
func Do(ctx context.Context, p Policy, operation func() error) error {
	var lastErr error
	attempts := p.Attempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = operation()
		if lastErr == nil {
			return nil
		}

		// Don't retry on context cancellation
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}

		if attempt >= attempts {
			break
		}

		if err := p.Wait(ctx, attempt); err != nil {
			return err
		}
	}

	return lastErr
}
