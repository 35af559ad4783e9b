// internal/utils/delay.go
package utils

import (
	"context"
	"time"
)

// Delayer simulates ledger round trips. Implementations must return early
// with ctx.Err() when the context is cancelled.
type Delayer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// TimerDelay waits on a real timer.
type TimerDelay struct{}

func (TimerDelay) Wait(ctx context.Context, d time.Duration) error {
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

// NoDelay only honours cancellation. Used by tests and when simulated latency
// is disabled.
type NoDelay struct{}

func (NoDelay) Wait(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Clock returns the current time. Injected so records get deterministic
// timestamps in tests.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}
