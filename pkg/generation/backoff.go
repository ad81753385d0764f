package generation

import (
	"context"
	"math"
	"math/rand"
	"time"
)

const (
	defaultInitialDelay = 1 * time.Second
	defaultMaxDelay     = 30 * time.Second
	defaultMultiplier   = 2.0
)

// Backoff computes the wait before each retry
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	// Jitter spreads each delay over [0.5x, 1.5x)
	Jitter bool
}

// DefaultBackoff starts at 1s, doubles, caps at 30s and jitters
func DefaultBackoff() Backoff {
	return Backoff{
		Initial:    defaultInitialDelay,
		Max:        defaultMaxDelay,
		Multiplier: defaultMultiplier,
		Jitter:     true,
	}
}

// NoBackoff retries immediately
func NoBackoff() Backoff {
	return Backoff{}
}

// Delay returns the wait before retry number retry (1-based)
func (b Backoff) Delay(retry int) time.Duration {
	if b.Initial <= 0 || retry < 1 {
		return 0
	}

	multiplier := b.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	d := float64(b.Initial) * math.Pow(multiplier, float64(retry-1))
	if b.Max > 0 && d > float64(b.Max) {
		d = float64(b.Max)
	}
	if d > math.MaxInt64/2 {
		d = math.MaxInt64 / 2
	}
	delay := time.Duration(d)

	if b.Jitter && delay > 0 {
		delay = delay/2 + time.Duration(rand.Int63n(int64(delay)))
	}
	return delay
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
