package dispatch

import (
	"context"
	"math"
	"time"

	"github.com/nao1215/autodork/internal/rotate"
)

const (
	// jitterMin and jitterSpan give a uniform jitter in [1, 5) units.
	jitterMin  = 1.0
	jitterSpan = 4.0
)

// Delay returns the wait before attempt number attempt (1-based) is
// retried: factor*2^(attempt-1) plus a uniform jitter in [1, 5), all in
// multiples of unit. Delays beyond the range of time.Duration are capped
// at the largest one.
func Delay(attempt int, factor float64, unit time.Duration, rng rotate.Rand) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	units := factor*math.Pow(2, float64(attempt-1)) + jitterMin + jitterSpan*rng.Float64()
	d := units * float64(unit)
	if d >= math.MaxInt64 || math.IsNaN(d) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Sleeper waits for d or until ctx is done, whichever comes first.
// It returns ctx.Err() if the wait was cut short.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
