package airtable

import (
	"context"
	"math"
	"sync"
	"time"
)

// limiter is a token bucket allowing rps requests per second with a burst of
// ceil(rps).
type limiter struct {
	rps      float64
	burst    float64
	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
	now      func() time.Time
	poll     time.Duration
}

func newLimiter(rps float64) *limiter {
	burst := math.Max(1, math.Ceil(rps))
	return &limiter{
		rps:      rps,
		burst:    burst,
		tokens:   burst,
		lastFill: time.Now(),
		now:      time.Now,
		poll:     50 * time.Millisecond,
	}
}

// wait blocks until a token is available or ctx is done. A nil limiter or a
// non-positive rate never blocks.
func (l *limiter) wait(ctx context.Context) error {
	if l == nil || l.rps <= 0 {
		return ctx.Err()
	}
	for {
		l.mu.Lock()
		now := l.now()
		if elapsed := now.Sub(l.lastFill); elapsed > 0 {
			l.tokens = math.Min(l.burst, l.tokens+elapsed.Seconds()*l.rps)
			l.lastFill = now
		}
		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(l.poll):
		}
	}
}
