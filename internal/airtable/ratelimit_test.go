package airtable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiterBurstThenWaits(t *testing.T) {
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(5)
	l.now = func() time.Time { return now }
	l.lastFill = now
	l.poll = time.Millisecond

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.wait(ctx))
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.wait(short), context.DeadlineExceeded, "bucket is empty")

	now = now.Add(250 * time.Millisecond)
	assert.NoError(t, l.wait(ctx), "one token refills after 1/rps")
}

func TestLimiterDisabled(t *testing.T) {
	var nilLimiter *limiter
	assert.NoError(t, nilLimiter.wait(context.Background()))
	assert.NoError(t, newLimiter(0).wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, newLimiter(0).wait(ctx), context.Canceled)
}

func TestLimiterFractionalRate(t *testing.T) {
	l := newLimiter(0.5)
	assert.Equal(t, 1.0, l.burst)
}
