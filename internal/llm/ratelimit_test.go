package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows burst up to capacity", func(t *testing.T) {
		rl := newRateLimiter(10)
		defer rl.Close()

		for i := 0; i < 10; i++ {
			require.NoError(t, rl.wait(context.Background()))
		}
		assert.False(t, rl.tryAcquire())
	})

	t.Run("refills over time", func(t *testing.T) {
		rl := newRateLimiter(600) // one token every 100ms
		defer rl.Close()

		for rl.tryAcquire() {
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		start := time.Now()
		require.NoError(t, rl.wait(ctx))
		assert.Greater(t, time.Since(start), time.Duration(0))
	})

	t.Run("context cancellation", func(t *testing.T) {
		rl := newRateLimiter(1)
		defer rl.Close()

		require.NoError(t, rl.wait(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- rl.wait(ctx) }()

		cancel()
		select {
		case err := <-done:
			require.Error(t, err)
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("wait did not return after cancellation")
		}
	})

	t.Run("close is idempotent", func(t *testing.T) {
		rl := newRateLimiter(5)
		rl.Close()
		rl.Close()
	})
}
