package http_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/xkcdbot"
	xkcdhttp "github.com/fwojciec/xkcdbot/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("implements xkcdbot.DomainLimiter interface", func(t *testing.T) {
		t.Parallel()
		var _ xkcdbot.DomainLimiter = xkcdhttp.NewDomainLimiter(1, 1)
	})

	t.Run("allows immediate request when under limit", func(t *testing.T) {
		t.Parallel()

		limiter := xkcdhttp.NewDomainLimiter(10, 1)

		start := time.Now()
		err := limiter.Wait(context.Background(), "xkcd.com")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond, "first request should be immediate")
	})

	t.Run("rate limits requests to same domain", func(t *testing.T) {
		t.Parallel()

		limiter := xkcdhttp.NewDomainLimiter(10, 1) // 100ms between requests

		err := limiter.Wait(context.Background(), "xkcd.com")
		require.NoError(t, err)

		start := time.Now()
		err = limiter.Wait(context.Background(), "xkcd.com")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.GreaterOrEqual(t, elapsed, 80*time.Millisecond, "should wait for rate limit")
	})

	t.Run("different domains have independent limits", func(t *testing.T) {
		t.Parallel()

		limiter := xkcdhttp.NewDomainLimiter(10, 1)

		require.NoError(t, limiter.Wait(context.Background(), "xkcd.com"))

		start := time.Now()
		err := limiter.Wait(context.Background(), "www.explainxkcd.com")
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Less(t, elapsed, 50*time.Millisecond, "other domain should not wait")
	})

	t.Run("returns error when context is canceled", func(t *testing.T) {
		t.Parallel()

		limiter := xkcdhttp.NewDomainLimiter(0.1, 1)
		require.NoError(t, limiter.Wait(context.Background(), "xkcd.com"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := limiter.Wait(ctx, "xkcd.com")
		require.Error(t, err)
	})
}
