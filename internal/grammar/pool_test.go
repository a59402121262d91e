package grammar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParserPoolAcquireReleaseRoundTrips(t *testing.T) {
	t.Parallel()

	pool := newParserPool(2)
	t.Cleanup(func() { require.NoError(t, pool.close()) })

	h, ok := pool.acquire(context.Background())
	require.True(t, ok)
	require.NotNil(t, h.parser)

	pool.release(h)
}

func TestParserPoolBlocksUntilReleaseWhenExhausted(t *testing.T) {
	t.Parallel()

	pool := newParserPool(1)
	t.Cleanup(func() { require.NoError(t, pool.close()) })

	h1, ok := pool.acquire(context.Background())
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, ok = pool.acquire(ctx)
	require.False(t, ok, "acquire should block until the single handle is released")

	pool.release(h1)

	h2, ok := pool.acquire(context.Background())
	require.True(t, ok)
	pool.release(h2)
}

func TestParserPoolAcquireFailsAfterClose(t *testing.T) {
	t.Parallel()

	pool := newParserPool(1)
	require.NoError(t, pool.close())

	_, ok := pool.acquire(context.Background())
	require.False(t, ok)
}

func TestParserPoolCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	pool := newParserPool(1)
	require.NoError(t, pool.close())
	require.NoError(t, pool.close())
}
