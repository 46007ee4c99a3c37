package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAcquireReleaseReusesContext(t *testing.T) {
	pool := NewPool(100, 1)

	c1, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	c1.g[5] = 999
	c1.genAt[5] = c1.gen
	pool.Release(c1)

	c2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, c1, c2, "a capacity-1 pool should hand back the same scratch buffer")
	assert.False(t, c2.hasG(5), "reset must bump the generation so stale g values are invisible")
}

func TestPoolBlocksPastCapacity(t *testing.T) {
	pool := NewPool(10, 1)

	c1, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = pool.Acquire(ctx)
	assert.Error(t, err, "second acquire should block until the deadline and then fail")

	pool.Release(c1)
}

func TestPoolAcquireAfterReleaseUnblocks(t *testing.T) {
	pool := NewPool(10, 1)

	c1, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		c2, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		pool.Release(c2)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	pool.Release(c1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second acquire never unblocked after release")
	}
}
