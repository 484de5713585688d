package admission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CheckAndIncr(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	count, ttl, err := store.CheckAndIncr(ctx, "t1:auth", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, ttl)

	count, _, err = store.CheckAndIncr(ctx, "t1:auth", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryStore_WindowExpiry(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	_, _, err := store.CheckAndIncr(ctx, "t1:auth", 30*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	count, ttl, err := store.CheckAndIncr(ctx, "t1:auth", 30*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 30*time.Millisecond, ttl)
}

func TestMemoryStore_PeekNeverCreates(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	count, ttl, err := store.Peek(ctx, "t1:api")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, time.Duration(0), ttl)

	_, _, err = store.CheckAndIncr(ctx, "t1:api", time.Hour)
	require.NoError(t, err)

	count, _, err = store.Peek(ctx, "t1:api")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, _, err = store.Peek(ctx, "t1:api")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_ResetAndResetPrefix(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	for _, key := range []string{"t1:api", "t1:auth", "t2:api"} {
		_, _, err := store.CheckAndIncr(ctx, key, time.Hour)
		require.NoError(t, err)
	}

	require.NoError(t, store.Reset(ctx, "t1:api"))
	count, _, err := store.Peek(ctx, "t1:api")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, store.ResetPrefix(ctx, "t1:"))
	count, _, err = store.Peek(ctx, "t1:auth")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, _, err = store.Peek(ctx, "t2:api")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestMemoryStore_ConcurrentIncrementsAreNotLost(t *testing.T) {
	store := NewMemoryStore()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := store.CheckAndIncr(ctx, "t1:auth", time.Hour)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, _, err := store.Peek(ctx, "t1:auth")
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	_, _, err := store.CheckAndIncr(context.Background(), "t1:auth", time.Minute)
	assert.ErrorIs(t, err, ErrStoreClosed)
}
