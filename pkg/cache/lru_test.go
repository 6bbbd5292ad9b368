package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCacheGetSetDelete(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(8)
	require.NoError(t, err)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, c.Delete(ctx, "a", "never-set"))
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(8)
	require.NoError(t, err)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(2)
	require.NoError(t, err)

	require.NoError(t, c.Set(ctx, "a", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("b"), 0))
	_, err = c.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "c", []byte("c"), 0))

	_, err = c.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = c.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestLRUCacheCopiesValue(t *testing.T) {
	ctx := context.Background()
	c, err := NewLRUCache(2)
	require.NoError(t, err)

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
