package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), 0))

	b, ok, err := c.GetBytes(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", string(b))

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = c.GetBytes(ctx, "b")
	assert.True(t, ok, "zero ttl never expires")

	require.NoError(t, c.Purge(ctx))
	assert.Equal(t, 0, c.Len())
}
