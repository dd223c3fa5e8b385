package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb), mr
}

func TestOrderStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	_, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, 7, "EN_ROUTE"))
	status, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "EN_ROUTE", status)
	assert.Equal(t, TTLOrderStatus, mr.TTL("order_status:7"))

	mr.FastForward(TTLOrderStatus + time.Second)
	_, ok, err = c.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, 7, "DELIVERED"))
	require.NoError(t, c.Delete(ctx, 7))
	assert.False(t, mr.Exists("order_status:7"))
}

func TestMarkSeen(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedis(t)

	fresh, err := c.MarkSeen(ctx, "worker", "evt-1")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = c.MarkSeen(ctx, "worker", "evt-1")
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, TTLDedup, mr.TTL("dedup:worker:evt-1"))

	require.NoError(t, c.Forget(ctx, "worker", "evt-1"))
	fresh, err = c.MarkSeen(ctx, "worker", "evt-1")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestNewClientFailsFast(t *testing.T) {
	_, err := NewClient(context.Background(), "127.0.0.1:1")
	assert.Error(t, err)
}
