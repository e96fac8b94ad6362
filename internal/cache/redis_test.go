package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/blues/fundchainx/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return mr
}

func TestThrottle(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()
	client, err := NewRedis(ctx, config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	throttle := NewThrottle(client, time.Minute)

	ok, err := throttle.Allow(ctx, "resend:a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = throttle.Allow(ctx, "resend:a@x.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = throttle.Allow(ctx, "resend:b@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(time.Minute + time.Second)
	ok, err = throttle.Allow(ctx, "resend:a@x.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := setupRedis(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestNoopThrottle(t *testing.T) {
	ok, err := NoopThrottle{}.Allow(context.Background(), "x")
	require.NoError(t, err)
	assert.True(t, ok)
}
