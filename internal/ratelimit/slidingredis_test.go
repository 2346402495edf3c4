package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLimiterSlidesPerStaffMember(t *testing.T) {
	_, client := newTestRedis(t)
	start := time.Date(2026, 10, 15, 13, 0, 0, 0, time.UTC)
	now := start
	limiter := Limiter{Client: client, Prefix: "rl:tx:", Now: func() time.Time { return now }}
	ctx := context.Background()
	const max = 3

	for i := 0; i < max; i++ {
		now = start.Add(time.Duration(i) * 10 * time.Second)
		allowed, remaining, _, err := limiter.Allow(ctx, "staff:cashier-1", time.Minute, max)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, max-i-1, remaining)
	}

	now = start.Add(30 * time.Second)
	allowed, remaining, reset, err := limiter.Allow(ctx, "staff:cashier-1", time.Minute, max)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Zero(t, remaining)
	require.Equal(t, start.Add(time.Minute), reset.UTC())

	allowed, _, _, err = limiter.Allow(ctx, "staff:cashier-2", time.Minute, max)
	require.NoError(t, err)
	require.True(t, allowed, "another cashier has its own budget")

	// the rejected attempt at +30s is not kept, so the first slot frees at +60s
	now = start.Add(61 * time.Second)
	allowed, remaining, _, err = limiter.Allow(ctx, "staff:cashier-1", time.Minute, max)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Zero(t, remaining)

	allowed, _, reset, err = limiter.Allow(ctx, "staff:cashier-1", time.Minute, max)
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, start.Add(70*time.Second), reset.UTC())
}

func TestLimiterWithoutRedisAllows(t *testing.T) {
	allowed, remaining, _, err := Limiter{}.Allow(context.Background(), "staff:cashier-1", time.Minute, 60)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 60, remaining)
}
