package ratelimit

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Fixed is a fixed-window limiter backed by ulule/limiter. Its rate is fixed at
// construction, so the window and max passed to Allow are ignored.
type Fixed struct {
	lim *limiter.Limiter
}

// NewFixed builds a limiter from a formatted rate such as "120-M" using store.
func NewFixed(store limiter.Store, formatted string) (*Fixed, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parse rate %q: %w", formatted, err)
	}
	return &Fixed{lim: limiter.New(store, rate)}, nil
}

// NewRedisFixed builds a Fixed limiter whose counters live in Redis.
func NewRedisFixed(client *redis.Client, prefix, formatted string) (*Fixed, error) {
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return NewFixed(store, formatted)
}

// Rate returns the configured window and budget, for response headers.
func (f *Fixed) Rate() (time.Duration, int) {
	return f.lim.Rate.Period, int(f.lim.Rate.Limit)
}

// Allow implements Allower.
func (f *Fixed) Allow(ctx context.Context, key string, _ time.Duration, _ int) (bool, int, time.Time, error) {
	lctx, err := f.lim.Get(ctx, key)
	if err != nil {
		return false, 0, time.Now(), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
