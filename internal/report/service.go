package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-resto/internal/sales"
)

// ErrNotConfigured is returned when the service has no transaction source.
var ErrNotConfigured = errors.New("report: service not configured")

// Lister reads transactions for a filter.
type Lister interface {
	List(ctx context.Context, f sales.Filter) (sales.Page, error)
	CheckRange(f sales.Filter) error
}

// generationKey is part of every cache key; bumping it orphans all cached reports.
const generationKey = "report:sales:generation"

// Service builds sales reports. Reports over periods that have already ended
// are cached in Redis until Invalidate is called or TTL passes.
type Service struct {
	Source Lister
	R      *redis.Client
	TTL    time.Duration
	Now    func() time.Time
}

// Result is a built report with the transactions it covers.
type Result struct {
	Report       Report              `json:"report"`
	Transactions []sales.Transaction `json:"transactions"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Sales returns the report for transactions in [f.From, f.To).
func (s *Service) Sales(ctx context.Context, f sales.Filter) (Result, error) {
	if s == nil || s.Source == nil {
		return Result{}, ErrNotConfigured
	}
	if err := s.Source.CheckRange(f); err != nil {
		return Result{}, err
	}
	f.Limit, f.Offset = 0, 0

	var key string
	cacheable := !f.To.IsZero() && !f.To.After(s.now())
	if cacheable {
		var gen int64
		gen, cacheable = s.generation(ctx)
		key = cacheKey("report", "sales", gen, f.BranchID, f.From.UTC().Unix(), f.To.UTC().Unix())
	}
	if cacheable {
		if res, ok := s.fromCache(ctx, key); ok {
			return res, nil
		}
	}

	page, err := s.Source.List(ctx, f)
	if err != nil {
		return Result{}, err
	}
	res := Result{Report: Build(f.From, f.To, page.Items), Transactions: page.Items}
	if cacheable {
		s.store(ctx, key, res)
	}
	return res, nil
}

// Invalidate discards every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	if s == nil || s.R == nil {
		return nil
	}
	if err := s.R.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("report: invalidate cache: %w", err)
	}
	return nil
}

// generation reads the current cache generation. It reports false when the
// cache is disabled or unreadable.
func (s *Service) generation(ctx context.Context) (int64, bool) {
	if s.R == nil || s.TTL <= 0 {
		return 0, false
	}
	gen, err := s.R.Get(ctx, generationKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		return 0, false
	}
	return gen, true
}

func (s *Service) fromCache(ctx context.Context, key string) (Result, bool) {
	if s.R == nil || s.TTL <= 0 {
		return Result{}, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return Result{}, false
	}
	return res, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
