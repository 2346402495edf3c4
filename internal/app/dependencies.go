package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/branch"
	"github.com/noah-isme/backend-resto/internal/config"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/health"
	"github.com/noah-isme/backend-resto/internal/jobs"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/menu"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/report"
	"github.com/noah-isme/backend-resto/internal/resilience"
	"github.com/noah-isme/backend-resto/internal/sales"
)

// Options tunes how Open connects.
type Options struct {
	ApplicationName string
	RedisMetrics    bool
}

// Dependencies enumerates the connections shared by the API and the worker.
type Dependencies struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Publisher events.Publisher
	Tasks     *asynq.Client
	RedisOpt  asynq.RedisConnOpt

	closers []func() error
}

// Open connects to Postgres, Redis and, when brokers are configured, Kafka.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	d := &Dependencies{}

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	if opts.ApplicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = opts.ApplicationName
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	d.DB = pool
	d.closers = append(d.closers, func() error {
		pool.Close()
		return nil
	})
	if err := pool.Ping(ctx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	d.Redis = redis.NewClient(redisOpts)
	d.closers = append(d.closers, d.Redis.Close)
	if err := redisotel.InstrumentTracing(d.Redis); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if opts.RedisMetrics {
		if err := redisotel.InstrumentMetrics(d.Redis); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := d.Redis.Ping(ctx).Err(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	d.RedisOpt, err = asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("parse task queue redis url: %w", err)
	}
	d.Tasks = asynq.NewClient(d.RedisOpt)
	d.closers = append(d.closers, d.Tasks.Close)

	if cfg.KafkaEnabled() {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		d.Publisher = events.GuardedPublisher{
			Next:    kp,
			Breaker: resilience.NewBreaker("kafka", 5, 0.5, 30*time.Second, logger),
		}
		d.closers = append(d.closers, kp.Close)
		logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("kafka publisher enabled")
	} else {
		d.Publisher = events.NopPublisher{}
		logger.Warn().Msg("KAFKA_BROKERS not set; domain events are discarded")
	}
	return d, nil
}

// Close releases connections in reverse order of opening.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}

// Probes returns readiness checks for the database and Redis.
func (d *Dependencies) Probes(dbTimeout, redisTimeout time.Duration) []health.Probe {
	return []health.Probe{
		{Name: "db", Timeout: dbTimeout, Check: func(ctx context.Context) error {
			if d.DB == nil {
				return errors.New("db not configured")
			}
			return d.DB.Ping(ctx)
		}},
		{Name: "redis", Timeout: redisTimeout, Check: func(ctx context.Context) error {
			if d.Redis == nil {
				return errors.New("redis not configured")
			}
			return d.Redis.Ping(ctx).Err()
		}},
	}
}

// Services are the domain services built on top of Dependencies.
type Services struct {
	Branches *branch.Service
	Menu     *menu.Service
	Sales    *sales.Service
	Reports  *report.Service
}

// Services wires the domain services.
func (d *Dependencies) Services(cfg *config.Config, logger zerolog.Logger) Services {
	branchSvc := &branch.Service{
		Store:  branch.NewStore(d.DB),
		Jobs:   jobs.NewEnqueuer(d.Tasks),
		Logger: logger.With().Str("component", "branch").Logger(),
	}
	menuSvc := &menu.Service{
		Store:    menu.NewStore(d.DB),
		Branches: branchSvc,
		Cache:    menu.NewCache(d.Redis, cfg.MenuCacheTTL),
		Locker:   lock.Locker{R: d.Redis, RetryBackoff: cfg.LockRetryBackoff},
		LockTTL:  cfg.LockTTL,
		Builder:  pricing.Builder{},
		Events:   d.Publisher,
		Logger:   logger.With().Str("component", "menu").Logger(),
	}
	salesSvc := &sales.Service{
		Store:    sales.NewStore(d.DB),
		Branches: branchSvc,
		Events:   d.Publisher,
		Logger:   logger.With().Str("component", "sales").Logger(),
		MaxRange: cfg.ReportMaxRange,
	}
	reportSvc := &report.Service{
		Source: salesSvc,
		R:      d.Redis,
		TTL:    cfg.ReportCacheTTL,
	}
	salesSvc.Reports = reportSvc
	return Services{Branches: branchSvc, Menu: menuSvc, Sales: salesSvc, Reports: reportSvc}
}
