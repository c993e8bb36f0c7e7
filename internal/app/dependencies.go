package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/backend-kasir/internal/cart"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/health"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/obs"
	"github.com/noah-isme/backend-kasir/internal/ratelimit"
	"github.com/noah-isme/backend-kasir/internal/receipt"
	"github.com/noah-isme/backend-kasir/internal/session"
)

// SessionStore is a cart store that can report its own health.
type SessionStore interface {
	cart.Store
	health.Checker
}

// Options tweaks how Build instruments shared clients.
type Options struct {
	RedisMetrics bool
}

// Dependencies enumerates the infrastructure shared by the API and worker.
// Redis-backed members are nil when REDIS_URL is unset.
type Dependencies struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Redis      *redis.Client
	Sessions   SessionStore
	Locker     cart.Locker
	Limiter    *limiter.Limiter
	TaskClient *asynq.Client
	Events     *events.Bus
}

// Build connects the stores named by cfg. Without Redis everything runs in
// process and receipts are not queued.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	deps := &Dependencies{Config: cfg, Logger: logger}

	if cfg.UsesRedis() {
		client, err := NewRedis(ctx, cfg.RedisURL, opts.RedisMetrics, logger)
		if err != nil {
			return nil, err
		}
		deps.Redis = client
		deps.Sessions = session.NewRedis(client, cfg.RedisKeyPrefix, cfg.SessionTTL)
		deps.Locker = lock.Locker{R: client, Prefix: cfg.RedisKeyPrefix, RetryBackoff: cfg.LockRetryBackoff}

		taskOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
		if err != nil {
			_ = deps.Close()
			return nil, fmt.Errorf("app: parse task queue redis url: %w", err)
		}
		deps.TaskClient = asynq.NewClient(taskOpt)
	} else {
		deps.Sessions = session.NewMemory(cfg.SessionTTL)
		logger.Warn().Msg("REDIS_URL not set; sessions are kept in memory and receipts are not queued")
	}

	store, err := ratelimit.NewStore(deps.Redis, cfg.RedisKeyPrefix)
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("app: rate limit store: %w", err)
	}
	if deps.Limiter, err = ratelimit.New(cfg.RateLimit, store); err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("app: rate limiter: %w", err)
	}

	notifiers := []events.Notifier{obs.EventLogger{Logger: logger}}
	if deps.TaskClient != nil {
		notifiers = append(notifiers, receipt.Dispatcher{
			Client:   deps.TaskClient,
			Queue:    cfg.ReceiptQueue,
			MaxRetry: cfg.ReceiptMaxRetry,
		})
	}
	deps.Events = &events.Bus{Notifiers: notifiers}
	return deps, nil
}

// NewRedis parses url, instruments the client and checks connectivity.
func NewRedis(ctx context.Context, url string, metrics bool, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("app: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("app: ping redis: %w", err)
	}
	return client, nil
}

// CartService assembles the checkout service over the shared stores.
func (d *Dependencies) CartService(c *catalog.Catalog) *cart.Service {
	return &cart.Service{
		Store:   d.Sessions,
		Catalog: c,
		Billing: cart.Billing{TaxBps: d.Config.TaxRateBps, Currency: d.Config.CurrencyCode},
		LockTTL: d.Config.LockTTL,
		Locker:  d.Locker,
		Events:  d.Events,
		Logger:  d.Logger.With().Str("component", "cart").Logger(),
	}
}

// Checks lists the readiness probes for the configured stores.
func (d *Dependencies) Checks() map[string]health.Checker {
	checks := map[string]health.Checker{"sessions": d.Sessions}
	if d.Redis != nil {
		client := d.Redis
		checks["redis"] = health.CheckerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return checks
}

// Close releases the task client and Redis connection.
func (d *Dependencies) Close() error {
	if d == nil {
		return nil
	}
	var errs []error
	if d.TaskClient != nil {
		errs = append(errs, d.TaskClient.Close())
	}
	if d.Redis != nil {
		errs = append(errs, d.Redis.Close())
	}
	return errors.Join(errs...)
}
