package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	keyNamespace    = "sf"
	rateLimitPrefix = "rate_limit"
)

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
	PTTL(context.Context, string) *redis.DurationCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client is the request-throttling store. Counters live under sf:rate_limit:<scope>.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "redis_addr", opts.Addr), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Window is the state of one fixed-window counter after a hit.
type Window struct {
	Allowed    bool
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// Remaining is how many more hits the window accepts.
func (w Window) Remaining() int64 {
	if w.Count >= w.Limit {
		return 0
	}
	return w.Limit - w.Count
}

// hit increments key and makes sure it expires. The first hit opens the window; a
// counter left without expiry by a crashed caller gets its TTL repaired. The returned
// duration is the time until the window closes.
func (c *Client) hit(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	if c.store == nil {
		return 0, 0, errNotInitialized
	}
	count, err := c.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incr %s: %w", key, err)
	}
	if ttl <= 0 {
		return count, 0, nil
	}
	if count > 1 {
		remaining, err := c.store.PTTL(ctx, key).Result()
		if err != nil {
			return count, 0, fmt.Errorf("pttl %s: %w", key, err)
		}
		// negative values are redis sentinels, not durations
		if remaining > 0 {
			return count, remaining, nil
		}
	}
	if err := c.store.Expire(ctx, key, ttl).Err(); err != nil {
		return count, 0, fmt.Errorf("expire %s: %w", key, err)
	}
	return count, ttl, nil
}

// FixedWindowAllow counts a hit against scope and reports whether it fits in limit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (Window, error) {
	count, retryAfter, err := c.hit(ctx, c.RateLimitKey(scope), window)
	if err != nil {
		return Window{}, err
	}
	return Window{
		Allowed:    count <= limit,
		Count:      count,
		Limit:      limit,
		RetryAfter: retryAfter,
	}, nil
}

// ResetWindow drops the counter for scope.
func (c *Client) ResetWindow(ctx context.Context, scope string) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Del(ctx, c.RateLimitKey(scope)).Err()
}

// RateLimitKey returns a namespaced key for rate limit counters.
func (c *Client) RateLimitKey(scope string) string {
	return c.buildKey(rateLimitPrefix, scope)
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c.store == nil {
		return errNotInitialized
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, ":")
}
