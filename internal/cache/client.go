// Package cache provides a namespaced, TTL'd key-value cache over Redis,
// guarded by a circuit breaker so a dead store degrades to cache misses
// instead of taking the qualification pipeline down.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/resilience"
)

// Namespace segregates cache keys by purpose.
type Namespace string

const (
	NSEnrichment    Namespace = "enrichment"
	NSQualification Namespace = "qualification"
	NSCompany       Namespace = "company"
	NSAPIResponse   Namespace = "api_response"
)

// Default TTLs per namespace. Company data changes slowly; scores may need
// refresh sooner.
const (
	TTLEnrichment    = 24 * time.Hour
	TTLQualification = time.Hour
	TTLCompany       = 7 * 24 * time.Hour
	TTLAPIResponse   = 5 * time.Minute
)

// KV is the narrow key-value surface the cache needs from Redis.
// Implemented by go-redis in production and an in-memory fake in tests.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) (int64, error)
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	Ping(ctx context.Context) error
}

// RedisKV implements KV on a go-redis client.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV wraps an existing Redis client.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisKV) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.SetEx(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return r.client.Del(ctx, keys...).Result()
}

func (r *RedisKV) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Options configures a cache Client.
type Options struct {
	Prefix          string
	DefaultTTL      time.Duration
	MaxFailures     int
	RecoveryTimeout time.Duration
	OpTimeout       time.Duration
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = "lq"
	}
	if o.DefaultTTL <= 0 {
		o.DefaultTTL = TTLQualification
	}
	if o.MaxFailures <= 0 {
		o.MaxFailures = 5
	}
	if o.RecoveryTimeout <= 0 {
		o.RecoveryTimeout = 30 * time.Second
	}
	if o.OpTimeout <= 0 {
		o.OpTimeout = 5 * time.Second
	}
	return o
}

// Client is the namespaced cache. All operations are non-throwing: store
// errors degrade to miss/no-op and feed the circuit breaker; only JSON
// marshal failures of caller values are surfaced, and then only as a
// logged false return.
type Client struct {
	kv      KV
	opts    Options
	breaker *resilience.CircuitBreaker
	stats   *Stats
}

// New creates a cache client over the given KV store.
func New(kv KV, opts Options) *Client {
	opts = opts.withDefaults()
	c := &Client{
		kv:    kv,
		opts:  opts,
		stats: newStats(),
	}
	c.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:     opts.MaxFailures,
		RecoveryTimeout: opts.RecoveryTimeout,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("cache circuit state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// Get retrieves the cached value for (namespace, key) into out. Returns
// false on miss, store failure, or open circuit.
func (c *Client) Get(ctx context.Context, ns Namespace, key string, out any) bool {
	full := c.buildKey(ns, key)

	cctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	type hit struct {
		raw string
		ok  bool
	}
	res, err := resilience.ExecuteVal(cctx, c.breaker, func(ctx context.Context) (hit, error) {
		raw, ok, err := c.kv.Get(ctx, full)
		return hit{raw: raw, ok: ok}, err
	})
	if err != nil {
		c.recordError(err, "get", full)
		c.stats.miss()
		return false
	}
	if !res.ok {
		c.stats.miss()
		return false
	}

	if err := json.Unmarshal([]byte(res.raw), out); err != nil {
		// Corrupt entry: evict and report a miss.
		zap.L().Warn("corrupt cache entry", zap.String("key", full), zap.Error(err))
		c.Delete(ctx, ns, key)
		c.stats.miss()
		return false
	}
	c.stats.hit()
	return true
}

// Set stores value under (namespace, key) with the given TTL (0 means the
// client default). Returns false if the value could not be stored.
func (c *Client) Set(ctx context.Context, ns Namespace, key string, value any, ttl time.Duration) bool {
	raw, err := json.Marshal(value)
	if err != nil {
		zap.L().Error("cache value not serializable", zap.String("namespace", string(ns)), zap.Error(err))
		return false
	}
	if ttl <= 0 {
		ttl = c.opts.DefaultTTL
	}
	full := c.buildKey(ns, key)

	cctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	err = c.breaker.Execute(cctx, func(ctx context.Context) error {
		return c.kv.SetEx(ctx, full, string(raw), ttl)
	})
	if err != nil {
		c.recordError(err, "set", full)
		return false
	}
	return true
}

// Delete removes a single key. Returns true if a key was deleted.
func (c *Client) Delete(ctx context.Context, ns Namespace, key string) bool {
	full := c.buildKey(ns, key)

	cctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	n, err := resilience.ExecuteVal(cctx, c.breaker, func(ctx context.Context) (int64, error) {
		return c.kv.Del(ctx, full)
	})
	if err != nil {
		c.recordError(err, "delete", full)
		return false
	}
	if n > 0 {
		c.stats.evict(n)
	}
	return n > 0
}

// InvalidateNamespace removes every key in a namespace and returns the count.
func (c *Client) InvalidateNamespace(ctx context.Context, ns Namespace) int {
	pattern := c.opts.Prefix + ":" + string(ns) + ":*"

	cctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	n, err := resilience.ExecuteVal(cctx, c.breaker, func(ctx context.Context) (int64, error) {
		keys, err := c.kv.ScanKeys(ctx, pattern)
		if err != nil {
			return 0, err
		}
		if len(keys) == 0 {
			return 0, nil
		}
		return c.kv.Del(ctx, keys...)
	})
	if err != nil {
		c.recordError(err, "invalidate", pattern)
		return 0
	}
	if n > 0 {
		c.stats.evict(n)
		zap.L().Info("invalidated namespace",
			zap.String("namespace", string(ns)),
			zap.Int64("keys", n),
		)
	}
	return int(n)
}

// Stats returns a snapshot of cache performance counters plus circuit state.
func (c *Client) Stats() StatsSnapshot {
	snap := c.stats.snapshot()
	snap.CircuitState = c.breaker.State().String()
	return snap
}

// HealthCheck pings the store and reports latency. Bypasses the breaker so
// readiness probes see the real store state.
func (c *Client) HealthCheck(ctx context.Context) (time.Duration, error) {
	cctx, cancel := context.WithTimeout(ctx, c.opts.OpTimeout)
	defer cancel()

	start := time.Now()
	if err := c.kv.Ping(cctx); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (c *Client) buildKey(ns Namespace, key string) string {
	return c.opts.Prefix + ":" + string(ns) + ":" + key
}

func (c *Client) recordError(err error, op, key string) {
	c.stats.error()
	zap.L().Debug("cache operation degraded",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}

// HashKey case-normalizes raw and returns a truncated content hash, so keys
// stay bounded and raw emails/domains never appear in key names.
func HashKey(raw string) string {
	norm := strings.ToLower(strings.TrimSpace(raw))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])[:16]
}
