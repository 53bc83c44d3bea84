package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// TierQuota holds the per-window request limits for one tier. A zero limit
// disables that window.
type TierQuota struct {
	PerSecond int
	PerMinute int
	PerHour   int
	PerDay    int
	Burst     int
}

// DefaultQuotas mirrors the shipped tier table.
func DefaultQuotas() map[string]TierQuota {
	return map[string]TierQuota{
		TierFree:       {PerSecond: 2, PerMinute: 30, PerHour: 50, PerDay: 200, Burst: 5},
		TierPro:        {PerSecond: 10, PerMinute: 300, PerHour: 2000, PerDay: 25000, Burst: 20},
		TierEnterprise: {PerSecond: 50, PerMinute: 1500, PerHour: 10000, PerDay: 100000, Burst: 100},
	}
}

// Decision is the outcome of a tiered multi-window check.
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Tier       string        `json:"tier"`
	Window     string        `json:"window,omitempty"` // the window that denied
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// checkWindow pairs a window duration with its tier limit and key suffix.
type checkWindow struct {
	name  string
	dur   time.Duration
	limit func(TierQuota) int
}

// Windows are checked tightest first: a burst fails fast on the per-second
// window before the larger windows are touched.
var checkOrder = []checkWindow{
	{"second", time.Second, func(q TierQuota) int { return q.PerSecond }},
	{"minute", time.Minute, func(q TierQuota) int { return q.PerMinute }},
	{"hour", time.Hour, func(q TierQuota) int { return q.PerHour }},
	{"day", 24 * time.Hour, func(q TierQuota) int { return q.PerDay }},
}

// Limiter performs tiered admission control over a shared sliding window.
// If the backing store is unreachable it fails open: availability of the
// qualification pipeline takes priority over strict quota enforcement.
type Limiter struct {
	window  *SlidingWindow
	quotas  map[string]TierQuota
	buckets map[string]*BucketRegistry // per tier, only where Burst > 0
	timeout time.Duration
}

// NewLimiter creates a tiered limiter. A nil quotas map gets the defaults;
// timeout bounds each store round trip (default 2s). Tiers with a Burst
// value also get a local token bucket that smooths sub-second spikes before
// the shared windows are consulted.
func NewLimiter(window *SlidingWindow, quotas map[string]TierQuota, timeout time.Duration) *Limiter {
	if quotas == nil {
		quotas = DefaultQuotas()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	buckets := make(map[string]*BucketRegistry)
	for tier, quota := range quotas {
		if quota.Burst > 0 {
			buckets[tier] = NewBucketRegistry(quota.Burst, float64(quota.PerSecond))
		}
	}
	return &Limiter{window: window, quotas: quotas, buckets: buckets, timeout: timeout}
}

// Close stops the bucket janitors.
func (l *Limiter) Close() {
	for _, reg := range l.buckets {
		reg.Close()
	}
}

// Check runs one logical request through every configured window for the
// identity's tier, in increasing-duration order. The first denial
// short-circuits the rest and reports its own reset time.
func (l *Limiter) Check(ctx context.Context, id Identity) Decision {
	quota, ok := l.quotas[id.Tier]
	if !ok {
		quota = l.quotas[TierFree]
	}

	tier := id.Tier
	if _, known := l.quotas[tier]; !known {
		tier = TierFree
	}
	if reg, ok := l.buckets[tier]; ok && !reg.Consume(id.Key, 1) {
		now := time.Now()
		return Decision{
			Allowed:    false,
			Tier:       id.Tier,
			Window:     "burst",
			Limit:      quota.Burst,
			Remaining:  0,
			ResetAt:    now.Add(time.Second),
			RetryAfter: time.Second,
		}
	}

	decision := Decision{Allowed: true, Tier: id.Tier, Remaining: RemainingUnknown}

	for _, cw := range checkOrder {
		limit := cw.limit(quota)
		if limit <= 0 {
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, l.timeout)
		res, err := l.window.Check(cctx, windowKey(id.Key, cw.name), limit, cw.dur)
		cancel()
		if err != nil {
			// Fail open: a dead store must not take qualification down.
			zap.L().Warn("rate limit store unreachable, failing open",
				zap.String("window", cw.name),
				zap.Error(err),
			)
			return Decision{Allowed: true, Tier: id.Tier, Remaining: RemainingUnknown}
		}

		if !res.Allowed {
			return Decision{
				Allowed:    false,
				Tier:       id.Tier,
				Window:     cw.name,
				Limit:      res.Limit,
				Remaining:  0,
				ResetAt:    res.ResetAt,
				RetryAfter: res.RetryAfter,
			}
		}

		// Report the tightest window's numbers on success.
		if decision.Remaining == RemainingUnknown || res.Remaining < decision.Remaining {
			decision.Limit = res.Limit
			decision.Remaining = res.Remaining
			decision.ResetAt = res.ResetAt
		}
	}

	return decision
}

// Usage returns the current count for one of the named windows without
// consuming quota.
func (l *Limiter) Usage(ctx context.Context, identifier, window string) (int, error) {
	for _, cw := range checkOrder {
		if cw.name == window {
			cctx, cancel := context.WithTimeout(ctx, l.timeout)
			defer cancel()
			return l.window.Usage(cctx, windowKey(identifier, window), cw.dur)
		}
	}
	return 0, fmt.Errorf("ratelimit: unknown window %q", window)
}

// Reset clears all windows for a client. Admin operation.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	keys := make([]string, 0, len(checkOrder))
	for _, cw := range checkOrder {
		keys = append(keys, windowKey(identifier, cw.name))
	}
	cctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return l.window.Reset(cctx, keys...)
}

func windowKey(identifier, window string) string {
	return fmt.Sprintf("ratelimit:%s:%s", identifier, window)
}
