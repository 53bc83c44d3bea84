package ratelimit

import (
	"context"
	"strconv"
	"time"
)

// RemainingUnknown is reported when the backing store is unreachable and
// the limiter fails open.
const RemainingUnknown = -1

// Result is the outcome of a single window check.
type Result struct {
	Allowed    bool          `json:"allowed"`
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	Current    int           `json:"current"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// SlidingWindow is an exact sliding-window counter over a WindowStore.
// Unlike fixed buckets, it never admits a burst across a bucket boundary:
// every check counts the events in the trailing window.
type SlidingWindow struct {
	store WindowStore

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewSlidingWindow creates a sliding-window limiter over the given store.
func NewSlidingWindow(store WindowStore) *SlidingWindow {
	return &SlidingWindow{store: store, nowFunc: time.Now}
}

// Check records one event under key if fewer than limit events occurred in
// the trailing window, and reports the decision. A denied request is not
// recorded. Store errors propagate so the caller can decide fail-open.
func (w *SlidingWindow) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := w.nowFunc()
	nowScore := toScore(now)
	windowStart := toScore(now.Add(-window))
	member := strconv.FormatInt(now.UnixNano(), 10)

	current, err := w.store.Slide(ctx, key, windowStart, nowScore, member, window)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Limit:   limit,
		Current: int(current),
		ResetAt: now.Add(window),
	}

	if int(current) < limit {
		res.Allowed = true
		res.Remaining = limit - int(current) - 1
		if res.Remaining < 0 {
			res.Remaining = 0
		}
		return res, nil
	}

	// Denied: remove the member we just added so a rejected request does
	// not consume quota.
	if remErr := w.store.Remove(ctx, key, member); remErr != nil {
		return Result{}, remErr
	}
	res.Remaining = 0
	res.RetryAfter = window
	return res, nil
}

// Usage returns the current event count for key without recording anything.
func (w *SlidingWindow) Usage(ctx context.Context, key string, window time.Duration) (int, error) {
	windowStart := toScore(w.nowFunc().Add(-window))
	n, err := w.store.Count(ctx, key, windowStart)
	return int(n), err
}

// Reset clears the given keys. Admin operation.
func (w *SlidingWindow) Reset(ctx context.Context, keys ...string) error {
	return w.store.Delete(ctx, keys...)
}

func toScore(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
