package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is an in-memory WindowStore with injectable failures.
type fakeStore struct {
	mu   sync.Mutex
	sets map[string]map[string]float64
	err  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{sets: make(map[string]map[string]float64)}
}

func (s *fakeStore) Slide(_ context.Context, key string, windowStart, now float64, member string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	set := s.sets[key]
	if set == nil {
		set = make(map[string]float64)
		s.sets[key] = set
	}
	for m, score := range set {
		if score <= windowStart {
			delete(set, m)
		}
	}
	count := int64(len(set))
	set[member] = now
	return count, nil
}

func (s *fakeStore) Remove(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.sets[key], member)
	return nil
}

func (s *fakeStore) Count(_ context.Context, key string, windowStart float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	for _, score := range s.sets[key] {
		if score > windowStart {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, k := range keys {
		delete(s.sets, k)
	}
	return nil
}

func (s *fakeStore) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func TestSlidingWindow_ExactWindow(t *testing.T) {
	store := newFakeStore()
	sw := NewSlidingWindow(store)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	sw.nowFunc = func() time.Time {
		clock = clock.Add(time.Nanosecond) // distinct members per check
		return clock
	}

	ctx := context.Background()

	// Five checks at t=0 succeed.
	for i := 0; i < 5; i++ {
		res, err := sw.Check(ctx, "k", 5, 60*time.Second)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "check %d should be allowed", i+1)
		assert.Equal(t, 5-i-1, res.Remaining)
	}

	// Sixth at t=0 fails with remaining=0 and is not recorded.
	res, err := sw.Check(ctx, "k", 5, 60*time.Second)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 60*time.Second, res.RetryAfter)

	usage, err := sw.Usage(ctx, "k", 60*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 5, usage, "denied request must not consume quota")

	// At t=61 the window has slid past the original events.
	clock = base.Add(61 * time.Second)
	res, err = sw.Check(ctx, "k", 5, 60*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestSlidingWindow_UsageDoesNotMutate(t *testing.T) {
	store := newFakeStore()
	sw := NewSlidingWindow(store)
	ctx := context.Background()

	_, err := sw.Check(ctx, "k", 10, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		usage, err := sw.Usage(ctx, "k", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, usage)
	}
}

func TestSlidingWindow_Reset(t *testing.T) {
	store := newFakeStore()
	sw := NewSlidingWindow(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := sw.Check(ctx, "k", 10, time.Minute)
		require.NoError(t, err)
	}
	require.NoError(t, sw.Reset(ctx, "k"))

	usage, err := sw.Usage(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 0, usage)
}

func TestLimiter_TightestWindowDeniesFirst(t *testing.T) {
	store := newFakeStore()
	sw := NewSlidingWindow(store)
	lim := NewLimiter(sw, map[string]TierQuota{
		TierFree: {PerSecond: 2, PerMinute: 100},
	}, time.Second)

	ctx := context.Background()
	id := Identity{Key: "client-1", Tier: TierFree}

	for i := 0; i < 2; i++ {
		d := lim.Check(ctx, id)
		assert.True(t, d.Allowed)
	}

	d := lim.Check(ctx, id)
	assert.False(t, d.Allowed)
	assert.Equal(t, "second", d.Window)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Second, d.RetryAfter)

	// The minute window only saw the two admitted requests.
	usage, err := lim.Usage(ctx, "client-1", "minute")
	require.NoError(t, err)
	assert.Equal(t, 2, usage)
}

func TestLimiter_BurstBucketDeniesBeforeWindows(t *testing.T) {
	store := newFakeStore()
	lim := NewLimiter(NewSlidingWindow(store), map[string]TierQuota{
		TierFree: {PerMinute: 100, Burst: 2},
	}, time.Second)
	defer lim.Close()

	ctx := context.Background()
	id := Identity{Key: "client-1", Tier: TierFree}

	for i := 0; i < 2; i++ {
		assert.True(t, lim.Check(ctx, id).Allowed)
	}

	d := lim.Check(ctx, id)
	assert.False(t, d.Allowed)
	assert.Equal(t, "burst", d.Window)
	assert.Equal(t, 2, d.Limit)
	assert.Equal(t, time.Second, d.RetryAfter)

	// The shared windows never saw the rejected request.
	usage, err := lim.Usage(ctx, "client-1", "minute")
	require.NoError(t, err)
	assert.Equal(t, 2, usage)
}

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	store := newFakeStore()
	store.fail(eris.New("redis down"))
	lim := NewLimiter(NewSlidingWindow(store), nil, time.Second)

	d := lim.Check(context.Background(), Identity{Key: "c", Tier: TierPro})
	assert.True(t, d.Allowed)
	assert.Equal(t, RemainingUnknown, d.Remaining)
}

func TestLimiter_UnknownTierFallsBackToFree(t *testing.T) {
	store := newFakeStore()
	lim := NewLimiter(NewSlidingWindow(store), map[string]TierQuota{
		TierFree: {PerSecond: 1},
	}, time.Second)

	ctx := context.Background()
	id := Identity{Key: "c", Tier: "mystery"}

	assert.True(t, lim.Check(ctx, id).Allowed)
	assert.False(t, lim.Check(ctx, id).Allowed)
}
