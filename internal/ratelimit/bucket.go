package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// BucketRegistry keeps one token bucket per client identifier for smooth
// throttling where hard windows are too coarse. Buckets refill lazily based
// on elapsed wall time; refill and consume are atomic per bucket. Idle
// buckets are dropped by a janitor goroutine.
type BucketRegistry struct {
	refill   rate.Limit // tokens per second
	capacity int

	mu      sync.Mutex
	buckets map[string]*bucketEntry

	stop chan struct{}
	once sync.Once
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewBucketRegistry creates a registry where each bucket has the given
// capacity and refills at refillPerSec tokens per second.
func NewBucketRegistry(capacity int, refillPerSec float64) *BucketRegistry {
	if capacity <= 0 {
		capacity = 10
	}
	if refillPerSec <= 0 {
		refillPerSec = 1
	}

	r := &BucketRegistry{
		refill:   rate.Limit(refillPerSec),
		capacity: capacity,
		buckets:  make(map[string]*bucketEntry),
		stop:     make(chan struct{}),
	}
	go r.janitor(time.Minute, 3*time.Minute)
	return r
}

// Consume takes n tokens from the identifier's bucket. It succeeds and
// decrements only if n tokens are available; otherwise state is unchanged.
func (r *BucketRegistry) Consume(identifier string, n int) bool {
	return r.consumeAt(identifier, n, time.Now())
}

// consumeAt is the time-injected core of Consume, used by tests.
func (r *BucketRegistry) consumeAt(identifier string, n int, now time.Time) bool {
	r.mu.Lock()
	entry, ok := r.buckets[identifier]
	if !ok {
		entry = &bucketEntry{limiter: rate.NewLimiter(r.refill, r.capacity)}
		r.buckets[identifier] = entry
	}
	entry.lastSeen = now
	r.mu.Unlock()

	return entry.limiter.AllowN(now, n)
}

// Close stops the janitor.
func (r *BucketRegistry) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *BucketRegistry) janitor(interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			for key, entry := range r.buckets {
				if time.Since(entry.lastSeen) > idle {
					delete(r.buckets, key)
				}
			}
			r.mu.Unlock()
		}
	}
}
