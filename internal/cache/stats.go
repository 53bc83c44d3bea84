package cache

import (
	"sync"
	"time"
)

// Stats tracks cache performance counters. Safe for concurrent use.
type Stats struct {
	mu        sync.Mutex
	hits      int64
	misses    int64
	errors    int64
	evictions int64
	startedAt time.Time
}

// StatsSnapshot is a point-in-time view for observability endpoints.
type StatsSnapshot struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Errors        int64   `json:"errors"`
	Evictions     int64   `json:"evictions"`
	HitRate       float64 `json:"hit_rate_percent"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CircuitState  string  `json:"circuit_state"`
}

func newStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

func (s *Stats) hit() {
	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
}

func (s *Stats) miss() {
	s.mu.Lock()
	s.misses++
	s.mu.Unlock()
}

func (s *Stats) error() {
	s.mu.Lock()
	s.errors++
	s.mu.Unlock()
}

func (s *Stats) evict(n int64) {
	s.mu.Lock()
	s.evictions += n
	s.mu.Unlock()
}

func (s *Stats) snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Hits:          s.hits,
		Misses:        s.misses,
		Errors:        s.errors,
		Evictions:     s.evictions,
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}
	if total := s.hits + s.misses; total > 0 {
		snap.HitRate = float64(s.hits) / float64(total) * 100
	}
	return snap
}
