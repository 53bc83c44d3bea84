// Package enrich aggregates lead facts from multiple external data
// providers, merging by a fixed priority order with per-provider circuit
// breakers and retries.
package enrich

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// Provider supplies enrichment facts for one lead. Priority decides merge
// order: lower-priority providers win overlapping fields.
type Provider interface {
	Name() string
	Priority() int
	Enrich(ctx context.Context, email, domain string) (model.EnrichmentResult, error)
}

// Registry manages the configured providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all providers sorted by ascending priority, name as
// tiebreak, so merge order is deterministic.
func (r *Registry) List() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority() != out[j].Priority() {
			return out[i].Priority() < out[j].Priority()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}
