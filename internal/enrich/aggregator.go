package enrich

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-qualifier/internal/cache"
	"github.com/sells-group/lead-qualifier/internal/model"
	"github.com/sells-group/lead-qualifier/internal/resilience"
)

// Aggregator fans a lead out to every registered provider concurrently and
// merges the responses by provider priority. Provider failures are recorded
// as error strings on the result; they never fail the enrichment.
type Aggregator struct {
	registry *Registry
	breakers *resilience.ServiceBreakers
	retry    resilience.RetryConfig
	cache    *cache.Client

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewAggregator creates an aggregator. cache may be nil to disable
// memoization (tests, CLI one-shots).
func NewAggregator(registry *Registry, cacheClient *cache.Client) *Aggregator {
	return &Aggregator{
		registry: registry,
		breakers: resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
		retry:    resilience.DefaultRetryConfig(),
		cache:    cacheClient,
		nowFunc:  time.Now,
	}
}

// Enrich returns the merged enrichment for a lead. Cache-aside: a fresh
// merge is computed only on miss, then stored under the hashed email.
func (a *Aggregator) Enrich(ctx context.Context, lead model.Lead) model.EnrichmentResult {
	key := cache.HashKey(lead.Email)

	if a.cache != nil {
		var cached model.EnrichmentResult
		if a.cache.Get(ctx, cache.NSEnrichment, key, &cached) {
			return cached
		}
	}

	result := a.enrichFresh(ctx, lead)

	if a.cache != nil {
		a.cache.Set(ctx, cache.NSEnrichment, key, result, cache.TTLEnrichment)
	}
	return result
}

func (a *Aggregator) enrichFresh(ctx context.Context, lead model.Lead) model.EnrichmentResult {
	start := a.nowFunc()
	providers := a.registry.List()
	domain := lead.Domain()

	// Fan out concurrently; completion order does not matter because the
	// merge below walks results in priority order.
	results := make([]model.EnrichmentResult, len(providers))
	errs := make([]error, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			results[i], errs[i] = a.callProvider(gctx, p, lead.Email, domain)
			return nil
		})
	}
	_ = g.Wait()

	merged := model.EnrichmentResult{}
	for i, p := range providers {
		if errs[i] != nil {
			merged.Errors = append(merged.Errors, p.Name()+": "+errs[i].Error())
			zap.L().Warn("enrichment provider failed",
				zap.String("provider", p.Name()),
				zap.Error(errs[i]),
			)
			continue
		}
		merged = merged.Merge(results[i])
	}

	// Derivations fill gaps the providers left.
	merged.Company = deriveCompany(merged.Company)
	if merged.Company.Name == "" {
		merged.Company.Name = lead.Company
	}
	if merged.Company.Domain == "" {
		merged.Company.Domain = domain
	}
	merged.Confidence = confidence(merged)
	merged.LatencyMS = time.Since(start).Milliseconds()

	return merged
}

func (a *Aggregator) callProvider(ctx context.Context, p Provider, email, domain string) (model.EnrichmentResult, error) {
	breaker := a.breakers.Get(p.Name())

	retry := a.retry
	retry.OnRetry = resilience.RetryLogger(p.Name(), "enrich")

	return resilience.DoVal(ctx, retry, func(ctx context.Context) (model.EnrichmentResult, error) {
		return resilience.ExecuteVal(ctx, breaker, func(ctx context.Context) (model.EnrichmentResult, error) {
			res, err := p.Enrich(ctx, email, domain)
			if err != nil {
				return model.EnrichmentResult{}, err
			}
			res.Sources = []string{p.Name()}
			return res, nil
		})
	})
}

// BreakerStates exposes per-provider circuit state for health endpoints.
func (a *Aggregator) BreakerStates() map[string]resilience.CircuitState {
	return a.breakers.States()
}

// confidence scores completeness of the merged result in [0, 1]. Field
// weights sum to 1; heavier weight on the fields the scorer leans on most.
func confidence(r model.EnrichmentResult) float64 {
	var score float64
	if r.Company.Name != "" {
		score += 0.15
	}
	if r.Company.Industry != "" {
		score += 0.12
	}
	if r.Company.EmployeeCount > 0 {
		score += 0.12
	}
	if r.Company.EstimatedRevenue != "" {
		score += 0.10
	}
	if r.Person.FullName != "" {
		score += 0.12
	}
	if r.Person.Title != "" {
		score += 0.12
	}
	if r.Person.Seniority != "" {
		score += 0.08
	}
	if r.Company.LinkedInURL != "" {
		score += 0.08
	}
	if len(r.Company.TechStack) > 0 {
		score += 0.06
	}
	if r.Company.Location != "" || r.Company.Country != "" {
		score += 0.05
	}
	return math.Round(score*1000) / 1000
}
