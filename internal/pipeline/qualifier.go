// Package pipeline wires enrichment, scoring, and routing into the full
// lead qualification flow.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/cache"
	"github.com/sells-group/lead-qualifier/internal/model"
)

// Enricher produces the merged enrichment for a lead.
type Enricher interface {
	Enrich(ctx context.Context, lead model.Lead) model.EnrichmentResult
}

// Scorer turns a lead plus enrichment into a qualification.
type Scorer interface {
	Qualify(ctx context.Context, lead model.Lead, enrichment model.EnrichmentResult) model.QualificationResult
}

// LeadRouter decides what happens to a qualified lead.
type LeadRouter interface {
	Route(ctx context.Context, lead model.Lead, enrichment model.EnrichmentResult, qual model.QualificationResult) model.RoutingResult
}

// Qualifier is the composition root of the pipeline. Enrichment and scoring
// are cached per lead content; routing always runs fresh because it mutates
// rep workload and fires notifications.
type Qualifier struct {
	enricher Enricher
	scorer   Scorer
	router   LeadRouter
	cache    *cache.Client

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// New creates a qualifier. cacheClient may be nil to disable memoization.
func New(enricher Enricher, scorer Scorer, router LeadRouter, cacheClient *cache.Client) *Qualifier {
	return &Qualifier{
		enricher: enricher,
		scorer:   scorer,
		router:   router,
		cache:    cacheClient,
		nowFunc:  time.Now,
	}
}

// cachedQualification is what gets memoized between identical submissions.
type cachedQualification struct {
	Enrichment    model.EnrichmentResult    `json:"enrichment"`
	Qualification model.QualificationResult `json:"qualification"`
}

// Qualify runs the full pipeline for one lead. The only hard failure is
// lead validation; every downstream stage degrades instead of erroring.
func (q *Qualifier) Qualify(ctx context.Context, lead model.Lead) (model.QualifiedLead, error) {
	if err := lead.Validate(); err != nil {
		return model.QualifiedLead{}, err
	}
	start := q.nowFunc()

	key := cache.HashKey(lead.Email + "|" + lead.Message)

	var enrichment model.EnrichmentResult
	var qual model.QualificationResult
	cacheHit := false

	if q.cache != nil {
		var cached cachedQualification
		if q.cache.Get(ctx, cache.NSQualification, key, &cached) {
			enrichment = cached.Enrichment
			qual = cached.Qualification
			cacheHit = true
		}
	}

	var enrichMS, scoreMS int64
	if !cacheHit {
		enrichStart := q.nowFunc()
		enrichment = q.enricher.Enrich(ctx, lead)
		enrichMS = time.Since(enrichStart).Milliseconds()

		scoreStart := q.nowFunc()
		qual = q.scorer.Qualify(ctx, lead, enrichment)
		scoreMS = time.Since(scoreStart).Milliseconds()

		if q.cache != nil {
			q.cache.Set(ctx, cache.NSQualification, key, cachedQualification{
				Enrichment:    enrichment,
				Qualification: qual,
			}, cache.TTLQualification)
		}
	}

	routeStart := q.nowFunc()
	routing := q.router.Route(ctx, lead, enrichment, qual)
	routeMS := time.Since(routeStart).Milliseconds()

	zap.L().Info("lead qualified",
		zap.String("email", lead.Email),
		zap.Int("score", qual.Score),
		zap.String("tier", string(qual.Tier)),
		zap.String("action", string(routing.Action)),
		zap.Bool("cache_hit", cacheHit),
		zap.Int64("enrich_ms", enrichMS),
		zap.Int64("score_ms", scoreMS),
		zap.Int64("route_ms", routeMS),
		zap.Int64("total_ms", time.Since(start).Milliseconds()),
	)

	return model.QualifiedLead{
		Lead:          lead,
		Enrichment:    enrichment,
		Qualification: qual,
		Routing:       routing,
	}, nil
}
