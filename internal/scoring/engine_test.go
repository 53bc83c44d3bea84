package scoring

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// stubAnalyzer returns a fixed adjustment or error.
type stubAnalyzer struct {
	adj Adjustment
	err error
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ model.Lead, _ model.EnrichmentResult, _ model.ScoringBreakdown) (Adjustment, error) {
	return s.adj, s.err
}

func newEngine(t *testing.T, analyzer Analyzer) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultICP(), DefaultWeights(), analyzer)
	require.NoError(t, err)
	return e
}

func hotLead() (model.Lead, model.EnrichmentResult) {
	lead := model.Lead{
		Email:   "cto@bigco.com",
		Company: "BigCo",
		Message: "We need a demo asap. Budget approved, struggling with manual processes, timeline this quarter, team of 50 seats.",
	}
	enrichment := model.EnrichmentResult{
		Company: model.CompanyData{
			Name:          "BigCo",
			Industry:      "saas",
			EmployeeCount: 5000,
			RevenueValue:  200_000_000,
			Country:       "US",
		},
		Person:     model.PersonData{FullName: "Jane Roe", Title: "CTO"},
		Confidence: 0.9,
	}
	return lead, enrichment
}

func TestEngine_QualifyHotLead(t *testing.T) {
	e := newEngine(t, &stubAnalyzer{adj: Adjustment{ScoreAdjustment: 5, Reasoning: "executive buyer with approved budget"}})

	lead, enrichment := hotLead()
	got := e.Qualify(context.Background(), lead, enrichment)

	assert.Equal(t, model.TierHot, got.Tier)
	assert.Equal(t, model.ActionRouteToAE, got.Action)
	assert.GreaterOrEqual(t, got.Score, 80)
	assert.Equal(t, 5, got.AIAdjustment)
	assert.Equal(t, "executive buyer with approved budget", got.Reasoning)
	assert.Equal(t, "llm", got.ModelUsed)
	assert.False(t, got.QualifiedAt.IsZero())
}

func TestEngine_AnalyzerFailureDegradesToRules(t *testing.T) {
	e := newEngine(t, &stubAnalyzer{err: eris.New("api down")})

	lead, enrichment := hotLead()
	got := e.Qualify(context.Background(), lead, enrichment)

	assert.Equal(t, 0, got.AIAdjustment)
	assert.Equal(t, "rules-only", got.ModelUsed)
	assert.NotEmpty(t, got.Reasoning, "fallback reasoning must be generated")
	assert.Contains(t, got.Reasoning, "Classified as")
}

func TestEngine_NilAnalyzerScoresRulesOnly(t *testing.T) {
	e := newEngine(t, nil)

	lead, enrichment := hotLead()
	got := e.Qualify(context.Background(), lead, enrichment)

	assert.Equal(t, "rules-only", got.ModelUsed)
	assert.Equal(t, 0, got.AIAdjustment)
}

func TestEngine_AdjustmentClamped(t *testing.T) {
	e := newEngine(t, &stubAnalyzer{adj: Adjustment{ScoreAdjustment: 40}})

	lead, enrichment := hotLead()
	got := e.Qualify(context.Background(), lead, enrichment)
	assert.Equal(t, 10, got.AIAdjustment)

	e = newEngine(t, &stubAnalyzer{adj: Adjustment{ScoreAdjustment: -40}})
	got = e.Qualify(context.Background(), lead, enrichment)
	assert.Equal(t, -10, got.AIAdjustment)
}

func TestEngine_ScoreStaysInBounds(t *testing.T) {
	// A worthless lead with a negative adjustment must floor at zero.
	e := newEngine(t, &stubAnalyzer{adj: Adjustment{ScoreAdjustment: -10}})
	got := e.Qualify(context.Background(), model.Lead{Email: "x@y.com"}, model.EnrichmentResult{})
	assert.Equal(t, 0, got.Score)
	assert.Equal(t, model.TierDisqualified, got.Tier)
	assert.Equal(t, model.ActionArchive, got.Action)
}

func TestEngine_LowConfidenceGetsManualReview(t *testing.T) {
	e := newEngine(t, &stubAnalyzer{adj: Adjustment{ScoreAdjustment: 5}})

	lead, enrichment := hotLead()
	enrichment.Confidence = 0.1

	got := e.Qualify(context.Background(), lead, enrichment)
	require.Equal(t, model.TierHot, got.Tier)
	assert.Equal(t, model.ActionManualReview, got.Action,
		"hot score on thin enrichment needs a human")
}

func TestDetermineAction_TierMapping(t *testing.T) {
	confident := model.EnrichmentResult{Confidence: 0.9}

	assert.Equal(t, model.ActionRouteToAE, determineAction(model.TierHot, confident))
	assert.Equal(t, model.ActionAddToNurture, determineAction(model.TierWarm, confident))
	assert.Equal(t, model.ActionAddToMarketing, determineAction(model.TierCold, confident))
	assert.Equal(t, model.ActionArchive, determineAction(model.TierDisqualified, confident))

	// Low confidence only overrides tiers a rep would otherwise act on.
	thin := model.EnrichmentResult{Confidence: 0.2}
	assert.Equal(t, model.ActionManualReview, determineAction(model.TierWarm, thin))
	assert.Equal(t, model.ActionAddToMarketing, determineAction(model.TierCold, thin))
}

func TestWeights_Validate(t *testing.T) {
	require.NoError(t, DefaultWeights().Validate())

	bad := Weights{CompanyFit: 0.5, IntentSignal: 0.5, BudgetIndicator: 0.5, Urgency: 0.5}
	assert.Error(t, bad.Validate())

	negative := Weights{CompanyFit: 1.5, IntentSignal: -0.5}
	assert.Error(t, negative.Validate())
}

func TestNewEngine_RejectsBadWeights(t *testing.T) {
	_, err := NewEngine(DefaultICP(), Weights{CompanyFit: 1, IntentSignal: 1}, nil)
	assert.Error(t, err)
}
