package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// Adjustment is the LLM's nudge on top of the rule score.
type Adjustment struct {
	ScoreAdjustment  int    `json:"score_adjustment"`
	Reasoning        string `json:"reasoning"`
	DetailedAnalysis string `json:"detailed_analysis"`
}

// Analyzer provides the LLM scoring adjustment. Implementations must clamp
// ScoreAdjustment to [-10, 10].
type Analyzer interface {
	Analyze(ctx context.Context, lead model.Lead, enrichment model.EnrichmentResult, breakdown model.ScoringBreakdown) (Adjustment, error)
}

// Engine combines rule-based scoring with an optional LLM adjustment.
type Engine struct {
	icp      ICP
	weights  Weights
	analyzer Analyzer

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewEngine creates a scoring engine. analyzer may be nil for rule-only
// scoring (tests, offline batch runs without an API key).
func NewEngine(icp ICP, weights Weights, analyzer Analyzer) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		icp:      icp,
		weights:  weights,
		analyzer: analyzer,
		nowFunc:  time.Now,
	}, nil
}

// Qualify scores a lead. LLM failure degrades to rule-only scoring with a
// zero adjustment; it never fails the qualification.
func (e *Engine) Qualify(ctx context.Context, lead model.Lead, enrichment model.EnrichmentResult) model.QualificationResult {
	start := e.nowFunc()

	breakdown := RuleScores(e.icp, lead, enrichment)

	adj := Adjustment{}
	modelUsed := "rules-only"
	if e.analyzer != nil {
		var err error
		adj, err = e.analyzer.Analyze(ctx, lead, enrichment, breakdown)
		if err != nil {
			zap.L().Warn("llm analysis failed, rule-based score stands",
				zap.String("email", lead.Email),
				zap.Error(err),
			)
			adj = Adjustment{}
		} else {
			modelUsed = "llm"
		}
	}
	adj.ScoreAdjustment = clampAdjustment(adj.ScoreAdjustment)

	raw := breakdown.CompanyFit*e.weights.CompanyFit +
		breakdown.IntentSignal*e.weights.IntentSignal +
		breakdown.BudgetIndicator*e.weights.BudgetIndicator +
		breakdown.Urgency*e.weights.Urgency

	final := int(raw) + adj.ScoreAdjustment
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	tier := model.ClassifyTier(final)
	action := determineAction(tier, enrichment)

	reasoning := adj.Reasoning
	if reasoning == "" {
		reasoning = summarize(breakdown, tier)
	}

	return model.QualificationResult{
		Score:            final,
		Tier:             tier,
		Action:           action,
		Reasoning:        reasoning,
		Breakdown:        breakdown,
		AIAnalysis:       adj.DetailedAnalysis,
		AIAdjustment:     adj.ScoreAdjustment,
		ModelUsed:        modelUsed,
		ProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000,
		QualifiedAt:      e.nowFunc().UTC(),
	}
}

// determineAction maps tier to the default routing action. Thin enrichment
// under a HOT or WARM score is suspicious enough to warrant a human look.
func determineAction(tier model.Tier, enrichment model.EnrichmentResult) model.RoutingAction {
	if enrichment.Confidence < 0.3 && (tier == model.TierHot || tier == model.TierWarm) {
		return model.ActionManualReview
	}
	switch tier {
	case model.TierHot:
		return model.ActionRouteToAE
	case model.TierWarm:
		return model.ActionAddToNurture
	case model.TierCold:
		return model.ActionAddToMarketing
	default:
		return model.ActionArchive
	}
}

// summarize builds the fallback reasoning string from the rule sub-scores.
func summarize(b model.ScoringBreakdown, tier model.Tier) string {
	var parts []string
	if b.CompanyFit >= 60 {
		parts = append(parts, "strong company fit")
	} else if b.CompanyFit >= 30 {
		parts = append(parts, "moderate company fit")
	}
	if b.IntentSignal >= 50 {
		parts = append(parts, "clear purchase intent")
	}
	if b.BudgetIndicator >= 40 {
		parts = append(parts, "budget indicators present")
	}
	if b.Urgency >= 50 {
		parts = append(parts, "time-sensitive need")
	}
	if len(parts) == 0 {
		parts = append(parts, "limited qualification signals")
	}

	summary := strings.Join(parts, ", ")
	summary = strings.ToUpper(summary[:1]) + summary[1:]
	return fmt.Sprintf("%s. Classified as %s.", summary, tier)
}

func clampAdjustment(adj int) int {
	if adj > 10 {
		return 10
	}
	if adj < -10 {
		return -10
	}
	return adj
}
