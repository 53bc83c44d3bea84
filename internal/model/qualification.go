package model

import "time"

// Tier is the qualification bucket derived from the final score.
type Tier string

const (
	TierHot          Tier = "HOT"          // 80-100: route to AE immediately
	TierWarm         Tier = "WARM"         // 50-79: add to nurture sequence
	TierCold         Tier = "COLD"         // 20-49: add to marketing funnel
	TierDisqualified Tier = "DISQUALIFIED" // 0-19: archive
)

// ClassifyTier maps a final score to its tier. The bands partition [0,100]
// with no gaps: HOT>=80, WARM>=50, COLD>=20, else DISQUALIFIED.
func ClassifyTier(score int) Tier {
	switch {
	case score >= 80:
		return TierHot
	case score >= 50:
		return TierWarm
	case score >= 20:
		return TierCold
	default:
		return TierDisqualified
	}
}

// RoutingAction is what the router should do with a qualified lead.
type RoutingAction string

const (
	ActionRouteToAE      RoutingAction = "route_to_ae"
	ActionAddToNurture   RoutingAction = "add_to_nurture"
	ActionAddToMarketing RoutingAction = "add_to_marketing"
	ActionScheduleDemo   RoutingAction = "schedule_demo"
	ActionArchive        RoutingAction = "archive"
	ActionManualReview   RoutingAction = "manual_review"
)

// ScoringBreakdown carries the four rule-based sub-scores, each in [0,100].
// Derived deterministically from the lead and its enrichment.
type ScoringBreakdown struct {
	CompanyFit      float64 `json:"company_fit"`
	IntentSignal    float64 `json:"intent_signal"`
	BudgetIndicator float64 `json:"budget_indicator"`
	Urgency         float64 `json:"urgency"`
}

// QualifiedLead bundles everything the pipeline produced for one lead.
type QualifiedLead struct {
	Lead          Lead                `json:"lead"`
	Enrichment    EnrichmentResult    `json:"enrichment"`
	Qualification QualificationResult `json:"qualification"`
	Routing       RoutingResult       `json:"routing"`
}

// QualificationResult is the outcome of scoring one lead. Created once per
// qualification and read-only downstream.
type QualificationResult struct {
	Score            int              `json:"score"`
	Tier             Tier             `json:"tier"`
	Action           RoutingAction    `json:"action"`
	Reasoning        string           `json:"reasoning"`
	Breakdown        ScoringBreakdown `json:"breakdown"`
	AIAnalysis       string           `json:"ai_analysis,omitempty"`
	AIAdjustment     int              `json:"ai_adjustment"`
	ModelUsed        string           `json:"model_used,omitempty"`
	ProcessingTimeMS float64          `json:"processing_time_ms"`
	QualifiedAt      time.Time        `json:"qualified_at"`
}
