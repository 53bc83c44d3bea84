// Package scoring turns a lead plus its enrichment into a 0-100 score, a
// tier, and a routing action. Deterministic rule scoring does the heavy
// lifting; an LLM pass nudges the result by at most ten points either way.
package scoring

import (
	"math"

	"github.com/rotisserie/eris"
)

// ICP describes the ideal customer profile the rules score against.
type ICP struct {
	TargetIndustries []string
	MinCompanySize   int
	MaxCompanySize   int
	MinRevenue       float64
	TargetCountries  []string
	HighValueTitles  []string
	MidValueTitles   []string
}

// DefaultICP returns the stock profile: mid-market tech-adjacent companies
// in major English- and European-market countries.
func DefaultICP() ICP {
	return ICP{
		TargetIndustries: []string{"technology", "finance", "healthcare", "e-commerce", "saas"},
		MinCompanySize:   50,
		MaxCompanySize:   10000,
		MinRevenue:       1_000_000,
		TargetCountries:  []string{"US", "UK", "CA", "DE", "FR", "AU"},
		HighValueTitles:  []string{"ceo", "cto", "cfo", "vp", "director", "head of", "chief"},
		MidValueTitles:   []string{"manager", "lead", "senior"},
	}
}

// Weights blends the four rule sub-scores into the raw score. Must sum to 1.
type Weights struct {
	CompanyFit      float64
	IntentSignal    float64
	BudgetIndicator float64
	Urgency         float64
}

// DefaultWeights returns the standard blend.
func DefaultWeights() Weights {
	return Weights{
		CompanyFit:      0.35,
		IntentSignal:    0.30,
		BudgetIndicator: 0.20,
		Urgency:         0.15,
	}
}

// Validate rejects weight sets that do not sum to 1 within tolerance.
func (w Weights) Validate() error {
	sum := w.CompanyFit + w.IntentSignal + w.BudgetIndicator + w.Urgency
	if math.Abs(sum-1.0) > 0.001 {
		return eris.Errorf("scoring: weights sum to %.3f, want 1.0", sum)
	}
	if w.CompanyFit < 0 || w.IntentSignal < 0 || w.BudgetIndicator < 0 || w.Urgency < 0 {
		return eris.New("scoring: weights must be non-negative")
	}
	return nil
}
