package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/lead-qualifier/internal/model"
)

func TestScoreCompanyFit_FullICPMatch(t *testing.T) {
	icp := DefaultICP()
	enrichment := model.EnrichmentResult{
		Company: model.CompanyData{
			Industry:      "SaaS",
			EmployeeCount: 500,
			RevenueValue:  50_000_000,
			Country:       "US",
		},
		Person: model.PersonData{Title: "Chief Technology Officer"},
	}

	assert.Equal(t, 100.0, scoreCompanyFit(icp, enrichment))
}

func TestScoreCompanyFit_PartialSignals(t *testing.T) {
	icp := DefaultICP()

	// Tech-adjacent industry scores half the exact-match points.
	adjacent := model.EnrichmentResult{
		Company: model.CompanyData{Industry: "Fintech Software"},
	}
	assert.Equal(t, 15.0, scoreCompanyFit(icp, adjacent))

	// Oversize enterprise is discounted but not zeroed.
	oversize := model.EnrichmentResult{
		Company: model.CompanyData{EmployeeCount: 50_000},
	}
	assert.Equal(t, 15.0, scoreCompanyFit(icp, oversize))

	// Mid-level titles score below executive ones.
	manager := model.EnrichmentResult{
		Person: model.PersonData{Title: "Engineering Manager"},
	}
	assert.Equal(t, 8.0, scoreCompanyFit(icp, manager))

	empty := model.EnrichmentResult{}
	assert.Equal(t, 0.0, scoreCompanyFit(icp, empty))
}

func TestRevenueValue(t *testing.T) {
	assert.Equal(t, 50_000_000.0, revenueValue(model.CompanyData{RevenueValue: 50_000_000}))

	// Band strings resolve to their lower bound.
	assert.Equal(t, 10_000_000.0, revenueValue(model.CompanyData{EstimatedRevenue: "$10M-$50M"}))
	assert.Equal(t, 200_000_000.0, revenueValue(model.CompanyData{EstimatedRevenue: "$200M+"}))
	assert.Equal(t, 500_000.0, revenueValue(model.CompanyData{EstimatedRevenue: "$500K"}))
	assert.Equal(t, 2_000_000_000.0, revenueValue(model.CompanyData{EstimatedRevenue: "$2B"}))

	assert.Equal(t, 0.0, revenueValue(model.CompanyData{EstimatedRevenue: "undisclosed"}))
	assert.Equal(t, 0.0, revenueValue(model.CompanyData{}))
}

func TestScoreIntent(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want float64
	}{
		{"high intent keyword", "can we get a demo", 40},
		{"mid intent keyword", "we are looking for a tool", 25},
		{"low intent keyword", "just curious about this", 10},
		{"empty message", "", 0},
		{
			"stacked signals",
			"we need a demo for a team of 40, timeline is this quarter, struggling with manual work",
			// 40 high + 15 specificity + 15 timeframe + 20 pain
			90,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, scoreIntent(tc.msg))
		})
	}
}

func TestScoreIntent_LengthBonus(t *testing.T) {
	short := "hello there"
	medium := "word word word word word word word word word word word word word word word word word word word word word"

	assert.Equal(t, 0.0, scoreIntent(short))
	// 21 words, no keywords: just the length bonus.
	assert.Equal(t, 5.0, scoreIntent(medium))
}

func TestScoreBudget(t *testing.T) {
	// Explicit budget mention plus a large company caps the proxy stack.
	got := scoreBudget("our budget is approved", model.CompanyData{EmployeeCount: 10_000})
	assert.Equal(t, 80.0, got)

	// Funding tiers.
	assert.Equal(t, 20.0, scoreBudget("", model.CompanyData{FundingTotal: 60_000_000}))
	assert.Equal(t, 15.0, scoreBudget("", model.CompanyData{FundingTotal: 20_000_000}))
	assert.Equal(t, 10.0, scoreBudget("", model.CompanyData{FundingTotal: 5_000_000}))

	// Size bucket stands in when headcount is missing.
	assert.Equal(t, 25.0, scoreBudget("", model.CompanyData{SizeBucket: "200-1000"}))

	assert.Equal(t, 0.0, scoreBudget("", model.CompanyData{}))
}

func TestScoreUrgency(t *testing.T) {
	assert.Equal(t, 80.0, scoreUrgency("we need this asap"))
	assert.Equal(t, 50.0, scoreUrgency("rollout this quarter"))
	assert.Equal(t, 20.0, scoreUrgency("planning for next year"))
	assert.Equal(t, 0.0, scoreUrgency("hello"))

	// Active vendor comparison stacks on top of the time signal.
	assert.Equal(t, 100.0, scoreUrgency("urgent, switching from a competitor"))
	assert.Equal(t, 20.0, scoreUrgency("how do you compare to alternatives"))
}

func TestRuleScores_AllSubScoresBounded(t *testing.T) {
	icp := DefaultICP()
	lead := model.Lead{
		Email: "cto@bigco.com",
		Message: "urgent: budget approved, need a demo asap, switching from a competitor, " +
			"struggling with manual processes, team of 500, timeline this month",
	}
	enrichment := model.EnrichmentResult{
		Company: model.CompanyData{
			Industry:      "technology",
			EmployeeCount: 5000,
			RevenueValue:  500_000_000,
			FundingTotal:  100_000_000,
			Country:       "US",
		},
		Person: model.PersonData{Title: "CTO"},
	}

	b := RuleScores(icp, lead, enrichment)
	for name, score := range map[string]float64{
		"company_fit":      b.CompanyFit,
		"intent_signal":    b.IntentSignal,
		"budget_indicator": b.BudgetIndicator,
		"urgency":          b.Urgency,
	} {
		assert.GreaterOrEqual(t, score, 0.0, name)
		assert.LessOrEqual(t, score, 100.0, name)
	}
	assert.Equal(t, 100.0, b.Urgency)
	assert.Equal(t, 100.0, b.BudgetIndicator)
}
