package route

import (
	"strings"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// Rule overrides the tier-default action when its condition matches. Rules
// are evaluated in ascending priority order; the first match wins.
type Rule struct {
	Name        string
	Priority    int
	Condition   func(lead model.Lead, enrichment model.EnrichmentResult, qual model.QualificationResult) bool
	Action      model.RoutingAction
	Description string
}

// DefaultRules returns the stock rule set.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "enterprise_priority",
			Priority: 1,
			Condition: func(_ model.Lead, enrichment model.EnrichmentResult, qual model.QualificationResult) bool {
				return enrichment.Company.RevenueValue > 50_000_000 && qual.Score >= 80
			},
			Action:      model.ActionRouteToAE,
			Description: "Enterprise accounts with high scores go directly to AE",
		},
		{
			Name:     "demo_request",
			Priority: 2,
			Condition: func(lead model.Lead, _ model.EnrichmentResult, qual model.QualificationResult) bool {
				return strings.Contains(strings.ToLower(lead.Message), "demo") && qual.Score >= 50
			},
			Action:      model.ActionScheduleDemo,
			Description: "Demo requests with decent scores get auto-scheduled",
		},
	}
}
