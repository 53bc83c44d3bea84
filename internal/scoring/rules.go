package scoring

import (
	"strconv"
	"strings"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// Keyword groups for the message-derived sub-scores. Matching is plain
// substring search on the lowercased message.
var (
	highIntentWords = []string{"demo", "pricing", "quote", "purchase", "buy", "implement", "integrate", "migrate", "replace", "switch from"}
	midIntentWords  = []string{"interested", "looking for", "need", "want", "solution", "tool", "platform", "evaluate", "compare"}
	lowIntentWords  = []string{"learn", "information", "curious", "exploring", "research", "what is"}

	specificityWords = []string{"team of", "employees", "users", "seats"}
	timeframeWords   = []string{"timeline", "deadline", "by q", "this quarter", "this month"}
	painWords        = []string{"struggling", "frustrated", "problem", "challenge", "pain", "slow", "manual", "inefficient", "broken"}

	budgetWords = []string{"budget", "$", "spend", "invest", "allocat"}

	urgentWords     = []string{"asap", "urgent", "immediately", "right away", "today"}
	soonWords       = []string{"this week", "this month", "this quarter", "by end of", "deadline"}
	planningWords   = []string{"next quarter", "next year", "planning", "roadmap", "eventually"}
	evaluatingWords = []string{"competitor", "alternative", "vs", "compared to", "switching from"}
)

func containsAny(msg string, words []string) bool {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}

// RuleScores computes the four deterministic sub-scores for a lead.
func RuleScores(icp ICP, lead model.Lead, enrichment model.EnrichmentResult) model.ScoringBreakdown {
	msg := strings.ToLower(lead.Message)
	return model.ScoringBreakdown{
		CompanyFit:      scoreCompanyFit(icp, enrichment),
		IntentSignal:    scoreIntent(msg),
		BudgetIndicator: scoreBudget(msg, enrichment.Company),
		Urgency:         scoreUrgency(msg),
	}
}

// scoreCompanyFit measures ICP match: industry 30, size 25, revenue 20,
// contact title 15, geography 10.
func scoreCompanyFit(icp ICP, enrichment model.EnrichmentResult) float64 {
	var score float64
	co := enrichment.Company
	person := enrichment.Person

	if co.Industry != "" {
		industry := strings.ToLower(co.Industry)
		if matchesTarget(industry, icp.TargetIndustries) {
			score += 30
		} else if containsAny(industry, []string{"tech", "software", "digital"}) {
			score += 15
		}
	}

	if co.EmployeeCount > 0 {
		switch {
		case co.EmployeeCount >= icp.MinCompanySize && co.EmployeeCount <= icp.MaxCompanySize:
			score += 25
		case co.EmployeeCount > icp.MaxCompanySize:
			// Enterprise overshoot is still a viable account.
			score += 15
		case co.EmployeeCount >= 10:
			score += 10
		}
	}

	if rev := revenueValue(co); rev > 0 {
		if rev >= icp.MinRevenue {
			score += 20
		} else if rev >= 500_000 {
			score += 10
		}
	}

	if person.Title != "" {
		title := strings.ToLower(person.Title)
		if containsAny(title, icp.HighValueTitles) {
			score += 15
		} else if containsAny(title, icp.MidValueTitles) {
			score += 8
		}
	}

	if co.Country != "" && matchesTarget(co.Country, icp.TargetCountries) {
		score += 10
	}

	return clampScore(score)
}

// scoreIntent measures purchase intent in the message: keyword tier 40/25/10,
// specificity up to 30, pain language 20, substance by length 10.
func scoreIntent(msg string) float64 {
	var score float64

	switch {
	case containsAny(msg, highIntentWords):
		score += 40
	case containsAny(msg, midIntentWords):
		score += 25
	case containsAny(msg, lowIntentWords):
		score += 10
	}

	if containsAny(msg, specificityWords) {
		score += 15
	}
	if containsAny(msg, timeframeWords) {
		score += 15
	}
	if containsAny(msg, painWords) {
		score += 20
	}

	words := len(strings.Fields(msg))
	if words > 50 {
		score += 10
	} else if words > 20 {
		score += 5
	}

	return clampScore(score)
}

// scoreBudget measures spending ability: explicit budget language 50, company
// size as proxy up to 30, disclosed funding up to 20.
func scoreBudget(msg string, co model.CompanyData) float64 {
	var score float64

	if containsAny(msg, budgetWords) {
		score += 50
	}

	score += sizeBudgetProxy(co)

	switch {
	case co.FundingTotal > 50_000_000:
		score += 20
	case co.FundingTotal > 10_000_000:
		score += 15
	case co.FundingTotal > 1_000_000:
		score += 10
	}

	return clampScore(score)
}

// sizeBudgetProxy maps headcount to an assumed spending capacity.
func sizeBudgetProxy(co model.CompanyData) float64 {
	count := co.EmployeeCount
	if count <= 0 {
		return bucketBudgetProxy(co.SizeBucket)
	}
	switch {
	case count > 5000:
		return 30
	case count > 1000:
		return 28
	case count > 200:
		return 25
	case count > 50:
		return 20
	case count > 10:
		return 12
	case count > 1:
		return 5
	default:
		return 2
	}
}

func bucketBudgetProxy(bucket string) float64 {
	switch bucket {
	case "1000+":
		return 28
	case "200-1000":
		return 25
	case "50-200":
		return 20
	case "10-50":
		return 12
	case "1-10":
		return 5
	default:
		return 0
	}
}

// scoreUrgency measures time pressure: urgent 80, near-term 50, planning 20,
// plus 20 when the lead is actively comparing vendors.
func scoreUrgency(msg string) float64 {
	var score float64

	switch {
	case containsAny(msg, urgentWords):
		score += 80
	case containsAny(msg, soonWords):
		score += 50
	case containsAny(msg, planningWords):
		score += 20
	}

	if containsAny(msg, evaluatingWords) {
		score += 20
	}

	return clampScore(score)
}

// revenueValue resolves the best available annual revenue figure: the exact
// provider value when present, otherwise the lower bound of the estimated
// band string (e.g. "$10M-$50M" reads as 10M).
func revenueValue(co model.CompanyData) float64 {
	if co.RevenueValue > 0 {
		return float64(co.RevenueValue)
	}
	if co.EstimatedRevenue == "" {
		return 0
	}

	s := strings.ToLower(strings.ReplaceAll(co.EstimatedRevenue, ",", ""))
	s = strings.ReplaceAll(s, "$", "")
	if idx := strings.IndexAny(s, "-+"); idx >= 0 {
		s = s[:idx]
	}

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "b"):
		mult = 1e9
		s = strings.TrimSuffix(s, "b")
	case strings.HasSuffix(s, "m"):
		mult = 1e6
		s = strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "k"):
		mult = 1e3
		s = strings.TrimSuffix(s, "k")
	}

	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return val * mult
}

func matchesTarget(value string, targets []string) bool {
	for _, t := range targets {
		if strings.EqualFold(value, t) {
			return true
		}
	}
	return false
}

func clampScore(s float64) float64 {
	if s > 100 {
		return 100
	}
	if s < 0 {
		return 0
	}
	return s
}
