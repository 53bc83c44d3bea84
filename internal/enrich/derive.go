package enrich

import "github.com/sells-group/lead-qualifier/internal/model"

// deriveCompany fills size bucket and revenue band from the employee count
// when providers did not report them directly.
func deriveCompany(c model.CompanyData) model.CompanyData {
	if c.EmployeeCount <= 0 {
		return c
	}
	if c.SizeBucket == "" {
		c.SizeBucket = classifySize(c.EmployeeCount)
	}
	if c.EstimatedRevenue == "" {
		c.EstimatedRevenue = estimateRevenue(c.EmployeeCount)
	}
	return c
}

func classifySize(count int) string {
	switch {
	case count < 10:
		return "1-10"
	case count < 50:
		return "10-50"
	case count < 200:
		return "50-200"
	case count < 1000:
		return "200-1000"
	default:
		return "1000+"
	}
}

func estimateRevenue(count int) string {
	switch {
	case count < 50:
		return "$1M-$10M"
	case count < 200:
		return "$10M-$50M"
	case count < 1000:
		return "$50M-$200M"
	default:
		return "$200M+"
	}
}
