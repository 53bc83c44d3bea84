package enrich

import (
	"context"
	"errors"

	"github.com/sells-group/lead-qualifier/internal/model"
	"github.com/sells-group/lead-qualifier/internal/resilience"
	"github.com/sells-group/lead-qualifier/pkg/clearbit"
)

// ClearbitProvider adapts the Clearbit combined lookup to the Provider
// interface. It carries the richest data of the configured providers, so it
// merges first.
type ClearbitProvider struct {
	client clearbit.Client
}

// NewClearbitProvider wraps a Clearbit client as an enrichment provider.
func NewClearbitProvider(client clearbit.Client) *ClearbitProvider {
	return &ClearbitProvider{client: client}
}

func (p *ClearbitProvider) Name() string  { return "clearbit" }
func (p *ClearbitProvider) Priority() int { return 10 }

func (p *ClearbitProvider) Enrich(ctx context.Context, email, domain string) (model.EnrichmentResult, error) {
	combined, err := p.client.Combined(ctx, email)
	if err != nil {
		// No record is a normal outcome, not a provider failure.
		if errors.Is(err, clearbit.ErrNotFound) {
			return p.companyFallback(ctx, domain)
		}
		return model.EnrichmentResult{}, markTransient(err, apiStatus(err))
	}

	var result model.EnrichmentResult
	if combined.Person != nil {
		result.Person = model.PersonData{
			FullName:  combined.Person.Name.FullName,
			Title:     combined.Person.Employment.Title,
			Seniority: combined.Person.Employment.Seniority,
		}
	}
	if combined.Company != nil {
		result.Company = companyData(combined.Company)
	} else if domain != "" {
		fallback, err := p.companyFallback(ctx, domain)
		if err == nil {
			result.Company = fallback.Company
		}
	}
	return result, nil
}

func (p *ClearbitProvider) companyFallback(ctx context.Context, domain string) (model.EnrichmentResult, error) {
	if domain == "" {
		return model.EnrichmentResult{}, nil
	}
	company, err := p.client.Company(ctx, domain)
	if err != nil {
		if errors.Is(err, clearbit.ErrNotFound) {
			return model.EnrichmentResult{}, nil
		}
		return model.EnrichmentResult{}, markTransient(err, apiStatus(err))
	}
	return model.EnrichmentResult{Company: companyData(company)}, nil
}

func companyData(c *clearbit.Company) model.CompanyData {
	linkedIn := ""
	if c.LinkedIn.Handle != "" {
		linkedIn = "https://linkedin.com/" + c.LinkedIn.Handle
	}
	return model.CompanyData{
		Name:          c.Name,
		Domain:        c.Domain,
		Industry:      c.Category.Industry,
		EmployeeCount: c.Metrics.Employees,
		RevenueValue:  c.Metrics.AnnualRevenue,
		FundingTotal:  c.Metrics.Raised,
		Location:      c.Geo.City,
		Country:       c.Geo.Country,
		TechStack:     c.Tech,
		LinkedInURL:   linkedIn,
		FoundedYear:   c.FoundedYear,
	}
}

func apiStatus(err error) int {
	var cb *clearbit.APIError
	if errors.As(err, &cb) {
		return cb.StatusCode
	}
	return 0
}

// markTransient tags retryable HTTP failures so the retry layer knows to try
// again. Non-HTTP errors pass through and rely on network-level detection.
func markTransient(err error, status int) error {
	if status != 0 && resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(err, status)
	}
	return err
}
