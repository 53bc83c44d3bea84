package model

// CompanyData holds company-level facts gathered from enrichment providers.
type CompanyData struct {
	Name             string   `json:"name,omitempty"`
	Domain           string   `json:"domain,omitempty"`
	Industry         string   `json:"industry,omitempty"`
	EmployeeCount    int      `json:"employee_count,omitempty"`
	SizeBucket       string   `json:"size_bucket,omitempty"`
	EstimatedRevenue string   `json:"estimated_revenue,omitempty"`
	RevenueValue     int64    `json:"revenue_value,omitempty"`
	FundingTotal     int64    `json:"funding_total,omitempty"`
	Location         string   `json:"location,omitempty"`
	Country          string   `json:"country,omitempty"`
	TechStack        []string `json:"tech_stack,omitempty"`
	LinkedInURL      string   `json:"linkedin_url,omitempty"`
	FoundedYear      int      `json:"founded_year,omitempty"`
}

// PersonData holds contact-level facts gathered from enrichment providers.
type PersonData struct {
	FullName      string `json:"full_name,omitempty"`
	Title         string `json:"title,omitempty"`
	Seniority     string `json:"seniority,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
}

// EnrichmentResult is the merged output of all enrichment providers for one
// lead. It is never mutated after construction; Merge returns a new value.
type EnrichmentResult struct {
	Company    CompanyData `json:"company"`
	Person     PersonData  `json:"person"`
	Sources    []string    `json:"sources,omitempty"`
	Confidence float64     `json:"confidence"`
	Errors     []string    `json:"errors,omitempty"`
	LatencyMS  int64       `json:"latency_ms,omitempty"`
}

// Merge folds other into a copy of r. Fields already populated in r win;
// other only fills gaps. Sources and errors are concatenated. This makes
// the merge deterministic under a fixed provider priority order regardless
// of completion order.
func (r EnrichmentResult) Merge(other EnrichmentResult) EnrichmentResult {
	out := r

	out.Company = mergeCompany(r.Company, other.Company)
	out.Person = mergePerson(r.Person, other.Person)

	out.Sources = append(append([]string{}, r.Sources...), other.Sources...)
	out.Errors = append(append([]string{}, r.Errors...), other.Errors...)
	if other.Confidence > out.Confidence {
		out.Confidence = other.Confidence
	}
	return out
}

func mergeCompany(a, b CompanyData) CompanyData {
	if a.Name == "" {
		a.Name = b.Name
	}
	if a.Domain == "" {
		a.Domain = b.Domain
	}
	if a.Industry == "" {
		a.Industry = b.Industry
	}
	if a.EmployeeCount == 0 {
		a.EmployeeCount = b.EmployeeCount
	}
	if a.SizeBucket == "" {
		a.SizeBucket = b.SizeBucket
	}
	if a.EstimatedRevenue == "" {
		a.EstimatedRevenue = b.EstimatedRevenue
	}
	if a.RevenueValue == 0 {
		a.RevenueValue = b.RevenueValue
	}
	if a.FundingTotal == 0 {
		a.FundingTotal = b.FundingTotal
	}
	if a.Location == "" {
		a.Location = b.Location
	}
	if a.Country == "" {
		a.Country = b.Country
	}
	if len(a.TechStack) == 0 {
		a.TechStack = b.TechStack
	}
	if a.LinkedInURL == "" {
		a.LinkedInURL = b.LinkedInURL
	}
	if a.FoundedYear == 0 {
		a.FoundedYear = b.FoundedYear
	}
	return a
}

func mergePerson(a, b PersonData) PersonData {
	if a.FullName == "" {
		a.FullName = b.FullName
	}
	if a.Title == "" {
		a.Title = b.Title
	}
	if a.Seniority == "" {
		a.Seniority = b.Seniority
	}
	if b.EmailVerified {
		a.EmailVerified = true
	}
	return a
}
