// Package clearbit provides a client for the Clearbit person and company
// enrichment APIs.
package clearbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when Clearbit has no record for the lookup.
var ErrNotFound = eris.New("clearbit: no record found")

// APIError is a non-2xx response from the Clearbit API. Callers inspect
// StatusCode to decide whether the request is retryable.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clearbit: status %d: %s", e.StatusCode, e.Body)
}

// Client defines the Clearbit lookup operations.
type Client interface {
	// Combined looks up person and company data by email address.
	Combined(ctx context.Context, email string) (*CombinedResponse, error)
	// Company looks up company data by domain.
	Company(ctx context.Context, domain string) (*Company, error)
}

// CombinedResponse is the parsed combined lookup response.
type CombinedResponse struct {
	Person  *Person  `json:"person"`
	Company *Company `json:"company"`
}

// Person is the contact portion of a Clearbit record.
type Person struct {
	Name struct {
		FullName string `json:"fullName"`
	} `json:"name"`
	Employment struct {
		Title     string `json:"title"`
		Seniority string `json:"seniority"`
	} `json:"employment"`
}

// Company is the firmographic portion of a Clearbit record.
type Company struct {
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	Category struct {
		Industry string `json:"industry"`
	} `json:"category"`
	Metrics struct {
		Employees     int   `json:"employees"`
		AnnualRevenue int64 `json:"annualRevenue"`
		Raised        int64 `json:"raised"`
	} `json:"metrics"`
	Geo struct {
		City    string `json:"city"`
		Country string `json:"country"`
	} `json:"geo"`
	Tech     []string `json:"tech"`
	LinkedIn struct {
		Handle string `json:"handle"`
	} `json:"linkedin"`
	FoundedYear int `json:"foundedYear"`
}

// Option configures the Clearbit client.
type Option func(*httpClient)

// WithPersonBaseURL sets a custom combined-lookup base URL (for testing).
func WithPersonBaseURL(url string) Option {
	return func(c *httpClient) {
		c.personBaseURL = url
	}
}

// WithCompanyBaseURL sets a custom company-lookup base URL (for testing).
func WithCompanyBaseURL(url string) Option {
	return func(c *httpClient) {
		c.companyBaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey         string
	personBaseURL  string
	companyBaseURL string
	http           *http.Client
}

// NewClient creates a new Clearbit client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:         apiKey,
		personBaseURL:  "https://person-stream.clearbit.com",
		companyBaseURL: "https://company-stream.clearbit.com",
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Combined(ctx context.Context, email string) (*CombinedResponse, error) {
	reqURL := fmt.Sprintf("%s/v2/combined/find?email=%s", c.personBaseURL, url.QueryEscape(email))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var result CombinedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "clearbit: unmarshal combined response")
	}
	return &result, nil
}

func (c *httpClient) Company(ctx context.Context, domain string) (*Company, error) {
	reqURL := fmt.Sprintf("%s/v2/companies/find?domain=%s", c.companyBaseURL, url.QueryEscape(domain))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var result Company
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "clearbit: unmarshal company response")
	}
	return &result, nil
}

func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "clearbit: read response body")
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}
