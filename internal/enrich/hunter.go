package enrich

import (
	"context"
	"errors"

	"github.com/sells-group/lead-qualifier/internal/model"
	"github.com/sells-group/lead-qualifier/pkg/hunter"
)

// HunterProvider adapts Hunter email verification to the Provider interface.
// It only contributes the deliverability flag, so it merges after the
// firmographic providers.
type HunterProvider struct {
	client hunter.Client
}

// NewHunterProvider wraps a Hunter client as an enrichment provider.
func NewHunterProvider(client hunter.Client) *HunterProvider {
	return &HunterProvider{client: client}
}

func (p *HunterProvider) Name() string  { return "hunter" }
func (p *HunterProvider) Priority() int { return 20 }

func (p *HunterProvider) Enrich(ctx context.Context, email, _ string) (model.EnrichmentResult, error) {
	verification, err := p.client.VerifyEmail(ctx, email)
	if err != nil {
		var apiErr *hunter.APIError
		if errors.As(err, &apiErr) {
			return model.EnrichmentResult{}, markTransient(err, apiErr.StatusCode)
		}
		return model.EnrichmentResult{}, err
	}

	return model.EnrichmentResult{
		Person: model.PersonData{EmailVerified: verification.Deliverable()},
	}, nil
}
