package route

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-qualifier/internal/model"
)

type recordingNotifier struct {
	mu   sync.Mutex
	reps []string
	err  error
}

func (n *recordingNotifier) NotifyAssignment(_ context.Context, _ model.Lead, _ model.QualificationResult, rep model.SalesRep, _ model.RoutingAction) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.reps = append(n.reps, rep.Email)
	return nil
}

type recordingCRM struct {
	mu    sync.Mutex
	leads []string
	err   error
}

func (c *recordingCRM) SyncAssignment(_ context.Context, lead model.Lead, _ model.QualificationResult, _ model.SalesRep) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.leads = append(c.leads, lead.Email)
	return nil
}

func rep(id string, opts ...func(*model.SalesRep)) model.SalesRep {
	r := model.SalesRep{
		ID:          id,
		Name:        "Rep " + id,
		Email:       id + "@sells.example",
		MaxCapacity: 50,
		IsAvailable: true,
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func warmQual(score int) model.QualificationResult {
	return model.QualificationResult{
		Score:  score,
		Tier:   model.ClassifyTier(score),
		Action: model.ActionAddToNurture,
	}
}

func hotQual(score int) model.QualificationResult {
	return model.QualificationResult{
		Score:  score,
		Tier:   model.ClassifyTier(score),
		Action: model.ActionRouteToAE,
	}
}

func TestRouter_ColdLeadSkipsAssignment(t *testing.T) {
	r := New()
	r.RegisterRep(rep("a"))

	qual := model.QualificationResult{Score: 30, Tier: model.TierCold, Action: model.ActionAddToMarketing}
	got := r.Route(context.Background(), model.Lead{Email: "x@y.com"}, model.EnrichmentResult{}, qual)

	assert.Equal(t, model.ActionAddToMarketing, got.Action)
	assert.Nil(t, got.AssignedTo)
	assert.Equal(t, 0.95, got.Confidence)

	// Rep workload must be untouched.
	assert.Equal(t, 0, r.Reps()[0].CurrentLeads)
}

func TestRouter_NoCapacityFallsBackToNurture(t *testing.T) {
	r := New()
	r.RegisterRep(rep("full", func(s *model.SalesRep) {
		s.CurrentLeads = 50
	}))
	r.RegisterRep(rep("away", func(s *model.SalesRep) {
		s.IsAvailable = false
	}))

	got := r.Route(context.Background(), model.Lead{Email: "x@y.com"}, model.EnrichmentResult{}, hotQual(90))

	assert.Equal(t, model.ActionAddToNurture, got.Action)
	assert.Nil(t, got.AssignedTo)
	assert.Equal(t, 0.7, got.Confidence)
}

func TestRouter_BestMatchWins(t *testing.T) {
	r := New()
	r.RegisterRep(rep("generic"))
	r.RegisterRep(rep("specialist", func(s *model.SalesRep) {
		s.Territories = []string{"Texas"}
		s.Industries = []string{"saas"}
	}))

	enrichment := model.EnrichmentResult{
		Company: model.CompanyData{Industry: "SaaS", Location: "Austin, Texas"},
	}
	got := r.Route(context.Background(), model.Lead{Email: "x@y.com"}, enrichment, hotQual(90))

	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "specialist", got.AssignedTo.ID)
	assert.Equal(t, 1, got.AssignedTo.CurrentLeads)
	assert.NotNil(t, got.AssignedTo.LastAssigned)
	assert.Equal(t, 0.9, got.Confidence)
	assert.Contains(t, got.Reason, "Industry match")
	assert.Contains(t, got.Reason, "Territory match")

	require.NotNil(t, got.FallbackRep)
	assert.Equal(t, "generic", got.FallbackRep.ID)
}

func TestRouter_RoundRobinOnNearTies(t *testing.T) {
	r := New()
	r.RegisterRep(rep("a"))
	r.RegisterRep(rep("b"))
	r.RegisterRep(rep("c"))

	// Identical reps score identically, so one full rotation touches each
	// rep exactly once.
	seen := map[string]int{}
	for i := 0; i < 3; i++ {
		got := r.Route(context.Background(), model.Lead{Email: "x@y.com"}, model.EnrichmentResult{}, warmQual(60))
		require.NotNil(t, got.AssignedTo)
		seen[got.AssignedTo.ID]++
	}
	assert.Len(t, seen, 3, "all reps should receive assignments")
	for id, n := range seen {
		assert.Equal(t, 1, n, "rep %s", id)
	}
}

func TestRouter_CapacityBiasBreaksTies(t *testing.T) {
	r := New()
	r.RegisterRep(rep("busy", func(s *model.SalesRep) {
		s.CurrentLeads = 45
		past := time.Now().Add(-48 * time.Hour)
		s.LastAssigned = &past
	}))
	r.RegisterRep(rep("fresh", func(s *model.SalesRep) {
		past := time.Now().Add(-48 * time.Hour)
		s.LastAssigned = &past
	}))

	// busy: capacity bonus (1-0.9)*20=2; fresh: 20. Gap breaks the 85% tie band.
	got := r.Route(context.Background(), model.Lead{Email: "x@y.com"}, model.EnrichmentResult{}, warmQual(60))
	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, "fresh", got.AssignedTo.ID)
}

func TestRouter_EnterpriseRuleOverridesTierAction(t *testing.T) {
	r := New()
	r.RegisterRep(rep("a"))

	enrichment := model.EnrichmentResult{
		Company: model.CompanyData{RevenueValue: 80_000_000},
	}
	// WARM default action is nurture, but the enterprise rule needs score>=80.
	qual := model.QualificationResult{Score: 85, Tier: model.TierHot, Action: model.ActionRouteToAE}
	got := r.Route(context.Background(), model.Lead{Email: "x@y.com"}, enrichment, qual)
	assert.Equal(t, model.ActionRouteToAE, got.Action)

	small := model.EnrichmentResult{Company: model.CompanyData{RevenueValue: 1_000_000}}
	demo := model.Lead{Email: "x@y.com", Message: "we want a demo please"}
	got = r.Route(context.Background(), demo, small, warmQual(60))
	assert.Equal(t, model.ActionScheduleDemo, got.Action, "demo rule should fire for warm demo requests")
}

func TestRouter_ManualReviewNeverOverridden(t *testing.T) {
	r := New()
	r.RegisterRep(rep("a"))

	qual := model.QualificationResult{Score: 85, Tier: model.TierHot, Action: model.ActionManualReview}
	lead := model.Lead{Email: "x@y.com", Message: "demo asap"}

	got := r.Route(context.Background(), lead, model.EnrichmentResult{}, qual)
	assert.Equal(t, model.ActionManualReview, got.Action)
	assert.Nil(t, got.AssignedTo)
}

func TestRouter_SideEffectsBestEffort(t *testing.T) {
	notifier := &recordingNotifier{}
	crm := &recordingCRM{}
	r := New(WithNotifier(notifier), WithCRM(crm))
	r.RegisterRep(rep("a"))

	lead := model.Lead{Email: "buyer@corp.com"}
	got := r.Route(context.Background(), lead, model.EnrichmentResult{}, hotQual(90))

	require.NotNil(t, got.AssignedTo)
	assert.Equal(t, []string{"slack:a@sells.example", "crm:buyer@corp.com"}, got.NotificationsSent)
	assert.Equal(t, []string{"a@sells.example"}, notifier.reps)
	assert.Equal(t, []string{"buyer@corp.com"}, crm.leads)
}

func TestRouter_NotificationFailureDoesNotBlockAssignment(t *testing.T) {
	notifier := &recordingNotifier{err: eris.New("webhook down")}
	r := New(WithNotifier(notifier))
	r.RegisterRep(rep("a"))

	got := r.Route(context.Background(), model.Lead{Email: "x@y.com"}, model.EnrichmentResult{}, hotQual(90))

	require.NotNil(t, got.AssignedTo, "assignment must survive notification failure")
	assert.Empty(t, got.NotificationsSent)
}

func TestRouter_AssignmentMutatesPool(t *testing.T) {
	r := New()
	r.RegisterRep(rep("a", func(s *model.SalesRep) { s.MaxCapacity = 1 }))

	first := r.Route(context.Background(), model.Lead{Email: "x@y.com"}, model.EnrichmentResult{}, hotQual(90))
	require.NotNil(t, first.AssignedTo)

	// Capacity of one is now exhausted.
	second := r.Route(context.Background(), model.Lead{Email: "y@z.com"}, model.EnrichmentResult{}, hotQual(90))
	assert.Nil(t, second.AssignedTo)
	assert.Equal(t, model.ActionAddToNurture, second.Action)
}
