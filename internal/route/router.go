// Package route assigns qualified leads to sales reps based on territory,
// industry expertise, current workload, and assignment recency, with
// round-robin among closely matched candidates.
package route

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// Notifier announces an assignment to the sales team. Best-effort: failures
// are logged, never surfaced to the caller.
type Notifier interface {
	NotifyAssignment(ctx context.Context, lead model.Lead, qual model.QualificationResult, rep model.SalesRep, action model.RoutingAction) error
}

// CRMSyncer records the routing decision in the CRM. Best-effort.
type CRMSyncer interface {
	SyncAssignment(ctx context.Context, lead model.Lead, qual model.QualificationResult, rep model.SalesRep) error
}

// Router is the lead routing engine. Safe for concurrent use; rep workload
// counters and the round-robin cursor live behind one mutex.
type Router struct {
	mu      sync.Mutex
	reps    []*model.SalesRep
	rules   []Rule
	rrIndex int

	notifier Notifier
	crm      CRMSyncer

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithNotifier sets the assignment notifier.
func WithNotifier(n Notifier) Option {
	return func(r *Router) { r.notifier = n }
}

// WithCRM sets the CRM syncer.
func WithCRM(c CRMSyncer) Option {
	return func(r *Router) { r.crm = c }
}

// WithRules replaces the default rule set.
func WithRules(rules []Rule) Option {
	return func(r *Router) { r.rules = rules }
}

// New creates a router with the default rules.
func New(opts ...Option) *Router {
	r := &Router{
		rules:   DefaultRules(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	sort.SliceStable(r.rules, func(i, j int) bool {
		return r.rules[i].Priority < r.rules[j].Priority
	})
	return r
}

// RegisterRep adds a rep to the assignment pool.
func (r *Router) RegisterRep(rep model.SalesRep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reps = append(r.reps, &rep)
	zap.L().Info("registered rep",
		zap.String("name", rep.Name),
		zap.String("email", rep.Email),
	)
}

// Reps returns a snapshot of the rep pool.
func (r *Router) Reps() []model.SalesRep {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.SalesRep, len(r.reps))
	for i, rep := range r.reps {
		out[i] = *rep
	}
	return out
}

// Route decides what happens to a qualified lead. Leads below WARM never
// consume rep capacity; everything else gets the best-matching available
// rep, with notifications and CRM sync fired best-effort on assignment.
func (r *Router) Route(ctx context.Context, lead model.Lead, enrichment model.EnrichmentResult, qual model.QualificationResult) model.RoutingResult {
	action := r.resolveAction(lead, enrichment, qual)

	switch action {
	case model.ActionAddToMarketing:
		return model.RoutingResult{
			Action:     action,
			Reason:     fmt.Sprintf("Score %d/100 - added to marketing nurture", qual.Score),
			Confidence: 0.95,
		}
	case model.ActionArchive:
		return model.RoutingResult{
			Action:     action,
			Reason:     fmt.Sprintf("Score %d/100 - below qualification threshold", qual.Score),
			Confidence: 0.95,
		}
	case model.ActionManualReview:
		return model.RoutingResult{
			Action:     action,
			Reason:     "Low enrichment confidence on an otherwise promising lead",
			Confidence: 0.6,
		}
	}

	rep, fallback := r.assign(enrichment)
	if rep == nil {
		zap.L().Warn("no available reps, routing to nurture queue",
			zap.String("email", lead.Email),
		)
		return model.RoutingResult{
			Action:     model.ActionAddToNurture,
			Reason:     "No available reps with capacity",
			Confidence: 0.7,
		}
	}

	notifications := r.sideEffects(ctx, lead, qual, *rep, action)

	confidence := 0.8
	if qual.Tier == model.TierHot {
		confidence = 0.9
	}

	return model.RoutingResult{
		Action:            action,
		AssignedTo:        rep,
		FallbackRep:       fallback,
		Reason:            buildReason(enrichment, *rep, qual),
		Confidence:        confidence,
		NotificationsSent: notifications,
	}
}

// resolveAction applies the rule set on top of the tier-default action.
// A manual-review verdict is never overridden by rules.
func (r *Router) resolveAction(lead model.Lead, enrichment model.EnrichmentResult, qual model.QualificationResult) model.RoutingAction {
	if qual.Action == model.ActionManualReview {
		return qual.Action
	}
	for _, rule := range r.rules {
		if rule.Condition != nil && rule.Condition(lead, enrichment, qual) {
			zap.L().Debug("routing rule matched",
				zap.String("rule", rule.Name),
				zap.String("email", lead.Email),
			)
			return rule.Action
		}
	}
	return qual.Action
}

// assign picks the best available rep and bumps its workload. Returns copies
// so callers never hold references into the live pool.
func (r *Router) assign(enrichment model.EnrichmentResult) (*model.SalesRep, *model.SalesRep) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var available []*model.SalesRep
	for _, rep := range r.reps {
		if rep.HasCapacity() {
			available = append(available, rep)
		}
	}
	if len(available) == 0 {
		return nil, nil
	}

	type scored struct {
		rep   *model.SalesRep
		score float64
	}
	ranked := make([]scored, len(available))
	for i, rep := range available {
		ranked[i] = scored{rep: rep, score: r.scoreRepMatch(*rep, enrichment)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	// Near-ties rotate round-robin so equally good reps share the load.
	top := ranked[0].score
	var candidates []*model.SalesRep
	for _, s := range ranked {
		if s.score >= top*0.85 {
			candidates = append(candidates, s.rep)
		}
	}

	chosen := candidates[0]
	if len(candidates) > 1 {
		chosen = candidates[r.rrIndex%len(candidates)]
		r.rrIndex++
	}

	chosen.CurrentLeads++
	now := r.nowFunc().UTC()
	chosen.LastAssigned = &now

	assigned := *chosen
	var fallback *model.SalesRep
	if fb := r.fallbackRep(chosen); fb != nil {
		copied := *fb
		fallback = &copied
	}
	return &assigned, fallback
}

// scoreRepMatch rates a rep for a lead: territory 30, industry 30, spare
// capacity up to 20, time since last assignment up to 20.
func (r *Router) scoreRepMatch(rep model.SalesRep, enrichment model.EnrichmentResult) float64 {
	var score float64

	location := strings.ToLower(enrichment.Company.Location + " " + enrichment.Company.Country)
	for _, t := range rep.Territories {
		if t != "" && strings.Contains(location, strings.ToLower(t)) {
			score += 30
			break
		}
	}

	industry := strings.ToLower(enrichment.Company.Industry)
	for _, i := range rep.Industries {
		if i != "" && strings.Contains(industry, strings.ToLower(i)) {
			score += 30
			break
		}
	}

	score += (1 - rep.CapacityRatio()) * 20

	if rep.LastAssigned == nil {
		score += 20
	} else {
		hoursSince := r.nowFunc().Sub(*rep.LastAssigned).Hours()
		frac := hoursSince / 24
		if frac > 1 {
			frac = 1
		}
		if frac < 0 {
			frac = 0
		}
		score += frac * 20
	}

	return score
}

// fallbackRep is the least-loaded rep besides the chosen one. Caller holds
// the lock.
func (r *Router) fallbackRep(exclude *model.SalesRep) *model.SalesRep {
	var best *model.SalesRep
	for _, rep := range r.reps {
		if rep == exclude || !rep.HasCapacity() {
			continue
		}
		if best == nil || rep.CapacityRatio() < best.CapacityRatio() {
			best = rep
		}
	}
	return best
}

// sideEffects fires notifications and CRM sync. Failures degrade to logs.
func (r *Router) sideEffects(ctx context.Context, lead model.Lead, qual model.QualificationResult, rep model.SalesRep, action model.RoutingAction) []string {
	var notifications []string

	if r.notifier != nil {
		if err := r.notifier.NotifyAssignment(ctx, lead, qual, rep, action); err != nil {
			zap.L().Error("assignment notification failed",
				zap.String("rep", rep.Email),
				zap.Error(err),
			)
		} else {
			notifications = append(notifications, "slack:"+rep.Email)
		}
	}

	if r.crm != nil {
		if err := r.crm.SyncAssignment(ctx, lead, qual, rep); err != nil {
			zap.L().Error("crm sync failed",
				zap.String("email", lead.Email),
				zap.Error(err),
			)
		} else {
			notifications = append(notifications, "crm:"+lead.Email)
		}
	}

	return notifications
}

func buildReason(enrichment model.EnrichmentResult, rep model.SalesRep, qual model.QualificationResult) string {
	parts := []string{fmt.Sprintf("Score: %d/100", qual.Score)}

	industry := strings.ToLower(enrichment.Company.Industry)
	for _, i := range rep.Industries {
		if i != "" && strings.Contains(industry, strings.ToLower(i)) {
			parts = append(parts, fmt.Sprintf("Industry match (%s)", industry))
			break
		}
	}

	location := strings.ToLower(enrichment.Company.Location + " " + enrichment.Company.Country)
	for _, t := range rep.Territories {
		if t != "" && strings.Contains(location, strings.ToLower(t)) {
			parts = append(parts, fmt.Sprintf("Territory match (%s)", strings.TrimSpace(location)))
			break
		}
	}

	parts = append(parts, fmt.Sprintf("Rep capacity: %d/%d", rep.CurrentLeads, rep.MaxCapacity))
	return strings.Join(parts, " | ")
}
