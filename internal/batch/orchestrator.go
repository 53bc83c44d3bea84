package batch

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// QualifyFunc runs the full qualification pipeline for one lead.
type QualifyFunc func(ctx context.Context, lead model.Lead) (model.QualifiedLead, error)

// Orchestrator drives batch jobs against the qualification pipeline.
type Orchestrator struct {
	qualify QualifyFunc
	store   *Store
}

// NewOrchestrator creates an orchestrator using the given pipeline function.
func NewOrchestrator(qualify QualifyFunc, store *Store) *Orchestrator {
	return &Orchestrator{qualify: qualify, store: store}
}

// Start creates a job for the leads and runs it in the background. The
// returned job can be polled immediately.
func (o *Orchestrator) Start(ctx context.Context, leads []model.Lead, concurrency int) *Job {
	job := NewJob(len(leads), concurrency)
	o.store.Put(job)

	go o.Run(ctx, job, leads)

	zap.L().Info("batch job created",
		zap.String("job_id", job.ID),
		zap.Int("total_leads", len(leads)),
		zap.Int("concurrency", job.Concurrency),
	)
	return job
}

// Run processes all leads with bounded concurrency. Per-lead failures are
// recorded on the job and never stop the batch; only orchestration-level
// errors fail the whole job. Cancellation is cooperative: no new leads are
// launched, in-flight leads finish.
func (o *Orchestrator) Run(ctx context.Context, job *Job, leads []model.Lead) {
	if err := job.transition(StatusProcessing); err != nil {
		zap.L().Warn("batch job not runnable", zap.String("job_id", job.ID), zap.Error(err))
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(job.Concurrency)

	for i, lead := range leads {
		if job.Cancelled() || gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			o.processLead(gctx, job, i, lead)
			return nil
		})
	}
	err := g.Wait()

	switch {
	case job.Cancelled():
		job.finalize(StatusCancelled)
	case err != nil || ctx.Err() != nil:
		job.finalize(StatusFailed)
	default:
		job.finalize(StatusCompleted)
	}

	snap := job.Snapshot()
	zap.L().Info("batch job finished",
		zap.String("job_id", job.ID),
		zap.String("status", string(snap.Status)),
		zap.Int("succeeded", snap.Succeeded),
		zap.Int("failed", snap.Failed),
		zap.Float64("leads_per_second", snap.LeadsPerSecond),
	)
}

// processLead qualifies one lead with panic isolation: a panicking pipeline
// stage fails that lead, not the batch.
func (o *Orchestrator) processLead(ctx context.Context, job *Job, index int, lead model.Lead) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("panic while qualifying lead",
				zap.String("job_id", job.ID),
				zap.String("email", lead.Email),
				zap.Any("panic", r),
			)
			job.recordFailure(lead.Email, fmt.Errorf("panic: %v", r))
		}
	}()

	result, err := o.qualify(ctx, lead)
	if err != nil {
		zap.L().Warn("lead qualification failed",
			zap.String("job_id", job.ID),
			zap.String("email", lead.Email),
			zap.Error(err),
		)
		job.recordFailure(lead.Email, err)
		return
	}
	job.recordSuccess(index, result)
}

// Summary aggregates a job's results for reporting.
type Summary struct {
	Snapshot
	TierBreakdown map[model.Tier]int `json:"tier_breakdown"`
	AvgScore      float64            `json:"avg_score"`
}

// Summarize computes the tier breakdown and average score for a job.
func Summarize(job *Job) Summary {
	snap := job.Snapshot()

	breakdown := make(map[model.Tier]int)
	total := 0
	for _, r := range snap.Results {
		breakdown[r.Lead.Qualification.Tier]++
		total += r.Lead.Qualification.Score
	}

	avg := 0.0
	if len(snap.Results) > 0 {
		avg = math.Round(float64(total)/float64(len(snap.Results))*10) / 10
	}

	// Summary payloads stay small; full results come from the results endpoint.
	snap.Results = nil
	snap.Errors = nil

	return Summary{
		Snapshot:      snap,
		TierBreakdown: breakdown,
		AvgScore:      avg,
	}
}
