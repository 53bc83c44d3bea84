// Package batch runs retroactive qualification over uploaded lead lists
// with bounded concurrency, per-lead error isolation, and live progress
// tracking.
package batch

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-qualifier/internal/model"
)

// JobStatus is the lifecycle state of a batch job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusCancelled  JobStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// LeadResult is one successful qualification tagged with its input index so
// batch output order matches submission order.
type LeadResult struct {
	Index int                 `json:"index"`
	Lead  model.QualifiedLead `json:"result"`
}

// LeadError records one failed lead without failing the job.
type LeadError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// Job tracks one batch run. All mutation goes through methods holding the
// internal mutex; reads by handlers use Snapshot.
type Job struct {
	mu sync.Mutex

	ID          string
	Status      JobStatus
	TotalLeads  int
	Processed   int
	Succeeded   int
	Failed      int
	Results     []LeadResult
	Errors      []LeadError
	CreatedAt   time.Time
	CompletedAt *time.Time
	Concurrency int

	nowFunc func() time.Time
}

// NewJob creates a pending job for the given lead count.
func NewJob(totalLeads, concurrency int) *Job {
	if concurrency <= 0 {
		concurrency = 5
	}
	if concurrency > 20 {
		concurrency = 20
	}
	j := &Job{
		ID:          uuid.NewString(),
		Status:      StatusPending,
		TotalLeads:  totalLeads,
		Concurrency: concurrency,
		nowFunc:     time.Now,
	}
	j.CreatedAt = j.nowFunc().UTC()
	return j
}

// Snapshot is an immutable copy of job state for reporting.
type Snapshot struct {
	ID             string       `json:"job_id"`
	Status         JobStatus    `json:"status"`
	TotalLeads     int          `json:"total_leads"`
	Processed      int          `json:"processed"`
	Succeeded      int          `json:"succeeded"`
	Failed         int          `json:"failed"`
	Progress       float64      `json:"progress"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	LeadsPerSecond float64      `json:"leads_per_second"`
	Results        []LeadResult `json:"results,omitempty"`
	Errors         []LeadError  `json:"errors,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
}

// Snapshot returns a consistent copy of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Snapshot{
		ID:          j.ID,
		Status:      j.Status,
		TotalLeads:  j.TotalLeads,
		Processed:   j.Processed,
		Succeeded:   j.Succeeded,
		Failed:      j.Failed,
		Progress:    j.progressLocked(),
		Results:     append([]LeadResult{}, j.Results...),
		Errors:      append([]LeadError{}, j.Errors...),
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
	}
	s.ElapsedSeconds = j.elapsedLocked()
	if s.ElapsedSeconds > 0 {
		s.LeadsPerSecond = math.Round(float64(j.Processed)/s.ElapsedSeconds*100) / 100
	}
	return s
}

func (j *Job) progressLocked() float64 {
	if j.TotalLeads == 0 {
		return 0
	}
	return math.Round(float64(j.Processed)/float64(j.TotalLeads)*1000) / 10
}

func (j *Job) elapsedLocked() float64 {
	end := j.nowFunc().UTC()
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(j.CreatedAt).Seconds()
}

// transition enforces the legal job lifecycle: pending→processing, and
// processing→terminal. Terminal states never change.
func (j *Job) transition(to JobStatus) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.transitionLocked(to)
}

func (j *Job) transitionLocked(to JobStatus) error {
	if j.Status.Terminal() {
		return eris.Errorf("batch: job %s is %s, cannot transition to %s", j.ID, j.Status, to)
	}
	switch {
	case j.Status == StatusPending && to == StatusProcessing:
	case j.Status == StatusProcessing && to.Terminal():
	case j.Status == StatusPending && to == StatusCancelled:
	default:
		return eris.Errorf("batch: illegal transition %s -> %s", j.Status, to)
	}

	j.Status = to
	if to.Terminal() {
		now := j.nowFunc().UTC()
		j.CompletedAt = &now
	}
	return nil
}

// Cancel requests cooperative cancellation. Returns false if the job had
// already reached a terminal state.
func (j *Job) Cancel() bool {
	return j.transition(StatusCancelled) == nil
}

// Cancelled reports whether the job was cancelled.
func (j *Job) Cancelled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status == StatusCancelled
}

func (j *Job) recordSuccess(index int, result model.QualifiedLead) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Succeeded++
	j.Processed++
	j.Results = append(j.Results, LeadResult{Index: index, Lead: result})
}

func (j *Job) recordFailure(email string, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Failed++
	j.Processed++
	j.Errors = append(j.Errors, LeadError{Email: email, Error: err.Error()})
}

// finalize sorts results back into submission order and moves the job to a
// terminal state if it is not already in one.
func (j *Job) finalize(to JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()

	sort.Slice(j.Results, func(a, b int) bool {
		return j.Results[a].Index < j.Results[b].Index
	})
	if !j.Status.Terminal() {
		_ = j.transitionLocked(to)
	} else if j.CompletedAt == nil {
		now := j.nowFunc().UTC()
		j.CompletedAt = &now
	}
}

// processedCount is used by the progress poller.
func (j *Job) processedCount() (int, JobStatus) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Processed, j.Status
}
