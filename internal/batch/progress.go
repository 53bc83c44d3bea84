package batch

import (
	"context"
	"time"
)

// ProgressEvent is one progress update for a streaming subscriber.
type ProgressEvent struct {
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Progress  float64   `json:"progress"`
	Status    JobStatus `json:"status"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Done      bool      `json:"done,omitempty"`
}

// Subscribe polls a job and emits an event whenever the processed count
// changes, plus a final done event at the terminal state. The channel
// closes when the job finishes or ctx is cancelled.
func Subscribe(ctx context.Context, job *Job, interval time.Duration) <-chan ProgressEvent {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ch := make(chan ProgressEvent, 1)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		lastProcessed := -1
		for {
			processed, status := job.processedCount()
			if processed != lastProcessed {
				lastProcessed = processed
				select {
				case ch <- eventFrom(job.Snapshot()):
				case <-ctx.Done():
					return
				}
			}

			if status.Terminal() {
				select {
				case ch <- ProgressEvent{Status: status, Done: true}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return ch
}

func eventFrom(s Snapshot) ProgressEvent {
	return ProgressEvent{
		Processed: s.Processed,
		Total:     s.TotalLeads,
		Progress:  s.Progress,
		Status:    s.Status,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
	}
}
