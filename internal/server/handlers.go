package server

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/batch"
	"github.com/sells-group/lead-qualifier/internal/model"
)

const maxBatchBody = 10 << 20 // 10 MiB

func (s *Server) handleQualify(w http.ResponseWriter, r *http.Request) {
	var lead model.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return
	}

	result, err := s.qualifier.Qualify(r.Context(), lead)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, "invalid_lead", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// batchRequest is the JSON form of a batch submission.
type batchRequest struct {
	Leads       []model.Lead `json:"leads"`
	Concurrency int          `json:"concurrency"`
}

// handleBatchCreate accepts either a JSON lead list or a CSV upload
// (multipart file field "file", or a raw text/csv body).
func (s *Server) handleBatchCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBody)

	leads, concurrency, ok := s.parseBatchSubmission(w, r)
	if !ok {
		return
	}
	if len(leads) == 0 {
		respondError(w, r, http.StatusBadRequest, "empty_batch", "no leads to process")
		return
	}

	job := s.orchestrator.Start(s.baseCtx, leads, concurrency)
	respondJSON(w, http.StatusAccepted, job.Snapshot())
}

func (s *Server) parseBatchSubmission(w http.ResponseWriter, r *http.Request) ([]model.Lead, int, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch {
	case mediaType == "multipart/form-data":
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "missing_file", "multipart uploads need a \"file\" field")
			return nil, 0, false
		}
		defer file.Close()

		leads, err := batch.ParseCSV(file)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_csv", err.Error())
			return nil, 0, false
		}
		return leads, 0, true

	case mediaType == "text/csv":
		leads, err := batch.ParseCSV(r.Body)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_csv", err.Error())
			return nil, 0, false
		}
		return leads, 0, true

	default:
		var req batchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, r, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
			return nil, 0, false
		}
		return req.Leads, req.Concurrency, true
	}
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, batch.Summarize(job))
}

func (s *Server) handleBatchList(w http.ResponseWriter, r *http.Request) {
	snaps := s.jobs.List()
	// Listing stays lightweight; per-lead payloads come from /results.
	for i := range snaps {
		snaps[i].Results = nil
		snaps[i].Errors = nil
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": snaps})
}

func (s *Server) handleBatchResults(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	snap := job.Snapshot()

	results := snap.Results
	if tier := strings.TrimSpace(r.URL.Query().Get("tier")); tier != "" {
		filtered := make([]batch.LeadResult, 0, len(results))
		for _, res := range results {
			if strings.EqualFold(string(res.Lead.Qualification.Tier), tier) {
				filtered = append(filtered, res)
			}
		}
		results = filtered
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"job_id":  snap.ID,
		"status":  snap.Status,
		"results": results,
		"errors":  snap.Errors,
	})
}

// handleBatchStream pushes job progress as server-sent events until the job
// reaches a terminal state or the client disconnects.
func (s *Server) handleBatchStream(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		respondError(w, r, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range batch.Subscribe(r.Context(), job, s.streamInterval) {
		payload, err := json.Marshal(event)
		if err != nil {
			zap.L().Error("marshal progress event", zap.Error(err))
			return
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleBatchDelete(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}

	cancelled := job.Cancel()
	s.jobs.Delete(job.ID)
	respondJSON(w, http.StatusOK, map[string]any{
		"job_id":    job.ID,
		"cancelled": cancelled,
		"deleted":   true,
	})
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (*batch.Job, bool) {
	id := chi.URLParam(r, "jobID")
	job, ok := s.jobs.Get(id)
	if !ok {
		respondError(w, r, http.StatusNotFound, "job_not_found", "no batch job with id "+id)
		return nil, false
	}
	return job, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// handleReady reports dependency health. A degraded cache does not fail
// readiness because the pipeline runs without it.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]any{}
	status := "ready"

	if s.cache != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		latency, err := s.cache.HealthCheck(ctx)
		cancel()
		if err != nil {
			checks["cache"] = map[string]any{"status": "degraded", "error": err.Error()}
		} else {
			checks["cache"] = map[string]any{"status": "ok", "latency_ms": latency.Milliseconds()}
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": status,
		"checks": checks,
	})
}
