package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"scrapeq/internal/core"
)

// Handlers is the thin status surface over the queue core. It only ever
// reads the store; all mutation happens in the admission gate and the
// workers.
type Handlers struct {
	Gate  *core.Gate
	Store *core.Store
}

// Router mounts the service routes.
func (h *Handlers) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/scrape/start", h.StartScrape)
	r.Get("/scrape/job", h.GetJob)
	r.Get("/health", h.Health)
	return r
}

// StartScrape accepts a job and returns its id immediately; the scrape runs
// asynchronously and is observed by polling.
func (h *Handlers) StartScrape(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Detail: "malformed json: " + err.Error()})
		return
	}

	job, err := h.Gate.Submit(core.Request{
		URL:         req.URL,
		Script:      req.Script,
		Extractions: req.Extractions,
		Variables:   req.Variables,
		GetHTML:     req.GetHTML,
	})
	if err != nil {
		var verr *core.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Detail: verr.Detail})
		case errors.Is(err, core.ErrQueueFull):
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "queue_full"})
		default:
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal_error"})
		}
		return
	}

	writeJSON(w, http.StatusAccepted, StartResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	})
}

// GetJob returns the current job record. A reaped id is indistinguishable
// from one that never existed; both answer not_found.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("job_id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Detail: "job_id parameter is required"})
		return
	}

	job, ok := h.Store.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found"})
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

// Health reports process liveness only, independent of queue or job state.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "scrapeq",
		"time":    time.Now().Format(time.RFC3339),
	})
}

func toJobResponse(job core.Job) JobResponse {
	resp := JobResponse{
		ID:        job.ID,
		Status:    string(job.Status),
		Result:    job.Result,
		Error:     job.Err,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
	}
	if job.StartedAt != nil {
		s := job.StartedAt.Format(time.RFC3339)
		resp.StartedAt = &s
	}
	if job.CompletedAt != nil {
		s := job.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
