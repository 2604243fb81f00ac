package api

import "scrapeq/internal/core"

// StartRequest is the submission payload for POST /scrape/start.
type StartRequest struct {
	URL         string            `json:"url"`
	Script      string            `json:"script"`
	Extractions map[string]string `json:"extractions,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
	GetHTML     bool              `json:"get_html,omitempty"`
}

// StartResponse acknowledges an accepted job.
type StartResponse struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// JobResponse is the full current record returned by GET /scrape/job.
// Unset optional fields encode as null rather than being omitted.
type JobResponse struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Result      core.Result    `json:"result"`
	Error       *core.JobError `json:"error"`
	CreatedAt   string         `json:"created_at"`
	StartedAt   *string        `json:"started_at"`
	CompletedAt *string        `json:"completed_at"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}
