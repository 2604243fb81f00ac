package core

import "time"

// Status is a job's lifecycle state. Transitions are monotonic:
// pending -> running -> {completed, failed}. Nothing ever re-enters pending
// or moves between the terminal states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is one of the two end states.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Error kinds recorded on failed jobs.
const (
	KindTimeout          = "TimeoutError"
	KindExecutionFailure = "ExecutionFailure"
)

// Request is the submitted payload of a job. It is set at creation and never
// mutated afterwards.
type Request struct {
	URL         string            `json:"url"`
	Script      string            `json:"script"`
	Extractions map[string]string `json:"extractions,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
	GetHTML     bool              `json:"get_html,omitempty"`
}

// Result is the structured output of a completed scrape.
type Result map[string]interface{}

// JobError describes why a job failed.
type JobError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e *JobError) Error() string {
	return e.Kind + ": " + e.Message
}

// Job is one unit of asynchronous work and its lifecycle record.
type Job struct {
	ID          string     `json:"id"`
	Request     Request    `json:"request"`
	Status      Status     `json:"status"`
	Result      Result     `json:"result,omitempty"`
	Err         *JobError  `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
