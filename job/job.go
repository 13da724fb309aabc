package job

import (
	"strings"
	"time"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/id"
)

// Status represents the lifecycle state of a job. Transitions are
// forward-only: pending → running → {done | error}.
type Status string

const (
	// StatusPending means the job is waiting for the worker to pick it up.
	StatusPending Status = "pending"
	// StatusRunning means the worker has claimed the job.
	StatusRunning Status = "running"
	// StatusDone means the plan was generated and validated.
	StatusDone Status = "done"
	// StatusError means the job failed with a classified error.
	StatusError Status = "error"
)

// Terminal reports whether the status is done or error. A terminal job
// is never mutated again.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// CanTransition reports whether moving from s to next is a legal
// forward-only transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusDone || next == StatusError
	default:
		return false
	}
}

// Stage markers within the single worker pass. Observability only; the
// worker never branches on Stage.
const (
	// StageCreated is set at creation time.
	StageCreated = 0
	// StageCalling is set once the external call starts.
	StageCalling = 1
	// StageComplete is set on validated success.
	StageComplete = 2
)

// Error codes written into JobError.Code.
const (
	ErrCodeQuotaExhausted = "QUOTA_EXHAUSTED"
	ErrCodeRequestFailed  = "REQUEST_FAILED"
	ErrCodeInvalidOutput  = "INVALID_OUTPUT"
)

// PlanMarker is the token a valid plan must start with. The generation
// service is instructed to open the plan with a markdown title.
const PlanMarker = "# "

// PlanInput holds the parameters a plan is built from. Immutable after
// creation; Spots is frozen at submission time so the worker's prompt
// build stays deterministic.
type PlanInput struct {
	Origin         string   `json:"origin"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	Interests      []string `json:"interests,omitempty"`
	ChildAgeMonths int      `json:"child_age_months,omitempty"`
	Spots          []string `json:"spots,omitempty"`
}

// PlanOutput is the generated plan. Present only when Status is done.
type PlanOutput struct {
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Valid reports whether the content passes the minimal structural
// sanity check: non-empty and opening with the plan marker.
func (o PlanOutput) Valid() bool {
	trimmed := strings.TrimSpace(o.Content)
	return trimmed != "" && strings.HasPrefix(trimmed, PlanMarker)
}

// JobError is the classified failure written on a terminal error.
type JobError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Metrics holds counters incidental to execution. Both counters are
// monotonically non-decreasing.
type Metrics struct {
	// Attempts counts successful worker completions for this job.
	Attempts int `json:"attempts"`
	// Calls counts raw external call attempts, including retried ones.
	Calls int `json:"calls"`
}

// Job is one durable record representing a single request for generated
// content and its lifecycle.
type Job struct {
	plangen.Entity

	ID      id.JobID    `json:"id"`
	Status  Status      `json:"status"`
	Stage   int         `json:"stage"`
	Input   PlanInput   `json:"input"`
	Output  *PlanOutput `json:"output,omitempty"`
	Error   *JobError   `json:"error,omitempty"`
	Metrics Metrics     `json:"metrics"`
}

// New creates a pending job for the given input with a fresh ID.
func New(input PlanInput) *Job {
	return &Job{
		Entity: plangen.NewEntity(),
		ID:     id.NewJobID(),
		Status: StatusPending,
		Stage:  StageCreated,
		Input:  input,
	}
}

// Terminal reports whether the job reached done or error.
func (j *Job) Terminal() bool { return j.Status.Terminal() }
