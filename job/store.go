package job

import (
	"context"
	"time"

	"github.com/vapodego/aibabyapp-project-sub001/id"
)

// Update describes a partial merge-update. Nil fields are left
// untouched; the store stamps UpdatedAt on every applied update and
// applies all listed fields atomically.
type Update struct {
	Status *Status
	Stage  *int
	Output *PlanOutput
	Error  *JobError

	// AttemptsDelta and CallsDelta are added to the job's counters.
	AttemptsDelta int
	CallsDelta    int
}

// StatusPtr is a convenience for building an Update literal.
func StatusPtr(s Status) *Status { return &s }

// StagePtr is a convenience for building an Update literal.
func StagePtr(n int) *int { return &n }

// Store defines the persistence contract for jobs. One document per
// job, keyed by ID.
type Store interface {
	// CreateJob persists a new job in pending state.
	// Returns plangen.ErrJobAlreadyExists on an ID collision.
	CreateJob(ctx context.Context, j *Job) error

	// GetJob retrieves a job by ID.
	// Returns plangen.ErrJobNotFound when the ID is unknown.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// UpdateJob merges the given fields into the existing record and
	// stamps UpdatedAt. Returns plangen.ErrJobNotFound for an unknown
	// ID and plangen.ErrJobTerminal when the record already reached a
	// terminal state.
	UpdateJob(ctx context.Context, jobID id.JobID, upd Update) error

	// ClaimJob conditionally transitions the job from pending to
	// running (stage 1). Returns plangen.ErrJobNotClaimable when the
	// job is no longer pending, guaranteeing at-most-one worker pass
	// per job even under duplicate trigger delivery.
	ClaimJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// ListStalled returns non-terminal jobs whose last write is older
	// than the given threshold. Used by the liveness sweeper.
	ListStalled(ctx context.Context, olderThan time.Duration) ([]*Job, error)
}
