// Package worker provides the job execution engine — an Executor that
// runs a single plan-generation pass through middleware, and a Trigger
// that consumes creation events and dispatches them concurrently.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	plangen "github.com/vapodego/aibabyapp-project-sub001"
	"github.com/vapodego/aibabyapp-project-sub001/genai"
	"github.com/vapodego/aibabyapp-project-sub001/id"
	"github.com/vapodego/aibabyapp-project-sub001/job"
	"github.com/vapodego/aibabyapp-project-sub001/middleware"
	"github.com/vapodego/aibabyapp-project-sub001/notify"
)

// ErrInvalidOutput marks generated content that failed validation.
var ErrInvalidOutput = errors.New("worker: generated output failed validation")

// Generator produces plan content for a request and reports how many
// raw external calls the production took. *genai.Caller satisfies it.
type Generator interface {
	Generate(ctx context.Context, req genai.Request) (content string, calls int, err error)
}

// Executor runs one plan-generation pass for a claimed job: it invokes
// the generator through middleware, validates the output, and writes
// exactly one terminal state.
type Executor struct {
	store  job.Store
	gen    Generator
	sender notify.Sender
	mw     middleware.Middleware
	logger *slog.Logger

	model     string
	maxTokens int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithModel sets the generation model name.
func WithModel(model string) ExecutorOption {
	return func(e *Executor) { e.model = model }
}

// WithMaxTokens caps the generation response size.
func WithMaxTokens(n int) ExecutorOption {
	return func(e *Executor) { e.maxTokens = n }
}

// WithSender sets the completion notification sender.
func WithSender(sender notify.Sender) ExecutorOption {
	return func(e *Executor) { e.sender = sender }
}

// NewExecutor creates an Executor with the given dependencies.
func NewExecutor(
	store job.Store,
	gen Generator,
	logger *slog.Logger,
	mws []middleware.Middleware,
	opts ...ExecutorOption,
) *Executor {
	e := &Executor{
		store:     store,
		gen:       gen,
		sender:    notify.Noop{},
		mw:        middleware.Chain(mws...),
		logger:    logger,
		model:     "gemini-1.5-flash",
		maxTokens: 4096,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one pass for the job. The claim moves the job from
// pending to running; a job that is not pending anymore was taken by
// another pass and the duplicate delivery is dropped.
func (e *Executor) Execute(ctx context.Context, jobID id.JobID) error {
	claimed, err := e.store.ClaimJob(ctx, jobID)
	if err != nil {
		switch {
		case errors.Is(err, plangen.ErrJobNotFound):
			e.logger.Error("dispatched job does not exist",
				slog.String("job_id", jobID.String()),
			)
		case errors.Is(err, plangen.ErrJobNotClaimable):
			e.logger.Warn("job already claimed, dropping duplicate dispatch",
				slog.String("job_id", jobID.String()),
			)
			return nil
		}
		return err
	}

	var (
		output *job.PlanOutput
		calls  int
	)

	terminal := func(ctx context.Context) error {
		content, n, genErr := e.gen.Generate(ctx, BuildRequest(e.model, e.maxTokens, claimed.Input))
		calls = n
		if genErr != nil {
			return genErr
		}
		out := &job.PlanOutput{Content: content, GeneratedAt: time.Now().UTC()}
		if !out.Valid() {
			return ErrInvalidOutput
		}
		output = out
		return nil
	}

	if passErr := e.mw(ctx, claimed, terminal); passErr != nil {
		return e.writeFailure(ctx, claimed, passErr, calls)
	}
	return e.writeSuccess(ctx, claimed, output, calls)
}

// writeSuccess records the finished plan. Exactly one logical attempt
// succeeded, however many raw calls it took.
func (e *Executor) writeSuccess(ctx context.Context, j *job.Job, output *job.PlanOutput, calls int) error {
	upd := job.Update{
		Status:        job.StatusPtr(job.StatusDone),
		Stage:         job.StagePtr(job.StageComplete),
		Output:        output,
		AttemptsDelta: 1,
		CallsDelta:    calls,
	}
	if updateErr := e.store.UpdateJob(ctx, j.ID, upd); updateErr != nil {
		e.logger.Error("failed to update job after success",
			slog.String("job_id", j.ID.String()),
			slog.String("error", updateErr.Error()),
		)
		return updateErr
	}

	e.notifyFinished(ctx, j.ID, true)
	return nil
}

// writeFailure records a terminal error for the pass. When the pass
// context itself is dead the job is left non-terminal for the liveness
// sweeper to report.
func (e *Executor) writeFailure(ctx context.Context, j *job.Job, passErr error, calls int) error {
	if ctx.Err() != nil {
		e.logger.Warn("execution budget exhausted, leaving job non-terminal",
			slog.String("job_id", j.ID.String()),
			slog.String("error", passErr.Error()),
		)
		return passErr
	}

	upd := job.Update{
		Status: job.StatusPtr(job.StatusError),
		Error: &job.JobError{
			Code:    failureCode(passErr),
			Message: passErr.Error(),
			At:      time.Now().UTC(),
		},
		CallsDelta: calls,
	}
	if updateErr := e.store.UpdateJob(ctx, j.ID, upd); updateErr != nil {
		e.logger.Error("failed to update job after failure",
			slog.String("job_id", j.ID.String()),
			slog.String("error", updateErr.Error()),
		)
		return updateErr
	}

	e.notifyFinished(ctx, j.ID, false)
	return passErr
}

// failureCode maps a pass error to the stored error code.
func failureCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidOutput):
		return job.ErrCodeInvalidOutput
	case genai.KindOf(err) == genai.KindQuotaExhausted:
		return job.ErrCodeQuotaExhausted
	default:
		return job.ErrCodeRequestFailed
	}
}

// notifyFinished sends the completion notification. Failures are
// logged and never affect the job's terminal state.
func (e *Executor) notifyFinished(ctx context.Context, jobID id.JobID, success bool) {
	if err := e.sender.JobFinished(ctx, jobID, success); err != nil {
		e.logger.Warn("completion notification failed",
			slog.String("job_id", jobID.String()),
			slog.String("error", err.Error()),
		)
	}
}

// BuildRequest renders the generation prompt for a plan input. The
// prompt is deterministic for a given input.
func BuildRequest(model string, maxTokens int, in job.PlanInput) genai.Request {
	var b strings.Builder
	b.WriteString("You are an outing planner for parents with a small child.\n")
	fmt.Fprintf(&b, "Create a day-by-day outing plan starting from %s.\n", in.Origin)
	if in.StartDate != "" && in.EndDate != "" {
		fmt.Fprintf(&b, "The plan covers %s through %s.\n", in.StartDate, in.EndDate)
	}
	if in.ChildAgeMonths > 0 {
		fmt.Fprintf(&b, "The child is %d months old.\n", in.ChildAgeMonths)
	}
	if len(in.Interests) > 0 {
		fmt.Fprintf(&b, "The family is interested in: %s.\n", strings.Join(in.Interests, ", "))
	}
	if len(in.Spots) > 0 {
		fmt.Fprintf(&b, "Build the plan around these spots: %s.\n", strings.Join(in.Spots, ", "))
	}
	b.WriteString("Respond in markdown and open with a title line starting with \"# \".")

	return genai.Request{Model: model, Prompt: b.String(), MaxTokens: maxTokens}
}
