package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vapodego/aibabyapp-project-sub001/job"
)

// Timeout returns middleware that enforces the execution budget on the
// pass. When the budget elapses the context is cancelled; the job is
// then left non-terminal and surfaces through the liveness sweep. A
// zero budget disables the deadline.
func Timeout(budget time.Duration, logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		if budget > 0 {
			logger.Debug("execution budget set",
				slog.String("job_id", j.ID.String()),
				slog.Duration("budget", budget),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, budget)
			defer cancel()
		}
		return next(ctx)
	}
}
