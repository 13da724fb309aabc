package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vapodego/aibabyapp-project-sub001/job"
)

// Logging returns middleware that logs the start and outcome of each
// worker pass.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		logger.Info("job processing started",
			slog.String("job_id", j.ID.String()),
			slog.String("origin", j.Input.Origin),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("job processing failed",
				slog.String("job_id", j.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("job processing completed",
				slog.String("job_id", j.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
