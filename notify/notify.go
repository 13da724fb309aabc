// Package notify abstracts the push-notification sender that tells the
// client a plan finished. The sender is a black-box collaborator:
// failures are logged by the worker and never affect the job's terminal
// state.
package notify

import (
	"context"
	"log/slog"

	"github.com/vapodego/aibabyapp-project-sub001/id"
)

// Sender delivers a completion notification for a job.
type Sender interface {
	// JobFinished announces that the job reached a terminal state.
	JobFinished(ctx context.Context, jobID id.JobID, success bool) error
}

// LogSender logs notifications instead of delivering them. Used in
// development and as the default when no push backend is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// JobFinished logs the notification.
func (s *LogSender) JobFinished(_ context.Context, jobID id.JobID, success bool) error {
	s.logger.Info("job finished notification",
		slog.String("job_id", jobID.String()),
		slog.Bool("success", success),
	)
	return nil
}

// Noop is a Sender that does nothing.
type Noop struct{}

// JobFinished is a no-op.
func (Noop) JobFinished(context.Context, id.JobID, bool) error { return nil }
