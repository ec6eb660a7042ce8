package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/evercron/evercron/execution"
)

// Logging returns middleware that logs execution start and completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e *execution.Execution, next Handler) error {
		logger.Info("execution started",
			slog.String("job_name", e.JobName),
			slog.String("execution_id", e.ID.String()),
			slog.Time("scheduled_at", e.ScheduledAt),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("execution failed",
				slog.String("job_name", e.JobName),
				slog.String("execution_id", e.ID.String()),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("execution completed",
				slog.String("job_name", e.JobName),
				slog.String("execution_id", e.ID.String()),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
