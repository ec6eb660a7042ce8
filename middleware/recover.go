package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/evercron/evercron/execution"
)

// Recover returns middleware that recovers from panics in the handler
// chain. Panics are converted to errors, so a panicking handler ends
// as a failed execution, and logged with a stack trace.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, e *execution.Execution, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("handler panicked",
					slog.String("job_name", e.JobName),
					slog.String("execution_id", e.ID.String()),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic in job %s: %v", e.JobName, r)
			}
		}()
		return next(ctx)
	}
}
