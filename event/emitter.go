package event

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Emitter is the fire-and-forget front of an Appender. Append failures
// are logged and swallowed so that emitting from a handler can never
// fail the execution.
type Emitter struct {
	appender Appender
	logger   *slog.Logger
}

// NewEmitter creates an Emitter over the given Appender.
func NewEmitter(appender Appender, logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{appender: appender, logger: logger}
}

// Emit serializes data to JSON and appends it to the named log.
// All failures, serialization included, are logged, never returned.
func (e *Emitter) Emit(ctx context.Context, logName string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		e.logger.Warn("event emit: marshal failed",
			slog.String("log_name", logName),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := e.appender.AppendEvent(ctx, New(logName, payload)); err != nil {
		e.logger.Warn("event emit: append failed",
			slog.String("log_name", logName),
			slog.String("error", err.Error()),
		)
	}
}
