package logging

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

func itoa(v uint) string {
	return fmt.Sprintf("%d", v)
}

// WithTiming runs fn and records its wall-clock duration on the performance
// channel. On failure the duration and error type go to the error channel
// and the original error is returned unchanged; this wrapper never swallows
// or rewraps the failure.
func (l *AuditLogger) WithTiming(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	durationMS := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		l.ch.Error.ErrorContext(ctx, "Operation failed: "+operation,
			slog.String("operation", operation),
			slog.Float64("duration_ms", durationMS),
			slog.String("error_type", fmt.Sprintf("%T", err)),
			slog.String("error", err.Error()),
		)
		return err
	}

	l.PerformanceMetric(ctx, operation, durationMS, nil)
	return nil
}

// UnhandledError records an unhandled failure at the outermost boundary with
// full context before the caller converts it to a generic response.
func (l *AuditLogger) UnhandledError(ctx context.Context, err error) {
	l.ch.Error.ErrorContext(ctx, fmt.Sprintf("Unhandled exception: %v", err),
		slog.String("event_type", "unhandled_exception"),
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("error", err.Error()),
	)
}
