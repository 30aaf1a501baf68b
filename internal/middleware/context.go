// Package middleware provides the authentication gate and request-scoped
// logging middleware for the application.
package middleware

import (
	"log/slog"
	"time"

	"photogram/internal/logging"
	"photogram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys shared between middleware and handlers.
const (
	LocalsCurrentUser   = "currentUser"
	LocalsSessionToken  = "sessionToken"
	LocalsTargetPost    = "targetPost"
	LocalsTargetComment = "targetComment"
)

// RequestContext assigns each request a correlation ID, binds the transport
// context into the request context for the context-aware log handler, and
// emits request start/end records with status code and duration.
func RequestContext(ch *logging.Channels) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		correlationID := uuid.NewString()

		ctx := logging.WithCorrelationID(c.UserContext(), correlationID)
		ctx = logging.WithRequestInfo(ctx, logging.RequestInfo{
			Method:     c.Method(),
			URL:        c.OriginalURL(),
			RemoteAddr: c.IP(),
			UserAgent:  c.Get("User-Agent"),
		})
		c.SetUserContext(ctx)
		c.Set("X-Correlation-ID", correlationID)

		ch.App.InfoContext(ctx, "Request started",
			slog.String("event_type", "request_start"),
		)

		err := c.Next()

		durationMS := float64(time.Since(start).Microseconds()) / 1000.0
		// On the error path the response still holds the default status; the
		// error boundary only sets the real one after this middleware returns.
		status := c.Response().StatusCode()
		if err != nil {
			status = models.HTTPStatusFor(err)
		}

		fields := []any{
			slog.String("event_type", "request_end"),
			slog.Int("status_code", status),
			slog.Float64("duration_ms", durationMS),
		}
		// Locals may have been enriched by later middleware; use the final context.
		ctx = c.UserContext()
		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			ch.Error.ErrorContext(ctx, "Request failed", fields...)
		} else {
			ch.App.InfoContext(ctx, "Request completed", fields...)
		}

		ch.Perf.InfoContext(ctx, "Performance: page_load",
			slog.String("operation", "page_load"),
			slog.String("endpoint", c.Path()),
			slog.String("method", c.Method()),
			slog.Float64("duration_ms", durationMS),
		)

		return err
	}
}
