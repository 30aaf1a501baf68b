package logging

import (
	"context"
	"log/slog"
)

type contextKey string

// Context keys for request-scoped log enrichment.
const (
	correlationIDKey contextKey = "correlation_id"
	requestInfoKey   contextKey = "request_info"
	userInfoKey      contextKey = "user_info"
)

// RequestInfo carries the transport-level request context attached to every
// record emitted while handling that request.
type RequestInfo struct {
	Method     string
	URL        string
	RemoteAddr string
	UserAgent  string
}

// UserInfo identifies the authenticated user bound to the request, if any.
type UserInfo struct {
	ID       uint
	Username string
}

// WithCorrelationID returns a new context carrying the given correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID retrieves the correlation ID from the context, or "".
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestInfo returns a new context carrying the request's transport context.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey, info)
}

// WithUser returns a new context carrying the authenticated user's identity.
func WithUser(ctx context.Context, id uint, username string) context.Context {
	return context.WithValue(ctx, userInfoKey, UserInfo{ID: id, Username: username})
}

// UserFromContext retrieves the authenticated user's identity from the context.
func UserFromContext(ctx context.Context) (UserInfo, bool) {
	u, ok := ctx.Value(userInfoKey).(UserInfo)
	return u, ok
}

// ctxHandler is a slog.Handler that adds request-scoped context values to
// every record: correlation ID, transport context and, when authenticated,
// the user's ID and username.
type ctxHandler struct {
	slog.Handler
}

// Handle adds context values to the record before passing it to the underlying handler.
func (h *ctxHandler) Handle(ctx context.Context, r slog.Record) error {
	if cid := CorrelationID(ctx); cid != "" {
		r.AddAttrs(slog.String("correlation_id", cid))
	}
	if info, ok := ctx.Value(requestInfoKey).(RequestInfo); ok {
		r.AddAttrs(slog.Group("request",
			slog.String("method", info.Method),
			slog.String("url", info.URL),
			slog.String("remote_addr", info.RemoteAddr),
			slog.String("user_agent", info.UserAgent),
		))
	}
	if u, ok := ctx.Value(userInfoKey).(UserInfo); ok {
		r.AddAttrs(slog.Group("user",
			slog.Uint64("id", uint64(u.ID)),
			slog.String("username", u.Username),
		))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ctxHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ctxHandler{h.Handler.WithAttrs(attrs)}
}

func (h *ctxHandler) WithGroup(name string) slog.Handler {
	return &ctxHandler{h.Handler.WithGroup(name)}
}
