package logging

import (
	"context"
	"log/slog"
	"strings"
)

// MaskMarker replaces the value of any sensitive field before serialization.
// The redaction is irreversible: the original value never reaches the sink.
const MaskMarker = "***MASKED***"

// sensitiveFields is the denylist of key fragments. Matching is a
// case-insensitive substring test, so "password_hash", "session_user_id"
// and "X-Api-Key" all match.
var sensitiveFields = []string{
	"password",
	"password_hash",
	"token",
	"secret",
	"key",
	"authorization",
	"cookie",
	"session",
	"csrf_token",
	"api_key",
	"access_token",
}

// IsSensitiveKey reports whether a field key matches the denylist.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveFields {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Mask recursively rewrites a value tree, replacing the value at any key
// matching the denylist with MaskMarker. It is a pure function: inputs are
// never modified, and applying it twice yields the same result.
func Mask(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				out[k] = MaskMarker
			} else {
				out[k] = Mask(item)
			}
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				out[k] = MaskMarker
			} else {
				out[k] = item
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Mask(item)
		}
		return out
	default:
		return v
	}
}

// maskAttr applies the denylist to a single attribute, recursing through
// groups and map/slice payloads.
func maskAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskMarker)
	}
	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		masked := make([]slog.Attr, len(group))
		for i, ga := range group {
			masked[i] = maskAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
	case slog.KindAny:
		return slog.Attr{Key: a.Key, Value: slog.AnyValue(Mask(a.Value.Any()))}
	default:
		return a
	}
}

// maskingHandler rewrites every record's attributes through the denylist
// before handing the record to the wrapped handler. Security and audit
// channels are wrapped with it so no sensitive value can be serialized.
type maskingHandler struct {
	inner slog.Handler
}

func (h *maskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *maskingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(maskAttr(a))
		return true
	})
	return h.inner.Handle(ctx, masked)
}

func (h *maskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		maskedAttrs[i] = maskAttr(a)
	}
	return &maskingHandler{inner: h.inner.WithAttrs(maskedAttrs)}
}

func (h *maskingHandler) WithGroup(name string) slog.Handler {
	return &maskingHandler{inner: h.inner.WithGroup(name)}
}
