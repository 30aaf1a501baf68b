// Package logging provides the multi-channel structured logging pipeline:
// one JSON stream per concern (application, security, error, performance,
// audit) with request context propagation and sensitive-field masking on the
// security and audit channels.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photogram/internal/config"
)

// Channel names. Each maps to one append-only JSON-lines sink; rotation and
// retention belong to the sink, not to this package.
const (
	ChannelApplication = "application"
	ChannelSecurity    = "security"
	ChannelError       = "error"
	ChannelPerformance = "performance"
	ChannelAudit       = "audit"
)

// Channels bundles one slog.Logger per log stream.
type Channels struct {
	App      *slog.Logger
	Security *slog.Logger
	Error    *slog.Logger
	Perf     *slog.Logger
	Audit    *slog.Logger

	closers []io.Closer
}

// Default is the process-wide channel set. It writes JSON to stdout until
// Setup replaces it with file-backed sinks.
var Default *Channels

func init() {
	Default = NewChannels(func(string) (io.Writer, error) { return os.Stdout, nil }, slog.LevelInfo, false)
}

// utcTime forces record timestamps to UTC so every sink carries ISO-8601 UTC.
func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		if t, ok := a.Value.Any().(time.Time); ok {
			a.Value = slog.TimeValue(t.UTC())
		}
	}
	return a
}

// NewChannels builds a channel set. sink returns the writer for a channel
// name; console additionally mirrors the application channel to stdout as
// human-readable text (development convenience).
func NewChannels(sink func(channel string) (io.Writer, error), level slog.Level, console bool) *Channels {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: utcTime}

	channel := func(name string, masked bool) *slog.Logger {
		w, err := sink(name)
		if err != nil || w == nil {
			w = os.Stdout
		}
		var h slog.Handler = slog.NewJSONHandler(w, opts)
		if name == ChannelApplication && console {
			h = teeHandler{h, slog.NewTextHandler(os.Stdout, opts)}
		}
		if masked {
			h = &maskingHandler{inner: h}
		}
		return slog.New(&ctxHandler{h}).With(slog.String("channel", name))
	}

	return &Channels{
		App:      channel(ChannelApplication, false),
		Security: channel(ChannelSecurity, true),
		Error:    channel(ChannelError, false),
		Perf:     channel(ChannelPerformance, false),
		Audit:    channel(ChannelAudit, true),
	}
}

// Setup creates the log directory, opens one append-only file per channel
// and installs the resulting channel set as Default.
func Setup(cfg *config.Config) (*Channels, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	var closers []io.Closer
	sink := func(channel string) (io.Writer, error) {
		name := channel + ".log"
		if channel == ChannelError {
			name = "errors.log"
		}
		f, err := os.OpenFile(filepath.Join(cfg.LogDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		closers = append(closers, f)
		return f, nil
	}

	ch := NewChannels(sink, ParseLevel(cfg.LogLevel), cfg.IsDevelopment())
	ch.closers = closers
	Default = ch

	ch.App.Info("Logging system initialized",
		slog.String("environment", cfg.Env),
		slog.String("log_level", cfg.LogLevel),
		slog.String("log_directory", cfg.LogDir),
	)
	return ch, nil
}

// Close releases the file sinks opened by Setup.
func (c *Channels) Close() error {
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ParseLevel maps a configuration log level string to a slog.Level.
// Unknown values fall back to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// teeHandler forwards each record to both handlers.
type teeHandler struct {
	primary   slog.Handler
	secondary slog.Handler
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t.primary.Enabled(ctx, level) || t.secondary.Enabled(ctx, level)
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	err := t.primary.Handle(ctx, r.Clone())
	if err2 := t.secondary.Handle(ctx, r); err == nil {
		err = err2
	}
	return err
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{t.primary.WithAttrs(attrs), t.secondary.WithAttrs(attrs)}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{t.primary.WithGroup(name), t.secondary.WithGroup(name)}
}
