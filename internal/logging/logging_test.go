package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testChannels builds a channel set writing to in-memory buffers, one per
// channel name.
func testChannels(t *testing.T) (*Channels, map[string]*bytes.Buffer) {
	t.Helper()
	bufs := make(map[string]*bytes.Buffer)
	ch := NewChannels(func(name string) (io.Writer, error) {
		b := &bytes.Buffer{}
		bufs[name] = b
		return b, nil
	}, slog.LevelDebug, false)
	return ch, bufs
}

// decodeLines parses every JSON line written to a buffer.
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		records = append(records, rec)
	}
	return records
}

func TestChannels_EachRecordCarriesChannelName(t *testing.T) {
	ch, bufs := testChannels(t)

	ch.App.Info("app message")
	ch.Security.Warn("security message")
	ch.Error.Error("error message")
	ch.Perf.Info("perf message")
	ch.Audit.Info("audit message")

	for name, logger := range map[string]*bytes.Buffer{
		ChannelApplication: bufs[ChannelApplication],
		ChannelSecurity:    bufs[ChannelSecurity],
		ChannelError:       bufs[ChannelError],
		ChannelPerformance: bufs[ChannelPerformance],
		ChannelAudit:       bufs[ChannelAudit],
	} {
		records := decodeLines(t, logger)
		require.Len(t, records, 1, "channel %s", name)
		assert.Equal(t, name, records[0]["channel"])
		assert.NotEmpty(t, records[0]["time"])
		assert.NotEmpty(t, records[0]["msg"])
	}
}

func TestChannels_TimestampsAreUTC(t *testing.T) {
	ch, bufs := testChannels(t)
	ch.App.Info("tick")

	records := decodeLines(t, bufs[ChannelApplication])
	require.Len(t, records, 1)

	ts, err := time.Parse(time.RFC3339Nano, records[0]["time"].(string))
	require.NoError(t, err)
	_, offset := ts.Zone()
	assert.Zero(t, offset)
}

func TestChannels_ContextEnrichment(t *testing.T) {
	ch, bufs := testChannels(t)

	ctx := WithCorrelationID(context.Background(), "cid-123")
	ctx = WithRequestInfo(ctx, RequestInfo{
		Method:     "POST",
		URL:        "/create_post",
		RemoteAddr: "10.0.0.1",
		UserAgent:  "test-agent",
	})
	ctx = WithUser(ctx, 7, "alice")

	ch.App.InfoContext(ctx, "enriched")

	records := decodeLines(t, bufs[ChannelApplication])
	require.Len(t, records, 1)
	rec := records[0]

	assert.Equal(t, "cid-123", rec["correlation_id"])

	request := rec["request"].(map[string]any)
	assert.Equal(t, "POST", request["method"])
	assert.Equal(t, "/create_post", request["url"])
	assert.Equal(t, "10.0.0.1", request["remote_addr"])
	assert.Equal(t, "test-agent", request["user_agent"])

	user := rec["user"].(map[string]any)
	assert.Equal(t, float64(7), user["id"])
	assert.Equal(t, "alice", user["username"])
}

func TestChannels_SecurityChannelMasksSensitiveAttrs(t *testing.T) {
	ch, bufs := testChannels(t)

	ch.Security.Warn("login form received",
		slog.String("username", "alice"),
		slog.String("password", "pw1"),
		slog.Any("form", map[string]any{
			"csrf_token": "tok",
			"next":       "/home",
		}),
	)

	records := decodeLines(t, bufs[ChannelSecurity])
	require.Len(t, records, 1)
	rec := records[0]

	assert.Equal(t, "alice", rec["username"])
	assert.Equal(t, MaskMarker, rec["password"])

	form := rec["form"].(map[string]any)
	assert.Equal(t, MaskMarker, form["csrf_token"])
	assert.Equal(t, "/home", form["next"])

	assert.NotContains(t, bufs[ChannelSecurity].String(), "pw1")
	assert.NotContains(t, bufs[ChannelSecurity].String(), `"tok"`)
}

func TestChannels_ApplicationChannelIsNotMasked(t *testing.T) {
	// Only security and audit carry the masking handler; the application
	// channel logs what it is given.
	ch, bufs := testChannels(t)

	ch.App.Info("raw", slog.String("token_count", "17"))
	records := decodeLines(t, bufs[ChannelApplication])
	require.Len(t, records, 1)
	assert.Equal(t, "17", records[0]["token_count"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"garbage", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "input %q", tt.in)
	}
}
