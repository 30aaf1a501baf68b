package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"photogram/internal/logging"
	"photogram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestContextChannels(t *testing.T) (*logging.Channels, map[string]*bytes.Buffer) {
	t.Helper()
	bufs := map[string]*bytes.Buffer{
		logging.ChannelApplication: {},
		logging.ChannelError:       {},
		logging.ChannelPerformance: {},
	}
	ch := logging.NewChannels(func(name string) (io.Writer, error) {
		if buf, ok := bufs[name]; ok {
			return buf, nil
		}
		return io.Discard, nil
	}, slog.LevelInfo, false)
	return ch, bufs
}

func decodeRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
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

func TestRequestContext_SuccessRecordCarriesStatusAndDuration(t *testing.T) {
	ch, bufs := requestContextChannels(t)

	app := newTestApp()
	app.Use(RequestContext(ch))
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var end map[string]any
	for _, rec := range decodeRecords(t, bufs[logging.ChannelApplication]) {
		if rec["event_type"] == "request_end" {
			end = rec
		}
	}
	require.NotNil(t, end)
	assert.Equal(t, float64(http.StatusOK), end["status_code"])
	assert.Contains(t, end, "duration_ms")
}

func TestRequestContext_ErrorRecordCarriesFinalStatus(t *testing.T) {
	ch, bufs := requestContextChannels(t)

	app := newTestApp()
	app.Use(RequestContext(ch))
	app.Get("/forbidden", func(c *fiber.Ctx) error {
		return models.NewForbiddenError("You do not own this post")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/forbidden", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// The failure record reports the status the error boundary will send,
	// not the default the response held while the error was in flight.
	records := decodeRecords(t, bufs[logging.ChannelError])
	require.Len(t, records, 1)
	assert.Equal(t, "request_end", records[0]["event_type"])
	assert.Equal(t, float64(http.StatusForbidden), records[0]["status_code"])
	assert.Contains(t, records[0], "duration_ms")
	assert.Contains(t, records[0]["error"], "You do not own this post")
}

func TestRequestContext_MissingEntityLogsNotFoundStatus(t *testing.T) {
	ch, bufs := requestContextChannels(t)

	app := newTestApp()
	app.Use(RequestContext(ch))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return models.NewNotFoundError("Post", 999)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	records := decodeRecords(t, bufs[logging.ChannelError])
	require.Len(t, records, 1)
	assert.Equal(t, float64(http.StatusNotFound), records[0]["status_code"])
}
