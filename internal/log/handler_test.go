package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-events/internal/middleware"
)

func lines(t *testing.T, b *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(b)
	for sc.Scan() {
		got := make(map[string]any)
		require.NoError(t, json.Unmarshal(sc.Bytes(), &got))
		out = append(out, got)
	}
	return out
}

func TestContextHandlerAddsRequestAttributes(t *testing.T) {
	var b bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&b, nil)))

	var requestID string
	h := middleware.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, _ = middleware.RequestID(r.Context())
		ctx := middleware.WithUserID(r.Context(), "acct-1")
		logger.InfoContext(ctx, "inside")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	got := lines(t, &b)
	require.Len(t, got, 2)
	assert.Equal(t, "inside", got[0]["msg"])
	assert.Equal(t, "acct-1", got[0]["actor"])
	assert.Equal(t, requestID, got[0]["request_id"])

	assert.Equal(t, "request", got[1]["msg"])
	assert.Equal(t, requestID, got[1]["request_id"])
	assert.Equal(t, "/events", got[1]["path"])
	assert.EqualValues(t, http.StatusOK, got[1]["status"])
	assert.NotContains(t, got[1], "actor")
	assert.Equal(t, requestID, rec.Header().Get("X-Request-ID"))
}

func TestContextHandlerOutsideRequest(t *testing.T) {
	var b bytes.Buffer
	logger := slog.New(New(slog.NewJSONHandler(&b, nil))).With("component", "cache")

	logger.InfoContext(context.Background(), "refreshed")

	got := lines(t, &b)
	require.Len(t, got, 1)
	assert.Equal(t, "cache", got[0]["component"])
	assert.NotContains(t, got[0], "request_id")
	assert.NotContains(t, got[0], "actor")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("chatty"))
}
