package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yehuditohana/Supermarket-Price-Comparer/pkg/logger"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return logger.NewWithWriter("price-comparer", "debug", buf)
}

func decodeLastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &out))
	return out
}

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	var inHandler string
	handler := RequestLogging(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inHandler = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil))

	header := rec.Header().Get(CorrelationHeader)
	assert.NotEmpty(t, header)
	assert.Equal(t, header, inHandler)

	rec2 := decodeLastRecord(t, &buf)
	assert.Equal(t, "http request", rec2["msg"])
	assert.Equal(t, float64(http.StatusCreated), rec2["status"])
	assert.Equal(t, float64(2), rec2["bytes"])
	assert.Equal(t, header, rec2["correlation_id"])
}

func TestRequestLogging_KeepsInboundCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogging(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CorrelationHeader, "corr-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "corr-123", rec.Header().Get(CorrelationHeader))
}

func TestRequestLogging_Levels(t *testing.T) {
	tests := []struct {
		path   string
		status int
		level  string
	}{
		{"/api/v1/cart", http.StatusOK, "INFO"},
		{"/health/ready", http.StatusOK, "DEBUG"},
		{"/api/v1/comparisons", http.StatusBadGateway, "ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var buf bytes.Buffer
			handler := RequestLogging(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.level, decodeLastRecord(t, &buf)["level"])
		})
	}
}

func TestRequestLogger_EnrichedByAuthAndSession(t *testing.T) {
	var buf bytes.Buffer
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).InfoContext(r.Context(), "handler ran")
	})
	resolver := func(context.Context, string) (int64, error) { return 42, nil }
	handler := RequestLogger(newBufferLogger(&buf))(Auth(resolver)(Session(final)))

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/comparisons/current", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer s-1")
	req.Header.Set(SessionHeader, "tab-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := decodeLastRecord(t, &buf)
	assert.Equal(t, "handler ran", out["msg"])
	assert.Equal(t, "corr-9", out["correlation_id"])
	assert.Equal(t, float64(42), out["user_id"])
	assert.Equal(t, "tab-1", out["session_id"])
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	handler := Recovery(newBufferLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil snapshot")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic recovered")
}
