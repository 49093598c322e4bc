package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/pkg/models"
)

func TestLogger_RecordsStatusAndPath(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("404 Page Not Found"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/player/LeBron%20James", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, float64(404), entry["status"])
	assert.Equal(t, "/player/LeBron%20James", entry["path"])
	assert.Equal(t, float64(len("404 Page Not Found")), entry["bytes"])
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 2)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	assert.True(t, rl.Allow("10.0.0.2"), "other clients keep their own bucket")
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiter_Handler(t *testing.T) {
	rl := middleware.NewRateLimiter(1, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do().Code)

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(strings.NewReader(rec.Body.String())).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error)
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
}
