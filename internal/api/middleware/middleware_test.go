// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ManuGH/canplay/internal/log"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func TestRecoverer(t *testing.T) {
	h := RequestID(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/canplay", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "internal_error", body["error"])
	assert.Equal(t, "req-1", body["requestId"])
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = log.RequestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "client-id")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "client-id", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("x", maxRequestIDLen+1))
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Len(t, seen, 36, "oversized ids are replaced by a uuid")
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders("")(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, DefaultCSP, w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestRateLimit_EnforcesLimit(t *testing.T) {
	h := APIRateLimit(3)(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	other := httptest.NewRequest(http.MethodGet, "/test", nil)
	other.RemoteAddr = "192.168.1.2:12345"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, other)
	assert.Equal(t, http.StatusOK, w.Code, "other IPs are independent")
}

func TestStack_MetricsUseRoutePattern(t *testing.T) {
	r := NewRouter(StackConfig{EnableMetrics: true})
	r.Get("/api/v1/flags/{name}", okHandler)

	before := testutil.CollectAndCount(httpRequestDuration)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/flags/media.av1.enabled", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, before+1, testutil.CollectAndCount(httpRequestDuration))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

func TestShouldTrace(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/healthz", "/readyz", "/metrics"} {
		if shouldTrace(httptest.NewRequest(http.MethodGet, p, nil)) {
			t.Errorf("expected shouldTrace to skip %s", p)
		}
	}
	if !shouldTrace(httptest.NewRequest(http.MethodGet, "/api/v1/canplay", nil)) {
		t.Error("expected /api/v1/canplay to be traced")
	}
}

func TestSpanNameFormatter(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	assert.Equal(t, "HTTP GET /api/v1/catalog", spanNameFormatter("HTTP GET", req))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/canplay?type=video%2Fmkv", nil)
	assert.Equal(t, "HTTP GET /api/v1/canplay?", spanNameFormatter("HTTP GET", req))
}

func TestExtractTraceContext_NoSpan(t *testing.T) {
	traceID, spanID := ExtractTraceContext(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}
