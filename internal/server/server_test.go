package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"design-drop/internal/config"
	"design-drop/internal/model"
)

func TestHealth_Live(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestHealth_Ready(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var h Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &h))
	assert.Equal(t, HealthStatusHealthy, h.Status)
	assert.Equal(t, "test", h.Version)
	assert.True(t, h.Timestamp.Equal(fixedNow))
	assert.Equal(t, ComponentStatusUp, h.Components["log_store"].Status)
}

func TestHealth_ReadyStoreDown(t *testing.T) {
	srv := New(testConfig(), failingStore{err: errStoreDown}, &fakeNotifier{}, model.FixedClock(fixedNow))
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var h Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &h))
	assert.Equal(t, HealthStatusUnhealthy, h.Status)
	assert.Equal(t, ComponentStatusDown, h.Components["log_store"].Status)
	assert.Contains(t, h.Components["log_store"].Message, "disk full")
}

func TestDetermineOverallHealth(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]ComponentHealth
		want       HealthStatus
	}{
		{"no components", map[string]ComponentHealth{}, HealthStatusHealthy},
		{"all up", map[string]ComponentHealth{"a": {Status: ComponentStatusUp}}, HealthStatusHealthy},
		{"one degraded", map[string]ComponentHealth{
			"a": {Status: ComponentStatusUp},
			"b": {Status: ComponentStatusDegraded},
		}, HealthStatusDegraded},
		{"down beats degraded", map[string]ComponentHealth{
			"a": {Status: ComponentStatusDown},
			"b": {Status: ComponentStatusDegraded},
		}, HealthStatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineOverallHealth(tt.components))
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	rr := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "design_drop_http_requests_total")
	assert.Contains(t, body, `route="/health"`)
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, rr.Header().Get("X-Request-Id"), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "client-supplied")
	rr = env.do(req)
	assert.Equal(t, "client-supplied", rr.Header().Get("X-Request-Id"))
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestSecurityHeaders(t *testing.T) {
	t.Run("non-production", func(t *testing.T) {
		env := newTestEnv(t)
		rr := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		h := rr.Header()
		assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
		assert.Contains(t, h.Get("Content-Security-Policy"), "img-src 'self' data: blob:")
		assert.Empty(t, h.Get("Strict-Transport-Security"))
	})

	t.Run("production adds hsts", func(t *testing.T) {
		env := newTestEnv(t, func(c *config.Config) { c.App.Environment = "production" })
		rr := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Contains(t, rr.Header().Get("Strict-Transport-Security"), "max-age=")
	})
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.CORS.AllowedOrigins = []string{"https://designs.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "https://designs.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := env.do(req)

	assert.Equal(t, "https://designs.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	rr = env.do(req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCompression(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Append(context.Background(), model.Record{
		Name: "A", Timestamp: fixedTimestamp, FileCount: 1,
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := env.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	assert.Contains(t, rr.Header().Values("Vary"), "Accept-Encoding")

	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)

	var recs []model.Record
	require.NoError(t, json.Unmarshal(plain, &recs))
	assert.Len(t, recs, 1)
}

func TestAcceptsCompression(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"gzip", true},
		{"br, GZIP;q=0.8", true},
		{"gzip;q=0", false},
		{"gzip; q=0", false},
		{"deflate", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Encoding", tt.header)
		assert.Equal(t, tt.want, acceptsCompression(req), "Accept-Encoding: %q", tt.header)
	}
}

func TestUploadIsNotCompressed(t *testing.T) {
	env := newTestEnv(t)
	req := uploadRequest(t, submitter, nFiles(1))
	req.Header.Set("Accept-Encoding", "gzip")
	rr := env.do(req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Content-Encoding"))
}

func TestStaticFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>form</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	env := newTestEnv(t, func(c *config.Config) { c.HTTP.StaticDir = dir })

	rr := env.do(httptest.NewRequest(http.MethodGet, "/assets/app.js", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "console.log(1)", rr.Body.String())

	rr = env.do(httptest.NewRequest(http.MethodGet, "/thanks", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "form")

	rr = env.do(httptest.NewRequest(http.MethodDelete, "/thanks", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStaticFrontend_Disabled(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- env.srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_ListenError(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.HTTP.Addr = "256.0.0.1:bad" })
	err := env.srv.Run(context.Background())
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "Server closed"))
}
