package http_server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"roomchatgo/internal/config"
	"roomchatgo/internal/metrics"
	"roomchatgo/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	static := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(static, "index.html"), []byte("<html>chat</html>"), 0o644))

	cfg := &config.Config{
		AppName:         "chat-test",
		CorsOrigins:     []string{"http://localhost:8004"},
		StaticDir:       static,
		DefaultRoom:     "lobby",
		ShutdownTimeout: time.Second,
	}
	reg := prometheus.NewRegistry()
	hub := ws.NewHub(ws.WithMetrics(metrics.New(reg)))
	wsSrv := ws.NewWsServer(hub, nil, ws.Options{DefaultRoom: cfg.DefaultRoom})

	return NewHttpServer(context.Background(), cfg, wsSrv, hub, reg).srv.Handler
}

func get(h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		r.Header[k] = v
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(t)

	w := get(h, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","app":"chat-test"}`, w.Body.String())

	w = get(h, "/rooms", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = get(h, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chat_rooms")

	w = get(h, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "chat")

	w = get(h, "/ws", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORS(t *testing.T) {
	h := newTestHandler(t)

	w := get(h, "/rooms", http.Header{"Origin": {"http://localhost:8004"}})
	assert.Equal(t, "http://localhost:8004", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(h, "/rooms", http.Header{"Origin": {"https://evil.example"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
