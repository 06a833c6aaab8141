package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

func newTestProxyServer(t *testing.T, st store.Store, hosts ...string) *ProxyServer {
	t.Helper()
	cfg := config.Default()
	cfg.Proxy.AllowedHosts = append(cfg.Proxy.AllowedHosts, hosts...)
	cfg.Proxy.HeaderTimeout = 5 * time.Second
	srv := NewProxyServer(cfg, st)
	t.Cleanup(srv.Drain)
	return srv
}

func TestProxyServer_Health(t *testing.T) {
	srv := newTestProxyServer(t, store.NewMemory())

	w := do(srv.Router(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "proxy", decode(t, w)["service"])
}

func TestProxyServer_Rejects(t *testing.T) {
	srv := newTestProxyServer(t, store.NewMemory())

	tests := []struct {
		name   string
		target string
	}{
		{"missing url", "/api/proxy/download"},
		{"not http", "/api/proxy/download?url=" + url.QueryEscape("ftp://tiktokcdn.com/a.mp4")},
		{"host not allowed", "/api/proxy/download?url=" + url.QueryEscape("https://example.com/a.mp4")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv.Router(), http.MethodGet, tt.target, "", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, false, decode(t, w)["success"])
		})
	}
}

func TestProxyServer_Streams(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		io.WriteString(w, "video-bytes")
	}))
	t.Cleanup(media.Close)

	st := store.NewMemory()
	srv := newTestProxyServer(t, st, "127.0.0.1")

	target := "/api/proxy/download?url=" + url.QueryEscape(media.URL+"/a.mp4") + "&filename=clip"
	w := do(srv.Router(), http.MethodGet, target, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "video-bytes", w.Body.String())
	assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment; filename="))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "clip")
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))

	srv.Drain()
	children, err := st.List(context.Background(), store.PathDownloads)
	require.NoError(t, err)
	assert.Len(t, children, 1)
}

func TestProxyServer_UpstreamStatus(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(media.Close)

	srv := newTestProxyServer(t, store.NewMemory(), "127.0.0.1")

	w := do(srv.Router(), http.MethodGet, "/api/proxy/download?url="+url.QueryEscape(media.URL+"/a.mp4"), "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
