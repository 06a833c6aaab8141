package proxy

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
)

func newTestMediaProxy(hosts ...string) *MediaProxy {
	return NewMediaProxy(&config.ProxyConfig{AllowedHosts: hosts, HeaderTimeout: time.Second})
}

func TestAllowedHost(t *testing.T) {
	p := newTestMediaProxy(config.Default().Proxy.AllowedHosts...)

	tests := []struct {
		host string
		want bool
	}{
		{"tikwm.com", true},
		{"www.tikwm.com", true},
		{"v16-webapp.tiktokcdn.com", true},
		{"v19.tiktokcdn-us.com", true},
		{"TIKTOK.COM.", true},
		{"ui-avatars.com", true},
		{"eviltiktok.com", false},
		{"tiktok.com.evil.net", false},
		{"example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.AllowedHost(tt.host), "host %q", tt.host)
	}
}

func TestOpen_RejectsBeforeConnecting(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	p := newTestMediaProxy("tiktokcdn.com")

	_, err := p.Open(context.Background(), srv.URL+"/a.mp4")
	assert.ErrorIs(t, err, ErrHostNotAllowed)

	_, err = p.Open(context.Background(), "ftp://tiktokcdn.com/a.mp4")
	assert.ErrorIs(t, err, ErrInvalidMediaURL)

	_, err = p.Open(context.Background(), "")
	assert.ErrorIs(t, err, ErrMediaURLRequired)

	assert.Zero(t, hits.Load())
}

func TestOpen_Streams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://www.tiktok.com/", r.Header.Get("Referer"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "audio/mp4")
		_, _ = io.WriteString(w, "media-bytes")
	}))
	defer srv.Close()

	p := newTestMediaProxy("127.0.0.1")
	media, err := p.Open(context.Background(), srv.URL+"/a.mp3")
	require.NoError(t, err)
	defer media.Body.Close()

	body, err := io.ReadAll(media.Body)
	require.NoError(t, err)
	assert.Equal(t, "media-bytes", string(body))
	assert.Equal(t, "audio/mp4", media.ContentType)
}

func TestOpen_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestMediaProxy("127.0.0.1").Open(context.Background(), srv.URL)
	var statusErr *MediaStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.Status)
}

func TestOpen_RedirectOffAllowList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://example.com/a.mp4", http.StatusFound)
	}))
	defer srv.Close()

	_, err := newTestMediaProxy("127.0.0.1").Open(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrHostNotAllowed)
}

func TestOpen_HeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	defer close(release)

	p := NewMediaProxy(&config.ProxyConfig{AllowedHosts: []string{"127.0.0.1"}, HeaderTimeout: 50 * time.Millisecond})
	_, err := p.Open(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrMediaTimeout)
}

func TestContentInfo(t *testing.T) {
	tests := []struct {
		upstream, hint   string
		wantType, wantFn string
	}{
		{"video/mp4", "T_10s_hd", "video/mp4", "T_10s_hd.mp4"},
		{"", "clip", "video/mp4", "clip.mp4"},
		{"application/octet-stream", "clip", "application/octet-stream", "clip.mp4"},
		{"audio/mp4", "song name", "audio/mpeg", "song_name.mp3"},
		{"image/webp", "pic", "image/jpeg", "pic.jpg"},
		{"video/mp4", `a"b;c/../d`, "video/mp4", "abcd.mp4"},
		{"video/mp4", "!!!", "video/mp4", "tiktok_video.mp4"},
	}

	for _, tt := range tests {
		ct, fn := ContentInfo(tt.upstream, tt.hint)
		assert.Equal(t, tt.wantType, ct)
		assert.Equal(t, tt.wantFn, fn)
	}

	_, fn := ContentInfo("video/mp4", longName(150))
	assert.Len(t, fn, maxFilenameLength+len(".mp4"))
}

func longName(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}
