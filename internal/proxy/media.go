package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/scraper"
)

const maxRedirects = 5

// Media proxy errors
var (
	ErrMediaURLRequired = errors.New("download URL is required")
	ErrInvalidMediaURL  = errors.New("invalid URL format")
	ErrHostNotAllowed   = errors.New("invalid download URL")
	ErrMediaTimeout     = errors.New("download timeout")
)

// MediaStatusError is returned when the media host answers non-2xx
type MediaStatusError struct {
	Status int
}

func (e *MediaStatusError) Error() string {
	return fmt.Sprintf("Download failed: %d", e.Status)
}

// Media is an open upstream media stream. The caller closes Body.
type Media struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// MediaProxy fetches media from allow-listed hosts
type MediaProxy struct {
	allowed    []string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewMediaProxy creates a media proxy. Only the wait for response headers is
// bounded; the body streams for as long as the client keeps reading.
func NewMediaProxy(cfg *config.ProxyConfig) *MediaProxy {
	allowed := make([]string, 0, len(cfg.AllowedHosts))
	for _, h := range cfg.AllowedHosts {
		h = strings.Trim(strings.ToLower(strings.TrimSpace(h)), ".")
		if h != "" {
			allowed = append(allowed, h)
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = cfg.HeaderTimeout

	p := &MediaProxy{
		allowed: allowed,
		logger:  logging.NewLogger("media"),
	}
	p.httpClient = &http.Client{
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			if !p.AllowedHost(req.URL.Hostname()) {
				return ErrHostNotAllowed
			}
			return nil
		},
	}
	return p
}

// AllowedHost reports whether host equals an allow-listed host or is a
// subdomain of one
func (p *MediaProxy) AllowedHost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return false
	}
	for _, h := range p.allowed {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Validate parses raw and checks it against the allow-list
func (p *MediaProxy) Validate(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMediaURLRequired
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidMediaURL
	}
	if u.User != nil || !p.AllowedHost(u.Hostname()) {
		return nil, ErrHostNotAllowed
	}
	return u, nil
}

// Open validates raw and starts a streaming GET. No connection is made for
// a URL that fails validation.
func (p *MediaProxy) Open(ctx context.Context, raw string) (*Media, error) {
	u, err := p.Validate(raw)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", scraper.RandomUserAgent())
	req.Header.Set("Referer", "https://www.tiktok.com/")
	req.Header.Set("Origin", "https://www.tiktok.com")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Sec-Fetch-Dest", "video")
	req.Header.Set("Sec-Fetch-Mode", "no-cors")
	req.Header.Set("Sec-Fetch-Site", "cross-site")

	start := time.Now()
	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, ErrHostNotAllowed) {
			return nil, ErrHostNotAllowed
		}
		if scraper.IsTimeout(ctx, err) {
			return nil, fmt.Errorf("%w: %v", ErrMediaTimeout, err)
		}
		return nil, fmt.Errorf("media fetch failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		p.logger.Warn().
			Str("host", u.Hostname()).
			Int("status", resp.StatusCode).
			Msg("Media host returned an error")
		return nil, &MediaStatusError{Status: resp.StatusCode}
	}

	p.logger.Debug().
		Str("host", u.Hostname()).
		Dur("header_wait", time.Since(start)).
		Msg("Media stream opened")

	return &Media{
		Body:          resp.Body,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}, nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^\w\s-]`)
	filenameWhitespace  = regexp.MustCompile(`\s+`)
)

const maxFilenameLength = 100

// ContentInfo picks the response content type and the download filename,
// extension included, from the upstream content type and a filename hint.
func ContentInfo(upstreamType, hint string) (contentType, filename string) {
	lower := strings.ToLower(upstreamType)
	ext := ".mp4"
	switch {
	case strings.Contains(lower, "audio"):
		contentType, ext = "audio/mpeg", ".mp3"
	case strings.Contains(lower, "image"):
		contentType, ext = "image/jpeg", ".jpg"
	case upstreamType != "":
		contentType = upstreamType
	default:
		contentType = "video/mp4"
	}

	name := unsafeFilenameChars.ReplaceAllString(hint, "")
	name = filenameWhitespace.ReplaceAllString(strings.TrimSpace(name), "_")
	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}
	if name == "" {
		name = defaultBaseFilename
	}
	return contentType, name + ext
}
