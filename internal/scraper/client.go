package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
)

// Client talks to the tikwm scraping backend
type Client struct {
	endpoint   string
	origin     string
	httpClient *http.Client
	maxBody    int64
	now        func() time.Time
	logger     zerolog.Logger
}

// NewClient creates a tikwm client. Every call is bounded by cfg.Timeout.
func NewClient(cfg *config.UpstreamConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	return &Client{
		endpoint:   base + "/api/",
		origin:     base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxBody:    maxBody,
		now:        time.Now,
		logger:     logging.NewLogger("scraper"),
	}
}

// Fetch resolves a TikTok URL into a MediaResult with a single POST.
// There is no retry.
func (c *Client) Fetch(ctx context.Context, tiktokURL string) (*models.MediaResult, error) {
	form := url.Values{}
	form.Set("url", strings.TrimSpace(tiktokURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", RandomUserAgent())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Origin", c.origin)
	req.Header.Set("Referer", c.origin+"/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if IsTimeout(ctx, err) {
			return nil, &Error{Kind: ErrTimeout, Message: "Request timeout. Please try again.", Err: err}
		}
		return nil, &Error{Kind: ErrNetwork, Message: "Network error. Please check your connection and try again.", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", logging.SanitizeForLog(string(body), 200)).
			Msg("Upstream error")
		return nil, &Error{
			Kind:    ErrUpstream,
			Message: fmt.Sprintf("TikTok service error: %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		if IsTimeout(ctx, err) {
			return nil, &Error{Kind: ErrTimeout, Message: "Request timeout. Please try again.", Err: err}
		}
		return nil, &Error{Kind: ErrNetwork, Message: "Network error while reading the TikTok response", Err: err}
	}

	return Parse(body, c.now())
}

// IsTimeout reports whether err came from a deadline: the context's, the
// client's or the connection's.
func IsTimeout(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
