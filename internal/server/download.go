package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/apikey"
	apierrors "github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/errors"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/middleware"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/proxy"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/requestlog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/scraper"
)

// downloadRequest carries the download parameters. GET reads them from the
// query; POST accepts JSON or a form, and the key may also come from the
// X-API-Key header.
type downloadRequest struct {
	Key string `json:"key" form:"key"`
	URL string `json:"url" form:"url"`
}

// clientInfo describes the caller for the request log
type clientInfo struct {
	IP        string
	UserAgent string
	Referer   string
}

// handleDownload resolves a TikTok URL for an API key holder
func (s *APIServer) handleDownload(c *gin.Context) {
	ctx := c.Request.Context()
	requestID := middleware.GetRequestIDFromContext(c)

	cur, err := s.settings.Get(ctx)
	if err != nil {
		// serve with defaults rather than fail every download on a store hiccup
		s.logger.Warn().Err(err).Msg("Failed to load settings, assuming API enabled")
	} else if !cur.APIEnabled {
		respondError(c, apierrors.ErrServiceDisabledError)
		return
	}

	req, err := bindDownloadRequest(c)
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Malformed request body"))
		return
	}

	if req.Key == "" {
		respondError(c, apierrors.ErrMissingAPIKeyError)
		return
	}
	if !apikey.ValidFormat(req.Key) {
		respondError(c, apierrors.ErrInvalidAPIKeyFormatError.WithMessage(
			"Invalid API key format. API key must start with \"hasan_key_\" and be at least 30 characters long."))
		return
	}
	if req.URL == "" {
		respondError(c, apierrors.ErrMissingURLError)
		return
	}
	if !scraper.IsValidURL(req.URL) {
		respondError(c, apierrors.ErrInvalidURLError)
		return
	}

	info := getClientInfo(c)
	entry := requestlog.Entry{
		APIKey:    req.Key,
		TikTokURL: req.URL,
		IP:        info.IP,
		UserAgent: info.UserAgent,
		Referer:   info.Referer,
		Method:    c.Request.Method,
		RequestID: requestID,
	}

	if !s.keys.Validator().Validate(ctx, req.Key) {
		logging.LogSecurityEvent("invalid_api_key", info.IP, logging.RedactKey(req.Key))
		entry.Error = apierrors.ErrInvalidAPIKeyError.Message
		s.requests.Go(entry)
		respondError(c, apierrors.ErrInvalidAPIKeyError)
		return
	}
	entry.Counted = true

	media, err := s.downloads.Download(ctx, req.URL)
	if err != nil {
		apiErr := downloadError(err)
		entry.Error = apiErr.Message
		s.requests.Go(entry)
		respondError(c, apiErr)
		return
	}

	rewritten, err := proxy.NewRewriter(s.origin(c)).RewriteResult(media)
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", requestID).Msg("Failed to rewrite media links")
		entry.Error = err.Error()
		s.requests.Go(entry)
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	entry.Success = true
	s.requests.Go(entry)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"type":    rewritten.Type(),
		"data":    rewritten,
	})
}

func bindDownloadRequest(c *gin.Context) (downloadRequest, error) {
	var req downloadRequest
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		if err := c.ShouldBind(&req); err != nil {
			return req, err
		}
	}
	if req.Key == "" {
		req.Key = c.Query("key")
	}
	if req.Key == "" {
		req.Key = c.GetHeader("X-API-Key")
	}
	if req.URL == "" {
		req.URL = c.Query("url")
	}
	req.Key = strings.TrimSpace(req.Key)
	req.URL = strings.TrimSpace(req.URL)
	return req, nil
}

// downloadError maps pipeline failures onto API errors. The backend's own
// message is passed through.
func downloadError(err error) *apierrors.APIError {
	var se *scraper.Error
	switch {
	case errors.Is(err, proxy.ErrMissingURL):
		return apierrors.ErrMissingURLError
	case errors.Is(err, proxy.ErrInvalidURL):
		return apierrors.ErrInvalidURLError
	case errors.Is(err, proxy.ErrCircuitOpen):
		return apierrors.ErrCircuitBreakerOpenError
	case errors.As(err, &se):
		switch {
		case errors.Is(se.Kind, scraper.ErrTimeout):
			return apierrors.ErrUpstreamTimeoutError.WithMessage(se.Message)
		case errors.Is(se.Kind, scraper.ErrNetwork):
			return apierrors.ErrUpstreamUnavailableError.WithMessage(se.Message)
		case errors.Is(se.Kind, scraper.ErrNoMedia):
			return apierrors.ErrNoMediaError.WithMessage(se.Message)
		default:
			return apierrors.ErrUpstreamErrorError.WithMessage(se.Message)
		}
	case errors.Is(err, context.DeadlineExceeded):
		return apierrors.ErrUpstreamTimeoutError
	default:
		return apierrors.ErrInternalServerError
	}
}

// getClientInfo reads the caller's address, user agent and referrer
func getClientInfo(c *gin.Context) clientInfo {
	info := clientInfo{
		IP:        "Unknown",
		UserAgent: c.GetHeader("User-Agent"),
		Referer:   c.GetHeader("Referer"),
	}
	if info.UserAgent == "" {
		info.UserAgent = "Unknown"
	}
	if info.Referer == "" {
		info.Referer = "Direct"
	}

	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			info.IP = ip
			return info
		}
	}
	if realIP := strings.TrimSpace(c.GetHeader("X-Real-IP")); realIP != "" {
		info.IP = realIP
		return info
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil && host != "" {
		info.IP = host
	} else if c.Request.RemoteAddr != "" {
		info.IP = c.Request.RemoteAddr
	}
	return info
}

// origin returns the scheme and host that rewritten links point at
func (s *APIServer) origin(c *gin.Context) string {
	if s.config.Server.PublicURL != "" {
		return strings.TrimRight(s.config.Server.PublicURL, "/")
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		if p := strings.ToLower(strings.TrimSpace(first)); p == "http" || p == "https" {
			scheme = p
		}
	}

	host := c.Request.Host
	if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		host = strings.TrimSpace(first)
	}
	return scheme + "://" + host
}
