// Package proxy resolves TikTok links through the scraping backend, rewrites
// the media links of the result to go through this service, and streams the
// media itself.
package proxy

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/monitoring"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/scraper"
)

// UpstreamTikwm names the scraping backend in metrics and breaker status
const UpstreamTikwm = "tikwm"

// Service errors
var (
	ErrMissingURL = errors.New("TikTok URL is required")
	ErrInvalidURL = errors.New("invalid TikTok URL")
)

// Fetcher resolves a TikTok URL with the scraping backend
type Fetcher interface {
	Fetch(ctx context.Context, tiktokURL string) (*models.MediaResult, error)
}

// Service runs the download pipeline: URL validation, then a
// breaker-guarded fetch.
type Service struct {
	fetcher  Fetcher
	breakers *CircuitBreakerManager
	logger   zerolog.Logger
}

// NewService creates a new download service
func NewService(fetcher Fetcher, breakers *CircuitBreakerManager) *Service {
	if breakers == nil {
		breakers = NewCircuitBreakerManager(nil)
	}
	return &Service{
		fetcher:  fetcher,
		breakers: breakers,
		logger:   logging.NewLogger("proxy"),
	}
}

// GetCircuitBreakerManager returns the circuit breaker manager
func (s *Service) GetCircuitBreakerManager() *CircuitBreakerManager {
	return s.breakers
}

// Download validates the URL and resolves it. Errors are ErrMissingURL,
// ErrInvalidURL, ErrCircuitOpen or a *scraper.Error.
func (s *Service) Download(ctx context.Context, tiktokURL string) (*models.MediaResult, error) {
	tiktokURL = strings.TrimSpace(tiktokURL)
	if tiktokURL == "" {
		return nil, ErrMissingURL
	}
	if !scraper.IsValidURL(tiktokURL) {
		return nil, ErrInvalidURL
	}

	start := time.Now()
	result, err := s.breakers.Execute(ctx, UpstreamTikwm, func() (interface{}, error) {
		return s.fetcher.Fetch(ctx, tiktokURL)
	})
	monitoring.RecordUpstreamLatency(UpstreamTikwm, time.Since(start))

	if err != nil {
		kind := errorKind(err)
		monitoring.RecordUpstreamRequest(UpstreamTikwm, "error")
		monitoring.RecordUpstreamError(UpstreamTikwm, kind)
		s.logger.Warn().
			Err(err).
			Str("kind", kind).
			Dur("duration", time.Since(start)).
			Msg("Download failed")
		return nil, err
	}

	media := result.(*models.MediaResult)
	monitoring.RecordUpstreamRequest(UpstreamTikwm, "ok")
	monitoring.RecordDownload(media.Type())
	return media, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, scraper.ErrTimeout):
		return "timeout"
	case errors.Is(err, scraper.ErrNetwork):
		return "network"
	case errors.Is(err, scraper.ErrNoMedia):
		return "no_media"
	case errors.Is(err, scraper.ErrUpstream):
		return "upstream"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}
