package proxy

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/scraper"
)

type stubFetcher struct {
	calls  atomic.Int64
	result *models.MediaResult
	err    error
}

func (s *stubFetcher) Fetch(ctx context.Context, tiktokURL string) (*models.MediaResult, error) {
	s.calls.Add(1)
	return s.result, s.err
}

const validURL = "https://www.tiktok.com/@x/video/111"

func TestDownload_ValidatesURL(t *testing.T) {
	f := &stubFetcher{result: &models.MediaResult{}}
	svc := NewService(f, nil)

	_, err := svc.Download(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingURL)

	_, err = svc.Download(context.Background(), "https://youtube.com/watch?v=1")
	assert.ErrorIs(t, err, ErrInvalidURL)

	assert.Zero(t, f.calls.Load())
}

func TestDownload_ReturnsResult(t *testing.T) {
	f := &stubFetcher{result: &models.MediaResult{ID: "111", Filename: "T_10s"}}
	svc := NewService(f, nil)

	got, err := svc.Download(context.Background(), " "+validURL+" ")
	require.NoError(t, err)
	assert.Equal(t, "111", got.ID)
}

func TestDownload_BreakerOpensOnBackendFailures(t *testing.T) {
	f := &stubFetcher{err: &scraper.Error{Kind: scraper.ErrNetwork, Message: "down"}}
	breakers := NewCircuitBreakerManager(&CircuitBreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})
	svc := NewService(f, breakers)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Download(ctx, validURL)
		assert.ErrorIs(t, err, scraper.ErrNetwork)
	}

	_, err := svc.Download(ctx, validURL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int64(2), f.calls.Load())
	assert.True(t, breakers.IsOpen(UpstreamTikwm))

	status := breakers.GetStatus(UpstreamTikwm)
	require.NotNil(t, status)
	assert.Equal(t, CircuitBreakerStateOpen, status.State)
}

func TestDownload_PerURLFailuresDoNotTrip(t *testing.T) {
	tests := []struct {
		name string
		err  *scraper.Error
		kind error
	}{
		{"no media", &scraper.Error{Kind: scraper.ErrNoMedia, Message: "No download links found for this video"}, scraper.ErrNoMedia},
		{"backend code", &scraper.Error{Kind: scraper.ErrUpstream, Message: "Url parsing is failed! Please check your url."}, scraper.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &stubFetcher{err: tt.err}
			breakers := NewCircuitBreakerManager(&CircuitBreakerConfig{
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          time.Minute,
				FailureThreshold: 1,
			})
			svc := NewService(f, breakers)

			for i := 0; i < 5; i++ {
				_, err := svc.Download(context.Background(), validURL)
				var se *scraper.Error
				require.True(t, errors.As(err, &se))
				assert.ErrorIs(t, err, tt.kind)
			}
			assert.False(t, breakers.IsOpen(UpstreamTikwm))
			assert.Equal(t, int64(5), f.calls.Load())

			f.err = nil
			f.result = &models.MediaResult{ID: "111"}
			got, err := svc.Download(context.Background(), validURL)
			require.NoError(t, err)
			assert.Equal(t, "111", got.ID)
		})
	}
}

func TestDownload_BackendStatusTrips(t *testing.T) {
	f := &stubFetcher{err: &scraper.Error{Kind: scraper.ErrUpstream, Message: "TikTok service error: 502", Status: 502}}
	breakers := NewCircuitBreakerManager(&CircuitBreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 1,
	})
	svc := NewService(f, breakers)

	_, err := svc.Download(context.Background(), validURL)
	assert.ErrorIs(t, err, scraper.ErrUpstream)
	assert.True(t, breakers.IsOpen(UpstreamTikwm))
}

func TestCircuitBreakerConfigFrom(t *testing.T) {
	cfg := CircuitBreakerConfigFrom(&config.CircuitBreakerConfig{FailureThreshold: 7, OpenTimeout: 10 * time.Second})
	assert.Equal(t, uint32(7), cfg.FailureThreshold)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	cfg = CircuitBreakerConfigFrom(&config.CircuitBreakerConfig{})
	assert.Equal(t, DefaultCircuitBreakerConfig().FailureThreshold, cfg.FailureThreshold)
}
