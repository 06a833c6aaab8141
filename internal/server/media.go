package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	apierrors "github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/errors"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/monitoring"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/proxy"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/requestlog"
)

// mediaHandler serves rewritten media links for both servers
type mediaHandler struct {
	media    *proxy.MediaProxy
	requests *requestlog.Logger
	logger   zerolog.Logger
}

func newMediaHandler(media *proxy.MediaProxy, requests *requestlog.Logger) *mediaHandler {
	return &mediaHandler{
		media:    media,
		requests: requests,
		logger:   logging.NewLogger("media"),
	}
}

// countingReader counts the bytes read through it
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// handle streams the media behind ?url= as an attachment named after
// ?filename=
func (h *mediaHandler) handle(c *gin.Context) {
	raw := c.Query("url")
	hint := c.DefaultQuery("filename", "tiktok_video")

	m, err := h.media.Open(c.Request.Context(), raw)
	if err != nil {
		apiErr, outcome := mediaError(err)
		if outcome == "failed" {
			h.logger.Error().Err(err).Msg("Media download failed")
		}
		monitoring.RecordMediaProxy(outcome)
		respondError(c, apiErr)
		return
	}
	defer m.Body.Close()

	contentType, filename := proxy.ContentInfo(m.ContentType, hint)
	info := getClientInfo(c)
	if h.requests != nil {
		h.requests.GoDownload(requestlog.DownloadEntry{
			URL:         raw,
			Filename:    filename,
			ContentType: contentType,
			IP:          info.IP,
			UserAgent:   info.UserAgent,
			Referer:     info.Referer,
		})
	}

	body := &countingReader{r: m.Body}
	c.DataFromReader(http.StatusOK, m.ContentLength, contentType, body, map[string]string{
		"Content-Disposition":           fmt.Sprintf("attachment; filename=%q", filename),
		"Cache-Control":                 "public, max-age=86400",
		"Access-Control-Expose-Headers": "Content-Disposition",
	})

	monitoring.RecordMediaProxy("ok")
	monitoring.AddMediaBytes(body.n)
}

// mediaError maps media proxy failures onto API errors and a metric outcome
func mediaError(err error) (*apierrors.APIError, string) {
	var statusErr *proxy.MediaStatusError
	switch {
	case errors.Is(err, proxy.ErrMediaURLRequired):
		return apierrors.NewInvalidRequestError("Download URL is required"), "rejected"
	case errors.Is(err, proxy.ErrInvalidMediaURL):
		return apierrors.NewInvalidRequestError("Invalid URL format"), "rejected"
	case errors.Is(err, proxy.ErrHostNotAllowed):
		return apierrors.ErrHostNotAllowedError.WithMessage("Invalid download URL"), "rejected"
	case errors.Is(err, proxy.ErrMediaTimeout):
		return apierrors.ErrUpstreamTimeoutError.WithMessage("Download timeout. Please try again."), "timeout"
	case errors.As(err, &statusErr):
		status := statusErr.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		return apierrors.NewUpstreamStatusError(status, statusErr.Error()), "upstream_status"
	default:
		return apierrors.NewUpstreamStatusError(http.StatusBadGateway, "Download service temporarily unavailable."), "failed"
	}
}
