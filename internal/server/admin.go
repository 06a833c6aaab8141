package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/apikey"
	apierrors "github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/errors"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/middleware"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/settings"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func (s *APIServer) handleGetSettings(c *gin.Context) {
	cur, err := s.settings.Get(c.Request.Context())
	if err != nil {
		s.adminFailure(c, err, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": cur})
}

func (s *APIServer) handleUpdateSettings(c *gin.Context) {
	var req settings.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid settings payload"))
		return
	}

	updated, err := s.settings.Apply(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, settings.ErrEmptyAdminPassword) {
			respondError(c, apierrors.NewInvalidRequestError(err.Error()))
			return
		}
		s.adminFailure(c, err, "Failed to update settings")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": updated})
}

func (s *APIServer) handleListKeys(c *gin.Context) {
	keys, err := s.keys.List(c.Request.Context())
	if err != nil {
		s.adminFailure(c, err, "Failed to list API keys")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "keys": keys, "total": len(keys)})
}

func (s *APIServer) handleGetKey(c *gin.Context) {
	key, err := s.keys.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.keyFailure(c, err, "Failed to load API key")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}

func (s *APIServer) handleUpdateKey(c *gin.Context) {
	var req apikey.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid key update payload"))
		return
	}

	key, err := s.keys.Update(c.Request.Context(), c.Param("key"), &req)
	if err != nil {
		if errors.Is(err, apikey.ErrNameRequired) {
			respondError(c, apierrors.NewInvalidRequestError(err.Error()))
			return
		}
		s.keyFailure(c, err, "Failed to update API key")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "key": key})
}

func (s *APIServer) handleDeleteKey(c *gin.Context) {
	if err := s.keys.Delete(c.Request.Context(), c.Param("key")); err != nil {
		s.keyFailure(c, err, "Failed to delete API key")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) handleDeleteAllKeys(c *gin.Context) {
	if err := s.keys.DeleteAll(c.Request.Context()); err != nil {
		s.adminFailure(c, err, "Failed to delete API keys")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) handleKeyUsage(c *gin.Context) {
	usage, err := s.keys.Usage(c.Request.Context(), c.Param("key"))
	if err != nil {
		s.keyFailure(c, err, "Failed to load usage")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "usage": usage})
}

func (s *APIServer) handleListRequests(c *gin.Context) {
	entries, err := s.requests.Recent(c.Request.Context(), listLimit(c))
	if err != nil {
		s.adminFailure(c, err, "Failed to list requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "requests": entries, "total": len(entries)})
}

func (s *APIServer) handleDeleteRequests(c *gin.Context) {
	if err := s.requests.DeleteAll(c.Request.Context()); err != nil {
		s.adminFailure(c, err, "Failed to delete requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *APIServer) handleListDownloads(c *gin.Context) {
	entries, err := s.requests.RecentDownloads(c.Request.Context(), listLimit(c))
	if err != nil {
		s.adminFailure(c, err, "Failed to list downloads")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "downloads": entries, "total": len(entries)})
}

// handleInitDatabase resets settings to defaults and empties every collection
func (s *APIServer) handleInitDatabase(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := s.settings.Reset(ctx); err != nil {
		s.adminFailure(c, err, "Failed to reset settings")
		return
	}
	if err := s.keys.DeleteAll(ctx); err != nil {
		s.adminFailure(c, err, "Failed to delete API keys")
		return
	}
	if err := s.requests.DeleteAll(ctx); err != nil {
		s.adminFailure(c, err, "Failed to delete requests")
		return
	}
	if err := s.requests.DeleteDownloads(ctx); err != nil {
		s.adminFailure(c, err, "Failed to delete downloads")
		return
	}

	s.logger.Warn().Msg("Database initialized")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Database initialized successfully"})
}

func (s *APIServer) handleCircuitBreakers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"breakers": s.downloads.GetCircuitBreakerManager().GetAllStatus(),
	})
}

func (s *APIServer) keyFailure(c *gin.Context, err error, msg string) {
	if errors.Is(err, apikey.ErrAPIKeyNotFound) {
		respondError(c, apierrors.ErrKeyNotFoundError)
		return
	}
	s.adminFailure(c, err, msg)
}

func (s *APIServer) adminFailure(c *gin.Context, err error, msg string) {
	s.logger.Error().Err(err).Str("request_id", middleware.GetRequestIDFromContext(c)).Msg(msg)
	respondError(c, apierrors.ErrInternalServerError.WithMessage(msg))
}

func listLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
