package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/apikey"
	apierrors "github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/errors"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/settings"
)

// verifyPasswordRequest represents a password check for one of the gated pages
type verifyPasswordRequest struct {
	Password string `json:"password" form:"password" binding:"required"`
	Type     string `json:"type" form:"type" binding:"omitempty,oneof=website private admin"`
}

// handleGenerateKey creates a new API key
func (s *APIServer) handleGenerateKey(c *gin.Context) {
	var req apikey.CreateRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, apierrors.NewInvalidRequestError(
			"Key name is required and API key must start with \"hasan_key_\" and be at least 30 characters long"))
		return
	}

	created, err := s.keys.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, apikey.ErrAPIKeyExists):
			respondError(c, apierrors.ErrKeyExistsError)
		case errors.Is(err, apikey.ErrNameRequired),
			errors.Is(err, apikey.ErrInvalidAPIKey),
			errors.Is(err, apikey.ErrInvalidExpiry):
			respondError(c, apierrors.NewInvalidRequestError(err.Error()))
		default:
			s.logger.Error().Err(err).Msg("Failed to create API key")
			respondError(c, apierrors.ErrInternalServerError.WithMessage("Failed to generate API key"))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "API key generated successfully",
		"apiKey":  created.Key,
		"data":    created,
	})
}

// handleVerifyPassword checks a page password. A correct admin password also
// yields an admin session token.
func (s *APIServer) handleVerifyPassword(c *gin.Context) {
	var req verifyPasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Password is required and type must be website, private or admin"))
		return
	}
	if req.Type == "" {
		req.Type = settings.KindWebsite
	}

	ok, err := s.settings.VerifyPassword(c.Request.Context(), req.Type, req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to verify password")
		respondError(c, apierrors.ErrInternalServerError)
		return
	}
	if !ok {
		logging.LogSecurityEvent("invalid_password", c.ClientIP(), req.Type)
		respondError(c, apierrors.ErrInvalidPasswordError)
		return
	}

	if req.Type != settings.KindAdmin {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	token, err := s.authService.IssueAdminToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue admin token")
		respondError(c, apierrors.ErrInternalServerError)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"token":     token.AccessToken,
		"expiresAt": token.ExpiresAt,
		"tokenType": token.TokenType,
	})
}
