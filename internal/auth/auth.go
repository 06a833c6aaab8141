// Package auth issues and validates the short-lived admin session tokens
// handed out after a successful admin password check.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/config"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
)

const (
	// SubjectAdmin is the subject of every admin token
	SubjectAdmin = "admin"
	issuer       = "tiksaver"
)

// Service handles admin token operations
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService creates a new auth service. Without a configured secret a random
// one is generated, so tokens do not survive a restart.
func NewService(cfg *config.AdminConfig) (*Service, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate token secret: %w", err)
		}
		logger := logging.NewLogger("auth")
		logger.Warn().Msg("ADMIN_JWT_SECRET not set, using a random per-process secret")
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &Service{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Claims represents admin JWT claims
type Claims struct {
	jwt.RegisteredClaims
}

// Token is an issued admin session token
type Token struct {
	AccessToken string    `json:"token"`
	ExpiresAt   time.Time `json:"expiresAt"`
	TokenType   string    `json:"tokenType"`
}

// IssueAdminToken signs a new admin session token
func (s *Service) IssueAdminToken() (*Token, error) {
	now := s.now()
	expiry := now.Add(s.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   SubjectAdmin,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
			ID:        generateJTI(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign admin token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		ExpiresAt:   expiry,
		TokenType:   "Bearer",
	}, nil
}

// ValidateAdminToken validates an admin token and returns its claims
func (s *Service) ValidateAdminToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject != SubjectAdmin {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// generateJTI generates a unique JWT ID
func generateJTI() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
