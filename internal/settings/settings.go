package settings

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

// Password kinds accepted by VerifyPassword
const (
	KindWebsite = "website"
	KindPrivate = "private"
	KindAdmin   = "admin"
)

var (
	// ErrUnknownKind is returned for a password kind other than the three above
	ErrUnknownKind = errors.New("unknown password type")
	// ErrEmptyAdminPassword is returned when an update would blank the admin
	// password, which would lock every admin out
	ErrEmptyAdminPassword = errors.New("admin password must not be empty")
)

// UpdateRequest is a partial settings update. Nil fields keep their stored
// value.
type UpdateRequest struct {
	WebsitePassword     *string `json:"websitePassword"`
	PrivatePagePassword *string `json:"privatePagePassword"`
	AdminPassword       *string `json:"adminPassword"`
	WebsiteEnabled      *bool   `json:"websiteEnabled"`
	APIEnabled          *bool   `json:"apiEnabled"`
	RateLimit           *int    `json:"rateLimit" binding:"omitempty,gte=0"`
}

// Service reads and writes the settings singleton
type Service struct {
	store  store.Store
	logger zerolog.Logger
}

// NewService creates a new settings service
func NewService(st store.Store) *Service {
	return &Service{
		store:  st,
		logger: logging.NewLogger("settings"),
	}
}

// Get returns the stored settings. When nothing is stored yet the defaults
// are written and returned.
func (s *Service) Get(ctx context.Context) (*models.Settings, error) {
	var cur models.Settings
	found, err := s.store.Get(ctx, store.PathSettings, &cur)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if found {
		return &cur, nil
	}

	defaults := models.DefaultSettings()
	if err := s.store.Put(ctx, store.PathSettings, defaults); err != nil {
		return nil, fmt.Errorf("failed to store default settings: %w", err)
	}
	s.logger.Info().Msg("Initialized default settings")
	return &defaults, nil
}

// Update replaces the settings
func (s *Service) Update(ctx context.Context, next *models.Settings) (*models.Settings, error) {
	if err := s.store.Put(ctx, store.PathSettings, next); err != nil {
		return nil, fmt.Errorf("failed to store settings: %w", err)
	}
	s.logger.Info().
		Bool("website_enabled", next.WebsiteEnabled).
		Bool("api_enabled", next.APIEnabled).
		Int("rate_limit", next.RateLimit).
		Msg("Settings updated")
	return next, nil
}

// Apply merges the non-nil fields of req into the stored settings
func (s *Service) Apply(ctx context.Context, req *UpdateRequest) (*models.Settings, error) {
	if req.AdminPassword != nil && *req.AdminPassword == "" {
		return nil, ErrEmptyAdminPassword
	}

	cur, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	next := *cur
	if req.WebsitePassword != nil {
		next.WebsitePassword = *req.WebsitePassword
	}
	if req.PrivatePagePassword != nil {
		next.PrivatePagePassword = *req.PrivatePagePassword
	}
	if req.AdminPassword != nil {
		next.AdminPassword = *req.AdminPassword
	}
	if req.WebsiteEnabled != nil {
		next.WebsiteEnabled = *req.WebsiteEnabled
	}
	if req.APIEnabled != nil {
		next.APIEnabled = *req.APIEnabled
	}
	if req.RateLimit != nil {
		next.RateLimit = *req.RateLimit
	}
	return s.Update(ctx, &next)
}

// Reset restores the default settings
func (s *Service) Reset(ctx context.Context) (*models.Settings, error) {
	defaults := models.DefaultSettings()
	return s.Update(ctx, &defaults)
}

// VerifyPassword compares password with the stored password of the given kind
func (s *Service) VerifyPassword(ctx context.Context, kind, password string) (bool, error) {
	cur, err := s.Get(ctx)
	if err != nil {
		return false, err
	}

	var want string
	switch kind {
	case KindWebsite:
		want = cur.WebsitePassword
	case KindPrivate:
		want = cur.PrivatePagePassword
	case KindAdmin:
		want = cur.AdminPassword
	default:
		return false, ErrUnknownKind
	}

	if want == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(password)) == 1, nil
}
