package apikey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/monitoring"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

// Service errors
var (
	ErrAPIKeyNotFound = errors.New("API key not found")
	ErrAPIKeyExists   = errors.New("API key already exists")
	ErrInvalidAPIKey  = errors.New("invalid API key format")
	ErrNameRequired   = errors.New("key name is required")
	ErrInvalidExpiry  = errors.New("expiresInDays must not be negative")
)

// Service manages API key records
type Service struct {
	store     store.Store
	validator *Validator
	now       func() time.Time
	logger    zerolog.Logger
}

// NewService creates a new API key service
func NewService(st store.Store) *Service {
	validator := NewValidator(st)
	return &Service{
		store:     st,
		validator: validator,
		now:       validator.now,
		logger:    logging.NewLogger("apikey"),
	}
}

// setClock replaces the clock of the service and its validator
func (s *Service) setClock(now func() time.Time) {
	s.now = now
	s.validator.now = now
}

// Validator returns the key validator sharing this service's store
func (s *Service) Validator() *Validator {
	return s.validator
}

// CreateRequest represents a key-generation request. APIKey is optional;
// a key is generated when it is empty.
type CreateRequest struct {
	KeyName       string `json:"keyName" form:"keyName" binding:"required"`
	APIKey        string `json:"apiKey" form:"apiKey" binding:"omitempty,apikey"`
	ExpiresInDays int    `json:"expiresInDays" form:"expiresInDays" binding:"min=0,max=36500"`
	IsUnlimited   bool   `json:"isUnlimited" form:"isUnlimited"`
}

// UpdateRequest holds the admin-editable fields of a key. Nil fields are left
// untouched; ClearExpiry removes the expiration.
type UpdateRequest struct {
	Name        *string    `json:"name"`
	IsActive    *bool      `json:"isActive"`
	IsUnlimited *bool      `json:"isUnlimited"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	ClearExpiry bool       `json:"clearExpiry"`
}

// Create stores a new key. The existence check and the write are not atomic;
// two concurrent requests for the same key both succeed and the last one wins.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*models.APIKeyView, error) {
	name := strings.TrimSpace(req.KeyName)
	if name == "" {
		return nil, ErrNameRequired
	}
	if req.ExpiresInDays < 0 {
		return nil, ErrInvalidExpiry
	}

	key := strings.TrimSpace(req.APIKey)
	if key == "" {
		generated, err := Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		key = generated
	}
	if !ValidFormat(key) {
		return nil, ErrInvalidAPIKey
	}

	path := store.Join(store.PathAPIKeys, key)
	var existing models.APIKey
	found, err := s.store.Get(ctx, path, &existing)
	if err != nil {
		return nil, fmt.Errorf("failed to check key: %w", err)
	}
	if found {
		return nil, ErrAPIKeyExists
	}

	now := s.now().UTC()
	rec := models.APIKey{
		Name:          name,
		CreatedAt:     now,
		IsActive:      true,
		TotalRequests: 0,
		IsUnlimited:   req.IsUnlimited,
	}
	if !req.IsUnlimited && req.ExpiresInDays > 0 {
		expires := now.AddDate(0, 0, req.ExpiresInDays)
		rec.ExpiresAt = &expires
	}

	if err := s.store.Put(ctx, path, rec); err != nil {
		return nil, fmt.Errorf("failed to store key: %w", err)
	}

	monitoring.RecordKeyCreated()
	s.logger.Info().
		Str("key", logging.RedactKey(key)).
		Str("name", name).
		Bool("unlimited", rec.IsUnlimited).
		Msg("API key created")

	return &models.APIKeyView{Key: key, APIKey: rec}, nil
}

// Get returns a single key record
func (s *Service) Get(ctx context.Context, key string) (*models.APIKeyView, error) {
	if !ValidFormat(key) {
		return nil, ErrAPIKeyNotFound
	}
	var rec models.APIKey
	found, err := s.store.Get(ctx, store.Join(store.PathAPIKeys, key), &rec)
	if err != nil {
		return nil, fmt.Errorf("failed to load key: %w", err)
	}
	if !found {
		return nil, ErrAPIKeyNotFound
	}
	return &models.APIKeyView{Key: key, APIKey: rec}, nil
}

// List returns every key, newest first
func (s *Service) List(ctx context.Context) ([]models.APIKeyView, error) {
	children, err := s.store.List(ctx, store.PathAPIKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys := make([]models.APIKeyView, 0, len(children))
	for key, raw := range children {
		var rec models.APIKey
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn().Err(err).Str("key", logging.RedactKey(key)).Msg("Skipping malformed API key record")
			continue
		}
		keys = append(keys, models.APIKeyView{Key: key, APIKey: rec})
	}

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CreatedAt.Equal(keys[j].CreatedAt) {
			return keys[i].Key < keys[j].Key
		}
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

// Update patches the given fields of one key record
func (s *Service) Update(ctx context.Context, key string, req *UpdateRequest) (*models.APIKeyView, error) {
	if _, err := s.Get(ctx, key); err != nil {
		return nil, err
	}

	fields := make(map[string]any)
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrNameRequired
		}
		fields["name"] = name
	}
	if req.IsActive != nil {
		fields["isActive"] = *req.IsActive
	}
	if req.IsUnlimited != nil {
		fields["isUnlimited"] = *req.IsUnlimited
	}
	switch {
	case req.ClearExpiry:
		fields["expiresAt"] = nil
	case req.ExpiresAt != nil:
		fields["expiresAt"] = req.ExpiresAt.UTC()
	}

	if len(fields) > 0 {
		if err := s.store.Patch(ctx, store.Join(store.PathAPIKeys, key), fields); err != nil {
			return nil, fmt.Errorf("failed to update key: %w", err)
		}
		s.logger.Info().Str("key", logging.RedactKey(key)).Int("fields", len(fields)).Msg("API key updated")
	}

	return s.Get(ctx, key)
}

// Delete removes a key and its usage record
func (s *Service) Delete(ctx context.Context, key string) error {
	if _, err := s.Get(ctx, key); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.Join(store.PathAPIKeys, key)); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	if err := s.store.Delete(ctx, store.Join(store.PathUsage, key)); err != nil {
		return fmt.Errorf("failed to delete usage: %w", err)
	}
	s.logger.Info().Str("key", logging.RedactKey(key)).Msg("API key deleted")
	return nil
}

// DeleteAll removes every key and every usage record
func (s *Service) DeleteAll(ctx context.Context) error {
	if err := s.store.Delete(ctx, store.PathAPIKeys); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	if err := s.store.Delete(ctx, store.PathUsage); err != nil {
		return fmt.Errorf("failed to delete usage: %w", err)
	}
	s.logger.Warn().Msg("All API keys deleted")
	return nil
}

// Usage returns the usage record of a key; a key never used has an empty one
func (s *Service) Usage(ctx context.Context, key string) (*models.UsageRecord, error) {
	if _, err := s.Get(ctx, key); err != nil {
		return nil, err
	}
	usage := &models.UsageRecord{Days: map[string]int64{}}
	if _, err := s.store.Get(ctx, store.Join(store.PathUsage, key), usage); err != nil {
		return nil, fmt.Errorf("failed to load usage: %w", err)
	}
	return usage, nil
}
