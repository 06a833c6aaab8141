package apikey

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/monitoring"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

const (
	// KeyPrefix starts every API key
	KeyPrefix = "hasan_key_"
	// MinKeyLength is the shortest accepted key, prefix included
	MinKeyLength = 30
)

// ValidFormat reports whether key has the API key shape. It performs no I/O.
// Keys may only use letters, digits, '_' and '-' as they double as store
// path segments.
func ValidFormat(key string) bool {
	if len(key) < MinKeyLength || !strings.HasPrefix(key, KeyPrefix) {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// Validator decides whether an API key may be used
type Validator struct {
	store  store.Store
	now    func() time.Time
	logger zerolog.Logger
}

// NewValidator creates a key validator over the given store
func NewValidator(st store.Store) *Validator {
	return &Validator{
		store:  st,
		now:    time.Now,
		logger: logging.NewLogger("apikey"),
	}
}

// Validate returns true only for a well-formed key whose record exists, is
// active and has not expired. An expired key is deactivated in the store as
// a side effect. Store failures count as invalid.
func (v *Validator) Validate(ctx context.Context, key string) bool {
	if !ValidFormat(key) {
		monitoring.RecordKeyValidation("bad_format")
		return false
	}

	var rec models.APIKey
	found, err := v.store.Get(ctx, store.Join(store.PathAPIKeys, key), &rec)
	if err != nil {
		v.logger.Error().Err(err).Str("key", logging.RedactKey(key)).Msg("Failed to load API key")
		monitoring.RecordKeyValidation("store_error")
		return false
	}
	if !found {
		monitoring.RecordKeyValidation("not_found")
		return false
	}
	if !rec.IsActive {
		monitoring.RecordKeyValidation("inactive")
		return false
	}

	if rec.Expired(v.now()) {
		err := v.store.Patch(ctx, store.Join(store.PathAPIKeys, key), map[string]any{"isActive": false})
		if err != nil {
			v.logger.Error().Err(err).Str("key", logging.RedactKey(key)).Msg("Failed to deactivate expired API key")
		} else {
			v.logger.Info().Str("key", logging.RedactKey(key)).Msg("Deactivated expired API key")
		}
		monitoring.RecordKeyValidation("expired")
		return false
	}

	monitoring.RecordKeyValidation("valid")
	return true
}
