package models

import "time"

// APIKey is the record stored at /apiKeys/{key}. The key string itself is the
// record id and is not repeated in the document.
type APIKey struct {
	Name          string     `json:"name"`
	CreatedAt     time.Time  `json:"createdAt"`
	IsActive      bool       `json:"isActive"`
	TotalRequests int64      `json:"totalRequests"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	IsUnlimited   bool       `json:"isUnlimited,omitempty"`
	LastUsed      *time.Time `json:"lastUsed,omitempty"`
}

// Expired reports whether the key has an expiration in the past.
// Unlimited keys never expire.
func (k *APIKey) Expired(now time.Time) bool {
	if k.IsUnlimited || k.ExpiresAt == nil {
		return false
	}
	return k.ExpiresAt.Before(now)
}

// Usable reports whether the key may be used for requests at the given time
func (k *APIKey) Usable(now time.Time) bool {
	return k.IsActive && !k.Expired(now)
}

// APIKeyView is an APIKey together with its id, as listed by the admin API
type APIKeyView struct {
	Key string `json:"key"`
	APIKey
}
