package models

// Settings is the singleton record stored at /settings
type Settings struct {
	WebsitePassword     string `json:"websitePassword"`
	PrivatePagePassword string `json:"privatePagePassword"`
	AdminPassword       string `json:"adminPassword"`
	WebsiteEnabled      bool   `json:"websiteEnabled"`
	APIEnabled          bool   `json:"apiEnabled"`
	// RateLimit is stored and editable but not enforced.
	RateLimit int `json:"rateLimit" binding:"gte=0"`
}

// DefaultSettings returns the settings materialized when none are stored
func DefaultSettings() Settings {
	return Settings{
		WebsitePassword:     "123456",
		PrivatePagePassword: "654321",
		AdminPassword:       "123456",
		WebsiteEnabled:      true,
		APIEnabled:          true,
		RateLimit:           100,
	}
}
