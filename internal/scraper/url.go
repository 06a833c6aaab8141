package scraper

import (
	"regexp"
	"strings"
)

// Accepted TikTok URL shapes. Patterns are unanchored and applied to the
// trimmed input.
var tiktokPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://(www\.)?tiktok\.com/@[\w.-]+/video/\d+`),
	regexp.MustCompile(`https?://(www\.)?tiktok\.com/t/[\w-]+/`),
	regexp.MustCompile(`https?://(vm|vt)\.tiktok\.com/[\w-]+/`),
	regexp.MustCompile(`https?://(www\.)?tiktok\.com/embed/[\w-]+`),
	regexp.MustCompile(`https?://(www\.)?tiktok\.com/v/\d+\.html`),
	regexp.MustCompile(`https?://(www\.)?tiktok\.com/[\w@.-]+/video/\d+`),
}

// IsValidURL reports whether raw looks like a TikTok video, short link,
// embed or legacy /v/<id>.html URL. It never touches the network.
func IsValidURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	for _, p := range tiktokPatterns {
		if p.MatchString(raw) {
			return true
		}
	}
	return false
}
