package models

import "time"

// RequestLogEntry is one inbound download attempt, stored at /requests/{id}
type RequestLogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	APIKey    string    `json:"apiKey"`
	TikTokURL string    `json:"tiktokUrl"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	Referer   string    `json:"referer"`
	Method    string    `json:"method"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
}

// DownloadLogEntry is one media proxy download, stored at /downloads/{id}
type DownloadLogEntry struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	URL         string    `json:"url"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	IP          string    `json:"ip"`
	UserAgent   string    `json:"userAgent"`
	Referer     string    `json:"referer"`
}
