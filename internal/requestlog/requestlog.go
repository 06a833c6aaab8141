// Package requestlog persists download attempts, per-key usage counters and
// media proxy downloads. Writes happen off the request path; a failed write
// is logged and never reaches the client.
package requestlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/models"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/monitoring"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

// DefaultTimeout bounds each background write
const DefaultTimeout = 5 * time.Second

// Entry describes one download attempt
type Entry struct {
	APIKey    string
	TikTokURL string
	IP        string
	UserAgent string
	Referer   string
	Method    string
	Success   bool
	Error     string
	RequestID string
	// Counted is set when the key passed validation; only then are the key's
	// counters and usage record incremented.
	Counted bool
}

// DownloadEntry describes one media proxy download
type DownloadEntry struct {
	URL         string
	Filename    string
	ContentType string
	IP          string
	UserAgent   string
	Referer     string
}

// Logger writes request and download logs to the store
type Logger struct {
	store   store.Store
	now     func() time.Time
	timeout time.Duration
	wg      sync.WaitGroup
	log     zerolog.Logger
}

// New creates a request logger
func New(st store.Store) *Logger {
	return &Logger{
		store:   st,
		now:     time.Now,
		timeout: DefaultTimeout,
		log:     logging.NewLogger("requestlog"),
	}
}

// Record stores the entry under /requests and, for counted entries, updates
// the key's totals and its usage record.
func (l *Logger) Record(ctx context.Context, e Entry) error {
	now := l.now().UTC()

	rec := models.RequestLogEntry{
		ID:        uuid.NewString(),
		Timestamp: now,
		APIKey:    logging.RedactKey(e.APIKey),
		TikTokURL: e.TikTokURL,
		IP:        e.IP,
		UserAgent: e.UserAgent,
		Referer:   e.Referer,
		Method:    e.Method,
		Success:   e.Success,
		Error:     e.Error,
		RequestID: e.RequestID,
	}

	var errs []error
	if err := l.store.Put(ctx, store.Join(store.PathRequests, rec.ID), rec); err != nil {
		monitoring.RecordLogFailure("request")
		errs = append(errs, fmt.Errorf("request log: %w", err))
	}

	if e.Counted && e.APIKey != "" {
		if err := l.incrementKey(ctx, e.APIKey, now); err != nil {
			monitoring.RecordLogFailure("key_counter")
			errs = append(errs, fmt.Errorf("key counter: %w", err))
		}
		if err := l.incrementUsage(ctx, e.APIKey, now); err != nil {
			monitoring.RecordLogFailure("usage")
			errs = append(errs, fmt.Errorf("usage: %w", err))
		}
	}

	return errors.Join(errs...)
}

func (l *Logger) incrementKey(ctx context.Context, key string, now time.Time) error {
	path := store.Join(store.PathAPIKeys, key)
	var rec models.APIKey
	found, err := l.store.Get(ctx, path, &rec)
	if err != nil {
		return err
	}
	if !found {
		// deleted in the meantime
		return nil
	}
	return l.store.Patch(ctx, path, map[string]any{
		"totalRequests": rec.TotalRequests + 1,
		"lastUsed":      now,
	})
}

func (l *Logger) incrementUsage(ctx context.Context, key string, now time.Time) error {
	path := store.Join(store.PathUsage, key)
	usage := models.UsageRecord{Days: map[string]int64{}}
	if _, err := l.store.Get(ctx, path, &usage); err != nil {
		return err
	}
	usage.Increment(now)
	return l.store.Put(ctx, path, usage)
}

// RecordDownload stores a media proxy download under /downloads
func (l *Logger) RecordDownload(ctx context.Context, d DownloadEntry) error {
	rec := models.DownloadLogEntry{
		ID:          uuid.NewString(),
		Timestamp:   l.now().UTC(),
		URL:         d.URL,
		Filename:    d.Filename,
		ContentType: d.ContentType,
		IP:          d.IP,
		UserAgent:   d.UserAgent,
		Referer:     d.Referer,
	}
	if err := l.store.Put(ctx, store.Join(store.PathDownloads, rec.ID), rec); err != nil {
		monitoring.RecordLogFailure("download")
		return fmt.Errorf("download log: %w", err)
	}
	return nil
}

// Go records the entry in the background with its own timeout
func (l *Logger) Go(e Entry) {
	l.background("request", func(ctx context.Context) error {
		return l.Record(ctx, e)
	})
}

// GoDownload records the download in the background with its own timeout
func (l *Logger) GoDownload(d DownloadEntry) {
	l.background("download", func(ctx context.Context) error {
		return l.RecordDownload(ctx, d)
	})
}

// Wait blocks until all background writes have finished
func (l *Logger) Wait() {
	l.wg.Wait()
}

func (l *Logger) background(kind string, fn func(ctx context.Context) error) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				monitoring.RecordLogFailure("panic")
				l.log.Error().Interface("panic", r).Str("kind", kind).Msg("Background log write panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			l.log.Error().Err(err).Str("kind", kind).Msg("Failed to write log")
		}
	}()
}

// Recent returns up to limit request log entries, newest first
func (l *Logger) Recent(ctx context.Context, limit int) ([]models.RequestLogEntry, error) {
	children, err := l.store.List(ctx, store.PathRequests)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	entries := decodeAll[models.RequestLogEntry](children)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return truncate(entries, limit), nil
}

// RecentDownloads returns up to limit download log entries, newest first
func (l *Logger) RecentDownloads(ctx context.Context, limit int) ([]models.DownloadLogEntry, error) {
	children, err := l.store.List(ctx, store.PathDownloads)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	entries := decodeAll[models.DownloadLogEntry](children)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return truncate(entries, limit), nil
}

// DeleteAll removes every request log entry
func (l *Logger) DeleteAll(ctx context.Context) error {
	if err := l.store.Delete(ctx, store.PathRequests); err != nil {
		return fmt.Errorf("failed to delete requests: %w", err)
	}
	l.log.Warn().Msg("Request log cleared")
	return nil
}

// DeleteDownloads removes every download log entry
func (l *Logger) DeleteDownloads(ctx context.Context) error {
	if err := l.store.Delete(ctx, store.PathDownloads); err != nil {
		return fmt.Errorf("failed to delete downloads: %w", err)
	}
	return nil
}

func decodeAll[T any](children map[string]json.RawMessage) []T {
	out := make([]T, 0, len(children))
	for _, raw := range children {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

func truncate[T any](entries []T, limit int) []T {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}
