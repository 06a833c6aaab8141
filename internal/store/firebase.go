package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/logging"
)

// Firebase is a Store backed by the Firebase Realtime Database REST API.
// Every path maps to {baseURL}/{path}.json.
type Firebase struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewFirebase creates a Firebase REST store. authToken is optional and is
// sent as the auth query parameter.
func NewFirebase(baseURL, authToken string, httpClient *http.Client) *Firebase {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Firebase{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		httpClient: httpClient,
		logger:     logging.NewLogger("firebase"),
	}
}

func (f *Firebase) Get(ctx context.Context, path string, dst any) (bool, error) {
	data, err := f.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	if isNull(data) {
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return true, nil
}

func (f *Firebase) Put(ctx context.Context, path string, value any) error {
	_, err := f.do(ctx, http.MethodPut, path, value)
	return err
}

func (f *Firebase) Patch(ctx context.Context, path string, fields map[string]any) error {
	_, err := f.do(ctx, http.MethodPatch, path, fields)
	return err
}

func (f *Firebase) Delete(ctx context.Context, path string) error {
	_, err := f.do(ctx, http.MethodDelete, path, nil)
	return err
}

func (f *Firebase) List(ctx context.Context, path string) (map[string]json.RawMessage, error) {
	data, err := f.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage)
	if isNull(data) {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode children of %s: %w", path, err)
	}
	return out, nil
}

func (f *Firebase) endpoint(path string) (string, error) {
	segments, err := splitPath(path)
	if err != nil {
		return "", err
	}
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	endpoint := f.baseURL + "/" + strings.Join(escaped, "/") + ".json"
	if f.authToken != "" {
		endpoint += "?auth=" + url.QueryEscape(f.authToken)
	}
	return endpoint, nil
}

func (f *Firebase) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	endpoint, err := f.endpoint(path)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrUnavailable, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		f.logger.Error().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("body", logging.SanitizeForLog(string(data), 200)).
			Msg("Firebase request failed")
		return nil, fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, resp.StatusCode)
	}

	return data, nil
}
