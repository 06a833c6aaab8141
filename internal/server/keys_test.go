package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

func TestGenerateKey(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), "http://127.0.0.1:1")
	payload := `{"keyName":"mine","apiKey":"` + testKey + `"}`

	w := do(srv.Router(), http.MethodPost, "/api/generate-key", payload, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, testKey, decode(t, w)["apiKey"])

	w = do(srv.Router(), http.MethodPost, "/api/generate-key", payload, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestGenerateKey_Generated(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), "http://127.0.0.1:1")

	w := do(srv.Router(), http.MethodPost, "/api/generate-key", `{"keyName":"mine"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	key, _ := decode(t, w)["apiKey"].(string)
	assert.True(t, strings.HasPrefix(key, "hasan_key_"), key)
}

func TestGenerateKey_Rejects(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), "http://127.0.0.1:1")

	tests := []struct {
		name    string
		payload string
	}{
		{"missing name", `{"apiKey":"` + testKey + `"}`},
		{"bad key", `{"keyName":"mine","apiKey":"hasan_key_short"}`},
		{"negative expiry", `{"keyName":"mine","expiresInDays":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv.Router(), http.MethodPost, "/api/generate-key", tt.payload, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestVerifyPassword(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), "http://127.0.0.1:1")

	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"website default", `{"password":"123456"}`, http.StatusOK},
		{"private", `{"password":"654321","type":"private"}`, http.StatusOK},
		{"wrong", `{"password":"nope","type":"website"}`, http.StatusUnauthorized},
		{"unknown type", `{"password":"123456","type":"root"}`, http.StatusBadRequest},
		{"missing", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(srv.Router(), http.MethodPost, "/api/verify-password", tt.payload, nil)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}
