package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sweetxhasan/TIKTOK-SAVER-PRO/internal/store"
)

func adminToken(t *testing.T, srv *APIServer) map[string]string {
	t.Helper()
	w := do(srv.Router(), http.MethodPost, "/api/verify-password", `{"password":"123456","type":"admin"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "Bearer", body["tokenType"])
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAdmin_RequiresToken(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), "http://127.0.0.1:1")

	for _, h := range []map[string]string{
		nil,
		{"Authorization": "Bearer not-a-token"},
		{"Authorization": "Basic abc"},
	} {
		w := do(srv.Router(), http.MethodGet, "/api/admin/keys", "", h)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
}

func TestAdmin_Settings(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), "http://127.0.0.1:1")
	auth := adminToken(t, srv)

	w := do(srv.Router(), http.MethodGet, "/api/admin/settings", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	settings := decode(t, w)["settings"].(map[string]any)
	assert.Equal(t, true, settings["apiEnabled"])

	payload := `{"websitePassword":"a","privatePagePassword":"b","adminPassword":"123456",` +
		`"websiteEnabled":true,"apiEnabled":false,"rateLimit":5}`
	w = do(srv.Router(), http.MethodPut, "/api/admin/settings", payload, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(srv.Router(), http.MethodGet, "/api/status", "", nil)
	assert.Equal(t, false, decode(t, w)["apiEnabled"])

	w = do(srv.Router(), http.MethodPut, "/api/admin/settings", `{"rateLimit":-1}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_KeyLifecycle(t *testing.T) {
	st := store.NewMemory()
	srv := newTestServer(t, st, "http://127.0.0.1:1")
	auth := adminToken(t, srv)

	w := do(srv.Router(), http.MethodPost, "/api/generate-key", `{"keyName":"mine","apiKey":"`+testKey+`"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(srv.Router(), http.MethodGet, "/api/admin/keys", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["total"])

	w = do(srv.Router(), http.MethodPatch, "/api/admin/keys/"+testKey, `{"name":"renamed","isActive":false}`, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	key := decode(t, w)["key"].(map[string]any)
	assert.Equal(t, "renamed", key["name"])
	assert.Equal(t, false, key["isActive"])

	assert.False(t, srv.keys.Validator().Validate(context.Background(), testKey))

	w = do(srv.Router(), http.MethodGet, "/api/admin/keys/"+testKey+"/usage", "", auth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(srv.Router(), http.MethodDelete, "/api/admin/keys/"+testKey, "", auth)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(srv.Router(), http.MethodGet, "/api/admin/keys/"+testKey, "", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdmin_RequestsAndInit(t *testing.T) {
	st := store.NewMemory()
	putKey(t, st, testKey)
	upstream := newUpstream(t, okBody)
	srv := newTestServer(t, st, upstream.URL)
	auth := adminToken(t, srv)

	w := do(srv.Router(), http.MethodGet, downloadTarget(testKey, testVideoURL), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	srv.Drain()

	w = do(srv.Router(), http.MethodGet, "/api/admin/requests?limit=10", "", auth)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, float64(1), body["total"])
	entry := body["requests"].([]any)[0].(map[string]any)
	assert.NotEqual(t, testKey, entry["apiKey"])

	w = do(srv.Router(), http.MethodGet, "/api/admin/circuit-breakers", "", auth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(srv.Router(), http.MethodPost, "/api/admin/init-database", "", auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(srv.Router(), http.MethodGet, "/api/admin/requests", "", auth)
	assert.Equal(t, float64(0), decode(t, w)["total"])
	w = do(srv.Router(), http.MethodGet, "/api/admin/keys", "", auth)
	assert.Equal(t, float64(0), decode(t, w)["total"])
}

func TestAdmin_PartialSettingsUpdate(t *testing.T) {
	srv := newTestServer(t, store.NewMemory(), "http://127.0.0.1:1")
	auth := adminToken(t, srv)

	w := do(srv.Router(), http.MethodPut, "/api/admin/settings", `{"rateLimit":5}`, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	settings := decode(t, w)["settings"].(map[string]any)
	assert.Equal(t, float64(5), settings["rateLimit"])
	assert.Equal(t, "123456", settings["adminPassword"])
	assert.Equal(t, true, settings["apiEnabled"])
	assert.Equal(t, true, settings["websiteEnabled"])

	// the admin can still log in
	adminToken(t, srv)

	w = do(srv.Router(), http.MethodPut, "/api/admin/settings", `{"adminPassword":""}`, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	adminToken(t, srv)
}
