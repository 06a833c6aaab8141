package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "https://www.tikwm.com", cfg.Upstream.BaseURL)
	assert.Contains(t, cfg.Proxy.AllowedHosts, "tiktokcdn.com")
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
  public_url: https://file.example.com
upstream:
  timeout: 10s
proxy:
  allowed_hosts: [example.org]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "9100")
	t.Setenv("PROXY_ALLOWED_HOSTS", "a.com, b.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "https://file.example.com", cfg.Server.PublicURL)
	assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"a.com", "b.com"}, cfg.Proxy.AllowedHosts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"production without secret", func(c *Config) { c.Server.Env = "production" }, true},
		{"production with secret", func(c *Config) {
			c.Server.Env = "production"
			c.Admin.JWTSecret = "s3cret"
		}, false},
		{"firebase without url", func(c *Config) { c.Store.Driver = StoreFirebase }, true},
		{"firebase with url", func(c *Config) {
			c.Store.Driver = StoreFirebase
			c.Store.FirebaseURL = "https://x.firebaseio.com"
		}, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, true},
		{"zero upstream timeout", func(c *Config) { c.Upstream.Timeout = 0 }, true},
		{"empty allow-list", func(c *Config) { c.Proxy.AllowedHosts = nil }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "45")
	assert.Equal(t, 45*time.Second, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "1m30s")
	assert.Equal(t, 90*time.Second, getEnvDuration("TEST_DURATION", time.Second))

	t.Setenv("TEST_DURATION", "bogus")
	assert.Equal(t, time.Second, getEnvDuration("TEST_DURATION", time.Second))
}
