package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rules = []string{"pet-available", "tutor-approved-limit"}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "/v0", cfg.Server.BasePath)
	assert.True(t, cfg.Notifications.Log)
	assert.False(t, cfg.Server.DevLogin)
	assert.Equal(t, 5, cfg.Notifications.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Notifications.DispatchInterval())
	require.NoError(t, cfg.Validate(rules))
}

func TestLoadOptionalMissingFile(t *testing.T) {
	cfg, err := LoadOptional(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOptionalOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`server:
  addr: 0.0.0.0:9000
notifications:
  webhooks:
    - url: https://hooks.example.com/adopet
      secret: s3cret
      kinds: [adoption.approved]
admission:
  disabled_rules: [pet-available]
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adopet.yml"), data, 0o644))
	cfg, err := LoadOptional(dir)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, "/v0", cfg.Server.BasePath)
	require.Len(t, cfg.Notifications.Webhooks, 1)
	assert.True(t, cfg.Notifications.Webhooks[0].Active())
	assert.Equal(t, []string{"pet-available"}, cfg.Admission.DisabledRules)
	require.NoError(t, cfg.Validate(rules))
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"base path":    func(c *Config) { c.Server.BasePath = "v0" },
		"auth secret":  func(c *Config) { c.Server.RequireAuth = true },
		"webhook url":  func(c *Config) { c.Notifications.Webhooks = []WebhookConfig{{URL: "ftp://x"}} },
		"empty url":    func(c *Config) { c.Notifications.Webhooks = []WebhookConfig{{}} },
		"unknown rule": func(c *Config) { c.Admission.DisabledRules = []string{"nope"} },
		"store rule":   func(c *Config) { c.Admission.DisabledRules = []string{"tutor-pending"} },
		"attempts":     func(c *Config) { c.Notifications.MaxAttempts = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate(rules))
		})
	}
}

func TestWebhookActive(t *testing.T) {
	off := false
	assert.False(t, WebhookConfig{URL: "http://x", Enabled: &off}.Active())
	assert.False(t, WebhookConfig{URL: "  "}.Active())
	assert.True(t, WebhookConfig{URL: "http://x"}.Active())
}

func TestFromYAMLInvalid(t *testing.T) {
	_, err := FromYAML([]byte("server: ["))
	assert.Error(t, err)
}
