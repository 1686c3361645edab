package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "standard", cfg.Profile)
	assert.Equal(t, "lab.localhost", cfg.Domain)
	assert.Equal(t, "./templates", cfg.Templates)
	assert.Equal(t, "./deploy", cfg.Output)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "traefik", cfg.Proxy.Service)
	assert.Equal(t, "traefik", cfg.Proxy.Network)
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `
profile: minimal
domain: home.example.net
email: op@example.net
templates_dir: /srv/templates
log:
  level: debug
  format: json
proxy:
  dashboard_user: admin
services:
  grafana:
    enabled: true
    fields:
      admin_user: operator
  postgres:
    enabled: false
`
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, "minimal", cfg.Profile)
	assert.Equal(t, "home.example.net", cfg.Domain)
	assert.Equal(t, "/srv/templates", cfg.Templates)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "admin", cfg.Proxy.DashboardUser)

	require.Contains(t, cfg.Services, "grafana")
	assert.True(t, cfg.Services["grafana"].Enabled)
	assert.Equal(t, "operator", cfg.Services["grafana"].Fields["admin_user"])
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("profile: [unclosed"), 0o644))

	_, err := LoadConfig(tmpFile)
	assert.Error(t, err)
}

func TestConfig_EnabledServices(t *testing.T) {
	cfg := &Config{
		Services: map[string]ServiceConfig{
			"grafana":  {Enabled: true},
			"postgres": {Enabled: false},
			"traefik":  {Enabled: true},
		},
	}
	assert.Equal(t, []string{"grafana", "traefik"}, cfg.EnabledServices())
}

func TestSetupLogger_Formats(t *testing.T) {
	logger := SetupLogger(&Config{Log: LogConfig{Level: "debug", Format: "json"}})
	assert.NotNil(t, logger)

	logger = SetupLogger(&Config{Log: LogConfig{Level: "warn", Format: "text"}})
	assert.NotNil(t, logger)
}
