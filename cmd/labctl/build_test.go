package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setTestConfig(t *testing.T, c *Config) {
	t.Helper()
	prevCfg, prevLogger := cfg, logger
	cfg = c
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	t.Cleanup(func() { cfg, logger = prevCfg, prevLogger })
}

// =============================================================================
// Dashboard Auth Tests
// =============================================================================

func requireHtpasswdMatch(t *testing.T, entry, user, password string) {
	t.Helper()
	gotUser, hash, found := strings.Cut(entry, ":")
	require.True(t, found)
	assert.Equal(t, user, gotUser)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)))
}

func TestDashboardAuth_Disabled(t *testing.T) {
	setTestConfig(t, &Config{})

	entry, persist, err := dashboardAuth(nil)
	require.NoError(t, err)
	assert.Empty(t, entry)
	assert.Nil(t, persist)
}

func TestDashboardAuth_GeneratesAndPersists(t *testing.T) {
	setTestConfig(t, &Config{Proxy: ProxyConfig{DashboardUser: "admin"}})

	entry, persist, err := dashboardAuth(nil)
	require.NoError(t, err)

	password := persist[dashboardPasswordKey]
	require.NotEmpty(t, password, "generated password must be handed back for the env file")
	requireHtpasswdMatch(t, entry, "admin", password)
}

func TestDashboardAuth_ReusesPreviousPassword(t *testing.T) {
	setTestConfig(t, &Config{Proxy: ProxyConfig{DashboardUser: "admin"}})

	entry, persist, err := dashboardAuth(map[string]string{
		dashboardPasswordKey: "previous-build-password",
	})
	require.NoError(t, err)

	// The carried-over password keeps the hash stable across rebuilds.
	assert.Equal(t, "previous-build-password", persist[dashboardPasswordKey])
	requireHtpasswdMatch(t, entry, "admin", "previous-build-password")
}

func TestDashboardAuth_ConfiguredPasswordNotPersisted(t *testing.T) {
	setTestConfig(t, &Config{Proxy: ProxyConfig{
		DashboardUser:     "admin",
		DashboardPassword: "from-config",
	}})

	entry, persist, err := dashboardAuth(nil)
	require.NoError(t, err)

	// Config-supplied secrets stay in the config, not the env file.
	assert.Nil(t, persist)
	requireHtpasswdMatch(t, entry, "admin", "from-config")
}

// =============================================================================
// Exit Code Tests
// =============================================================================

func TestRun_ConfigErrorExitCode(t *testing.T) {
	rootCmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "catalog"})
	assert.Equal(t, ExitConfigError, run())
	assert.Equal(t, 1, ExitConfigError)
}

func TestRun_BuildErrorExitCode(t *testing.T) {
	// Valid (default) config, but the templates directory does not exist.
	rootCmd.SetArgs([]string{"--config", "", "catalog"})
	assert.Equal(t, ExitBuildError, run())
	assert.Equal(t, 2, ExitBuildError)
}
