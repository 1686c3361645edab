package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all build configuration: the global deployment context plus
// the per-service selection and field values.
type Config struct {
	Profile   string                   `mapstructure:"profile"`
	Domain    string                   `mapstructure:"domain"`
	Email     string                   `mapstructure:"email"`
	Templates string                   `mapstructure:"templates_dir"`
	Output    string                   `mapstructure:"output_dir"`
	Log       LogConfig                `mapstructure:"log"`
	Proxy     ProxyConfig              `mapstructure:"proxy"`
	Services  map[string]ServiceConfig `mapstructure:"services"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProxyConfig holds reverse-proxy configuration.
type ProxyConfig struct {
	// Service names the catalog entry acting as the reverse proxy.
	Service string `mapstructure:"service"`
	// Network is the shared network routed containers join.
	Network string `mapstructure:"network"`
	// DashboardUser enables the proxy dashboard with basic auth when set.
	DashboardUser     string `mapstructure:"dashboard_user"`
	DashboardPassword string `mapstructure:"dashboard_password"`
}

// ServiceConfig is one service selection with its field values.
type ServiceConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Fields  map[string]any `mapstructure:"fields"`
}

// EnabledServices returns the ids of enabled services, sorted for stable
// resolution input.
func (c *Config) EnabledServices() []string {
	var ids []string
	for id, svc := range c.Services {
		if svc.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("profile", "standard")
	v.SetDefault("domain", "lab.localhost")
	v.SetDefault("email", "")
	v.SetDefault("templates_dir", "./templates")
	v.SetDefault("output_dir", "./deploy")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("proxy.service", "traefik")
	v.SetDefault("proxy.network", "traefik")
	v.SetDefault("proxy.dashboard_user", "")
	v.SetDefault("proxy.dashboard_password", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("labctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/labctl")
	}

	v.SetEnvPrefix("LABCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
