// Package config holds mailboxctl configuration, read through viper from
// flags, MAILBOX_* environment variables and an optional config file.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete mailboxctl configuration
type Config struct {
	Texture TextureConfig `mapstructure:"texture"`
	Bitmap  BitmapConfig  `mapstructure:"bitmap"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TextureConfig controls texture allocation
type TextureConfig struct {
	// Allocator selects texture memory: "auto", "software" or "wgpu".
	// "auto" uses wgpu when a device can be opened, software otherwise.
	Allocator string `mapstructure:"allocator"`
	// BudgetMB limits texel memory per context group (0 = unlimited)
	BudgetMB int `mapstructure:"budget_mb"`
	// Target is the binding target textures are shared under
	// Options: "2d", "external", "rectangle"
	Target string `mapstructure:"target"`
}

// BitmapConfig controls decoded pixel storage
type BitmapConfig struct {
	// PoolBudgetMB is the discardable pool size for decoded pixels (0 = unlimited)
	PoolBudgetMB int `mapstructure:"pool_budget_mb"`
}

// LoggingConfig controls diagnostic output
type LoggingConfig struct {
	// Level is the minimum level logged: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Format is "text" or "json"
	Format string `mapstructure:"format"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Texture: TextureConfig{
			Allocator: "auto",
			BudgetMB:  512,
			Target:    "2d",
		},
		Bitmap: BitmapConfig{
			PoolBudgetMB: 256,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// SetDefaults registers every default with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("texture.allocator", defaults.Texture.Allocator)
	viper.SetDefault("texture.budget_mb", defaults.Texture.BudgetMB)
	viper.SetDefault("texture.target", defaults.Texture.Target)

	viper.SetDefault("bitmap.pool_budget_mb", defaults.Bitmap.PoolBudgetMB)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailboxctl")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mailboxctl"
	}
	return filepath.Join(home, ".config", "mailboxctl")
}

// ConfigFile returns the path to the default config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// NewLogger builds a logger writing to w at the configured level and format
func (c *LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// SlogLevel returns the configured level, defaulting to warn
func (c *LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
