// Package config loads burrow's configuration: file, environment, then
// flag overrides, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the runtime configuration.
type Config struct {
	// Root is the sandbox root directory.
	Root string `mapstructure:"root"`
	// AllowDirs are extra allowed directory roots beyond the defaults.
	AllowDirs []string `mapstructure:"allow_dirs"`
	// BlockDirs are extra blocked directory roots beyond the defaults.
	BlockDirs []string `mapstructure:"block_dirs"`
	// MaxFileSize is the direct-access size ceiling in bytes.
	MaxFileSize int64 `mapstructure:"max_file_size"`
	// FollowSymlinks permits symlinked paths. Off by default.
	FollowSymlinks bool `mapstructure:"follow_symlinks"`
	// RenameGeneric date-prefixes generically named arrivals.
	RenameGeneric bool `mapstructure:"rename_generic"`
	// Persist enables the SQLite snapshot and fast content tier.
	Persist bool `mapstructure:"persist"`
	// DBPath overrides the snapshot location (default <root>/.burrow/index.db).
	DBPath string `mapstructure:"db_path"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `mapstructure:"log_level"`
}

// Load reads ~/.burrow/config.yaml (if present) and BURROW_* environment
// variables, applying defaults for everything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".burrow"))
	}
	v.SetEnvPrefix("BURROW")
	v.AutomaticEnv()

	v.SetDefault("root", defaultRoot())
	v.SetDefault("max_file_size", 50<<20)
	v.SetDefault("rename_generic", true)
	v.SetDefault("persist", true)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; anything else is a real error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.Root, ".burrow", "index.db")
	}
	return &cfg, nil
}

func defaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Burrow"
	}
	return filepath.Join(home, "Burrow")
}
