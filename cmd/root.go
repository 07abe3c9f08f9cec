package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"burrow/internal/config"
	"burrow/internal/sandbox"
	"burrow/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagRoot     string
	flagDB       string
	flagNoRename bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Sandboxed file indexing and relevance search",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "sandbox root directory (default ~/Burrow)")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "snapshot database path (default <root>/.burrow/index.db)")
	rootCmd.PersistentFlags().BoolVar(&flagNoRename, "no-rename", false, "keep generic capture names as-is")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// loadConfig merges the config file and environment with flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagRoot != "" {
		abs, err := filepath.Abs(flagRoot)
		if err != nil {
			return nil, err
		}
		cfg.Root = abs
		cfg.DBPath = filepath.Join(abs, ".burrow", "index.db")
	}
	if flagDB != "" {
		cfg.DBPath = flagDB
	}
	if flagNoRename {
		cfg.RenameGeneric = false
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// ensureRoot creates the sandbox root before the guard canonicalizes it,
// so the allow-list entry resolves to the same path the index uses.
func ensureRoot(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return fmt.Errorf("create sandbox root: %w", err)
	}
	return nil
}

func newGuard(cfg *config.Config) *sandbox.Guard {
	policy := sandbox.DefaultPolicy(cfg.Root)
	policy.Allow = append(policy.Allow, cfg.AllowDirs...)
	policy.Block = append(policy.Block, cfg.BlockDirs...)
	if cfg.MaxFileSize > 0 {
		policy.MaxFileSize = cfg.MaxFileSize
	}
	policy.FollowSymlinks = cfg.FollowSymlinks
	return sandbox.NewGuard(policy)
}

// openStore opens the snapshot database when persistence is enabled.
// A store that fails to open is not fatal: the index still works from a
// fresh scan, so failures degrade to in-memory operation with a warning.
// Returns nil when persistence is off or the store is unavailable.
func openStore(cfg *config.Config, logger *slog.Logger) store.Store {
	if !cfg.Persist {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		logger.Warn("snapshot store unavailable, running in-memory", "path", cfg.DBPath, "error", err)
		return nil
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Warn("snapshot store unavailable, running in-memory", "path", cfg.DBPath, "error", err)
		return nil
	}
	if !st.FTSEnabled() {
		logger.Warn("full-text search disabled; rebuild with -tags sqlite_fts5 to enable it")
	}
	return st
}
