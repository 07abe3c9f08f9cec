package cmd

import (
	"context"

	"burrow/internal/index"
	"burrow/internal/search"
	"burrow/internal/tui"
	"burrow/internal/watch"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive search over the sandbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI()
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := ensureRoot(cfg); err != nil {
		return err
	}
	logger := newLogger(cfg)
	guard := newGuard(cfg)

	st := openStore(cfg, logger)
	if st != nil {
		defer st.Close()
	}

	ix, err := index.New(index.Config{
		Root:          cfg.Root,
		Guard:         guard,
		Store:         st,
		Logger:        logger,
		RenameGeneric: cfg.RenameGeneric,
		WarmStart:     true,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := watch.New(ix.Root(), logger)
	if err != nil {
		logger.Warn("filesystem watcher unavailable, index will not auto-refresh", "error", err)
		ix.Start(ctx, nil)
	} else {
		defer watcher.Close()
		ix.Start(ctx, watcher)
	}

	return tui.Run(tui.Config{
		Index:    ix,
		Searcher: search.New(guard, st, cfg.Root, logger),
	})
}
