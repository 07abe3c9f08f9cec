package cmd

import (
	"context"
	"fmt"
	"time"

	"burrow/internal/index"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Scan the sandbox and build the index snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		})
		if err != nil {
			return err
		}

		if st != nil {
			if last, err := st.GetMeta("last_scan"); err == nil && last != "" {
				fmt.Printf("Last scan: %s\n", last)
			}
		}
		fmt.Printf("Indexing %s...\n", ix.Root())
		start := time.Now()

		ix.Start(cmd.Context(), nil)
		if err := ix.WaitReady(context.Background()); err != nil {
			return err
		}

		byType := make(map[string]int)
		for _, m := range ix.Entries() {
			byType[m.Type.String()]++
		}

		if st != nil {
			if err := st.SetMeta("last_scan", time.Now().Format(time.RFC3339)); err != nil {
				logger.Warn("could not record scan time", "error", err)
			}
		}

		fmt.Printf("\nDone in %s\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("  Files: %d\n", ix.Len())
		for t, n := range byType {
			fmt.Printf("  %-12s %d\n", t+":", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
