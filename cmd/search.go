package cmd

import (
	"fmt"
	"strings"

	"burrow/internal/search"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	flagLocations []string
	flagTypes     []string
	flagLimit     int
)

var (
	pathStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	excerptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search sandboxed locations by name and content",
	Args:  cobra.MinimumNArgs(1),
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

		locations := flagLocations
		if len(locations) == 0 {
			locations = []string{cfg.Root}
		}

		results, err := search.New(guard, st, cfg.Root, logger).Search(cmd.Context(), search.Options{
			Query:     strings.Join(args, " "),
			Locations: locations,
			FileTypes: flagTypes,
			Limit:     flagLimit,
		})
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for i, r := range results {
			fmt.Printf("%2d. %s %s\n", i+1,
				pathStyle.Render(r.Path),
				scoreStyle.Render(fmt.Sprintf("(%.2f)", r.Relevance)))
			if r.Excerpt != "" {
				fmt.Printf("    %s\n", excerptStyle.Render(r.Excerpt))
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().StringArrayVar(&flagLocations, "in", nil, "location to search (repeatable, default sandbox root)")
	searchCmd.Flags().StringArrayVar(&flagTypes, "type", nil, "file type filter (repeatable)")
	searchCmd.Flags().IntVar(&flagLimit, "limit", 10, "maximum results")
	rootCmd.AddCommand(searchCmd)
}
