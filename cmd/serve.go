package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"burrow/internal/index"
	"burrow/internal/search"
	"burrow/internal/store"
	"burrow/internal/watch"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start an MCP server exposing sandboxed file search tools",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	watcher, err := watch.New(ix.Root(), logger)
	if err != nil {
		// The index still works without live updates; say so and go on.
		logger.Warn("filesystem watcher unavailable, index will not auto-refresh", "error", err)
		ix.Start(ctx, nil)
	} else {
		defer watcher.Close()
		ix.Start(ctx, watcher)
	}

	trackDownloads(ctx, ix, logger)

	searcher := search.New(guard, st, cfg.Root, logger)

	s := mcpserver.NewMCPServer("burrow", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(findRelevantTool(), limited("find_relevant", makeFindRelevantHandler(ix)))
	s.AddTool(searchFilesTool(), limited("search_files", makeSearchFilesHandler(searcher, cfg.Root)))
	s.AddTool(listIndexedTool(), limited("list_indexed", makeListIndexedHandler(ix)))
	s.AddTool(similarFilesTool(), limited("similar_files", makeSimilarFilesHandler(ix, st)))

	return mcpserver.ServeStdio(s)
}

// trackDownloads feeds freshly downloaded files into the transient tracker
// so queries can surface them before they ever enter the sandbox.
func trackDownloads(ctx context.Context, ix *index.Index, logger *slog.Logger) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	downloads := filepath.Join(home, "Downloads")
	if _, err := os.Stat(downloads); err != nil {
		return
	}

	w, err := watch.New(downloads, logger)
	if err != nil {
		logger.Warn("downloads watcher unavailable", "error", err)
		return
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events():
				if !ok {
					return
				}
				if ev.Op == watch.OpAdd {
					ix.NoteRecent(ev.Path)
				}
			}
		}
	}()
}

// limited wraps a tool handler with a per-tool token bucket: a burst of 10
// calls, refilled one per second. The protocol layer owns request-level
// timeouts; this guards against runaway callers only.
func limited(name string, h mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(1), 10)
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !limiter.Allow() {
			return mcp.NewToolResultError(fmt.Sprintf("%s: rate limit exceeded, retry shortly", name)), nil
		}
		return h(ctx, req)
	}
}

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func findRelevantTool() mcp.Tool {
	return mcp.NewTool("find_relevant",
		mcp.WithDescription("Find the files in the sandbox most relevant to a natural-language query, ranked by combined name, content, and recency signals."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of the file(s) to find"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 10)"),
		),
	)
}

func searchFilesTool() mcp.Tool {
	return mcp.NewTool("search_files",
		mcp.WithDescription("Search sandboxed locations for files by name pattern and content keywords. Locations outside the sandbox are skipped."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keywords or filename pattern to search for"),
		),
		mcp.WithString("locations",
			mcp.Description("Comma-separated directories to search (default: the sandbox root)"),
		),
		mcp.WithString("file_types",
			mcp.Description("Comma-separated type filters: document, text, image, audio, video, data, spreadsheet"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results (default 10)"),
		),
	)
}

func listIndexedTool() mcp.Tool {
	return mcp.NewTool("list_indexed",
		mcp.WithDescription("List every indexed file with its type, size, and summary snippet."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("file_type",
			mcp.Description("Optional type filter (e.g. 'document'). Case-insensitive."),
		),
	)
}

func similarFilesTool() mcp.Tool {
	return mcp.NewTool("similar_files",
		mcp.WithDescription("Find indexed files whose embeddings are closest to a given indexed file."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Sandbox-relative path of the reference file"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of neighbors (default 5)"),
		),
	)
}

// --- Handler factories ---

func makeFindRelevantHandler(ix *index.Index) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		limit := req.GetInt("limit", 10)

		results, err := ix.FindRelevant(ctx, query, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("find relevant failed: %v", err)), nil
		}

		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No relevant files found for %q.", query)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Relevant files for %q (%d)\n\n", query, len(results))
		for i, r := range results {
			fmt.Fprintf(&sb, "%d. **%s** — relevance %.2f\n", i+1, r.Path, r.Relevance)
			if r.Summary != "" {
				fmt.Fprintf(&sb, "   %s\n", r.Summary)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeSearchFilesHandler(searcher *search.Searcher, defaultRoot string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		locations := splitList(req.GetString("locations", ""))
		if len(locations) == 0 {
			locations = []string{defaultRoot}
		}

		results, err := searcher.Search(ctx, search.Options{
			Query:     query,
			Locations: locations,
			FileTypes: splitList(req.GetString("file_types", "")),
			Limit:     req.GetInt("limit", 10),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if len(results) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No matches for %q.", query)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Matches for %q (%d)\n\n", query, len(results))
		for i, r := range results {
			fmt.Fprintf(&sb, "%d. **%s** — relevance %.2f\n", i+1, r.Path, r.Relevance)
			if r.Excerpt != "" {
				fmt.Fprintf(&sb, "   > %s\n", r.Excerpt)
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeListIndexedHandler(ix *index.Index) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := ix.WaitReady(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("index not ready: %v", err)), nil
		}

		typeFilter := strings.ToLower(req.GetString("file_type", ""))

		entries := ix.Entries()
		var sb strings.Builder
		count := 0
		for _, m := range entries {
			if typeFilter != "" && m.Type.String() != typeFilter {
				continue
			}
			count++
			fmt.Fprintf(&sb, "- **%s** (%s, %d bytes)", m.Path, m.Type, m.Size)
			if m.Summary != "" {
				fmt.Fprintf(&sb, " — %s", m.Summary)
			}
			sb.WriteByte('\n')
		}

		header := fmt.Sprintf("## Indexed files (%d)\n\n", count)
		if typeFilter != "" {
			header = fmt.Sprintf("## Indexed files (%d, type: %s)\n\n", count, typeFilter)
		}
		return mcp.NewToolResultText(header + sb.String()), nil
	}
}

func makeSimilarFilesHandler(ix *index.Index, st store.Store) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if st == nil {
			return mcp.NewToolResultError("similarity lookup requires persistence (enable 'persist' in config)"), nil
		}
		path := req.GetString("path", "")
		if path == "" {
			return mcp.NewToolResultError("path is required"), nil
		}
		if err := ix.WaitReady(ctx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("index not ready: %v", err)), nil
		}

		m, ok := ix.Get(path)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("%q is not indexed — call list_indexed to see available paths", path)), nil
		}

		limit := req.GetInt("limit", 5)
		neighbors, err := st.Nearest(m.Embedding, limit+1)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("similarity lookup failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "## Files similar to %s\n\n", path)
		n := 0
		for _, nb := range neighbors {
			if nb.Path == path {
				continue
			}
			n++
			fmt.Fprintf(&sb, "%d. **%s** — distance %.3f\n", n, nb.Path, nb.Distance)
			if n == limit {
				break
			}
		}
		if n == 0 {
			return mcp.NewToolResultText("No similar files found."), nil
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
