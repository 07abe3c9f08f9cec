package tui

import (
	"context"
	"fmt"
	"strings"

	"burrow/internal/index"
	"burrow/internal/score"
	"burrow/internal/search"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type searchState int

const (
	searchIdle searchState = iota
	searchRunning
)

type searchModel struct {
	input       textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	ix          *index.Index
	searcher    *search.Searcher
	state       searchState
	results     []score.Result
	lastQuery   string
	initialized bool
	width       int
	height      int
}

// resultsMsg is sent when a query completes.
type resultsMsg struct {
	query   string
	results []score.Result
	err     error
}

func newSearchModel(ix *index.Index, searcher *search.Searcher) searchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "What are you looking for?"
	ti.CharLimit = 500

	return searchModel{
		input:    ti,
		spinner:  sp,
		ix:       ix,
		searcher: searcher,
		state:    searchIdle,
	}
}

func (m *searchModel) resize(width, height int) {
	m.width = width
	m.height = height

	vpHeight := height - 4
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(dimStyle.Render("Type a query and press enter."))
	m.input.Width = width - 4
	m.initialized = true
}

func runQuery(ix *index.Index, query string) tea.Cmd {
	return func() tea.Msg {
		results, err := ix.FindRelevant(context.Background(), query, 15)
		return resultsMsg{query: query, results: results, err: err}
	}
}

// runPattern handles "/"-prefixed queries with the ad-hoc searcher instead
// of the relevance index.
func runPattern(searcher *search.Searcher, root, query string) tea.Cmd {
	return func() tea.Msg {
		results, err := searcher.Search(context.Background(), search.Options{
			Query:     query,
			Locations: []string{root},
			Limit:     15,
		})
		return resultsMsg{query: query, results: results, err: err}
	}
}

func (m searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case resultsMsg:
		m.state = searchIdle
		m.lastQuery = msg.query
		m.results = msg.results
		if msg.err != nil {
			m.viewport.SetContent(errorStyle.Render("search failed: " + msg.err.Error()))
			return m, nil
		}
		m.viewport.SetContent(m.renderResults())
		return m, nil

	case spinner.TickMsg:
		if m.state != searchRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyEnter && m.state == searchIdle {
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			m.state = searchRunning
			if pattern, ok := strings.CutPrefix(query, "/"); ok {
				return m, tea.Batch(m.spinner.Tick, runPattern(m.searcher, m.ix.Root(), pattern))
			}
			return m, tea.Batch(m.spinner.Tick, runQuery(m.ix, query))
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m searchModel) renderResults() string {
	if len(m.results) == 0 {
		return dimStyle.Render(fmt.Sprintf("No results for %q.", m.lastQuery))
	}

	var sb strings.Builder
	sb.WriteString(subtitleStyle.Render(fmt.Sprintf("%d results for %q", len(m.results), m.lastQuery)))
	sb.WriteString("\n\n")
	for i, r := range m.results {
		sb.WriteString(selectedStyle.Render(fmt.Sprintf("%2d. %s", i+1, r.Path)))
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  %.2f", r.Relevance)))
		sb.WriteByte('\n')
		if detail := firstNonEmpty(r.Summary, r.Excerpt); detail != "" {
			sb.WriteString(listItemStyle.Render("    " + detail))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m searchModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	status := helpStyle.Render("enter: search  ·  /query: pattern search  ·  ctrl+c: quit")
	if m.state == searchRunning {
		status = m.spinner.View() + dimStyle.Render(" searching...")
	}

	return m.viewport.View() + "\n" + m.input.View() + "\n" + status
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
