package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"burrow/internal/index"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

type welcomeModel struct {
	spinner spinner.Model
	readme  string // glamour-rendered sandbox README
	ready   bool
	count   int
}

// readmeMsg carries the rendered welcome file.
type readmeMsg struct {
	rendered string
}

// readyMsg is sent when the initial scan completes.
type readyMsg struct {
	count int
}

func newWelcomeModel() welcomeModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return welcomeModel{spinner: sp}
}

func loadReadme(root string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(filepath.Join(root, "README.md"))
		if err != nil {
			return readmeMsg{}
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(72),
		)
		if err != nil {
			return readmeMsg{rendered: string(data)}
		}
		out, err := r.Render(string(data))
		if err != nil {
			return readmeMsg{rendered: string(data)}
		}
		return readmeMsg{rendered: out}
	}
}

func waitReady(ix *index.Index) tea.Cmd {
	return func() tea.Msg {
		// The TUI owns no deadline here; ctrl+c still quits the program.
		if err := ix.WaitReady(context.Background()); err != nil {
			return readyMsg{}
		}
		return readyMsg{count: ix.Len()}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case readmeMsg:
		m.readme = msg.rendered
		return m, nil
	case readyMsg:
		m.ready = true
		m.count = msg.count
		return m, nil
	case spinner.TickMsg:
		if m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m welcomeModel) View(width, height int) string {
	s := titleStyle.Render("burrow") + "\n"
	s += subtitleStyle.Render("sandboxed file search") + "\n\n"

	if m.readme != "" {
		s += m.readme + "\n"
	}

	if m.ready {
		s += successStyle.Render(fmt.Sprintf("Index ready — %d files.", m.count)) + "\n\n"
		s += helpStyle.Render("enter: search  ·  q: quit")
	} else {
		s += m.spinner.View() + dimStyle.Render(" scanning sandbox...") + "\n\n"
		s += helpStyle.Render("q: quit")
	}
	return s
}
