package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmview/viz"
)

func (m Model) renderGraphView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("GRAPH VIEW"))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(m.err.Error()))
	case m.graphDOT == "":
		s.WriteString("Generating graph...\n")
	default:
		s.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Render(m.visibleGraph()))
	}

	s.WriteString("\n\n")

	// Help
	s.WriteString(m.renderGraphHelp())

	return s.String()
}

// visibleGraph is the window of DOT source that fits on screen.
func (m Model) visibleGraph() string {
	lines := strings.Split(m.graphDOT, "\n")
	start := m.graphScroll
	if start > len(lines) {
		start = len(lines)
	}
	end := start + m.tableHeight() + 4
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderGraphHelp() string {
	help := []string{
		"↑/↓: Scroll",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleGraphKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewDetail
		m.graphDOT, m.graphScroll, m.err = "", 0, nil
	case "up", "k":
		if m.graphScroll > 0 {
			m.graphScroll--
		}
	case "down", "j":
		if m.graphScroll < strings.Count(m.graphDOT, "\n") {
			m.graphScroll++
		}
	}

	return m, nil
}

// openGraph renders the detail entity's neighbourhood in the background.
func (m Model) openGraph() (tea.Model, tea.Cmd) {
	generator := viz.NewGraphGenerator(m.client)
	ctx, id, kind := m.ctx, m.selectedID, m.detailKind

	m.viewMode = ViewGraph
	m.graphDOT, m.graphScroll, m.err = "", 0, nil
	return m, func() tea.Msg {
		var (
			dot string
			err error
		)
		switch kind {
		case EntityContacts:
			dot, err = generator.GenerateContactGraph(ctx, id)
		case EntityOrganizations:
			dot, err = generator.GenerateOrganizationGraph(ctx, id)
		}
		return graphMsg{dot: dot, err: err}
	}
}
