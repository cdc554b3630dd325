package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
)

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("CRM"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.searching || m.searchInput.Value() != "" {
		s.WriteString(m.searchInput.View())
		s.WriteString("\n\n")
	}

	// Table
	s.WriteString(m.renderTable())
	s.WriteString("\n")
	s.WriteString(m.renderListStatus())
	s.WriteString("\n")

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Contacts", "Organizations", "Search"}
	var rendered []string

	for i, tab := range tabs {
		if EntityType(i) == m.entityType {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) tableHeight() int {
	h := m.height - 12
	if h < 3 {
		h = 3
	}
	return h
}

func (m Model) newTable(columns []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(!m.searching),
		table.WithHeight(m.tableHeight()),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderTable() string {
	switch m.entityType {
	case EntityContacts:
		return m.renderContactsTable()
	case EntityOrganizations:
		return m.renderOrganizationsTable()
	case EntitySearch:
		return m.renderSearchTable()
	}
	return ""
}

func (m Model) renderContactsTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 28},
		{Title: "Email", Width: 30},
		{Title: "Status", Width: 12},
		{Title: "Tags", Width: 20},
	}

	var rows []table.Row
	for _, c := range m.contacts.Items() {
		rows = append(rows, table.Row{c.DisplayName(), c.Email, c.Status, tagList(c.Tags)})
	}
	return m.newTable(columns, rows)
}

func (m Model) renderOrganizationsTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 30},
		{Title: "Type", Width: 12},
		{Title: "Sector", Width: 18},
		{Title: "Tags", Width: 20},
	}

	var rows []table.Row
	for _, o := range m.organizations.Items() {
		rows = append(rows, table.Row{o.Name, string(o.Type), o.Sector, tagList(o.Tags)})
	}
	return m.newTable(columns, rows)
}

func (m Model) renderSearchTable() string {
	if strings.TrimSpace(m.searchInput.Value()) == "" {
		return statusStyle.Render("Press / and type to search everything.")
	}

	columns := []table.Column{
		{Title: "Type", Width: 14},
		{Title: "Match", Width: 32},
		{Title: "Detail", Width: 32},
	}

	var rows []table.Row
	for _, r := range m.search.Items() {
		rows = append(rows, table.Row{string(r.EntityType), r.PrimaryText, r.SecondaryText})
	}
	return m.newTable(columns, rows)
}

// renderListStatus shows the page position and the query status of the active tab.
func (m Model) renderListStatus() string {
	var (
		pager  query.Pager
		status cache.Status
		err    error
		empty  bool
	)
	switch m.entityType {
	case EntityContacts:
		s := m.contacts.State()
		pager, status, err, empty = m.contacts.Pager(), s.Status, s.Err, s.HasData && len(m.contacts.Items()) == 0
	case EntityOrganizations:
		s := m.organizations.State()
		pager, status, err, empty = m.organizations.Pager(), s.Status, s.Err, s.HasData && len(m.organizations.Items()) == 0
	case EntitySearch:
		s := m.search.State()
		pager, status, err, empty = m.search.Pager(), s.Status, s.Err, s.HasData && len(m.search.Items()) == 0
	}

	var parts []string
	switch {
	case status == cache.StatusLoading:
		parts = append(parts, "Loading...")
	case status == cache.StatusRevalidating:
		parts = append(parts, "Refreshing...")
	case empty:
		parts = append(parts, "No results")
	}
	if pages := pager.TotalPages(); pages > 0 {
		parts = append(parts, fmt.Sprintf("Page %d of %d (%d total)", pager.PageNum+1, pages, pager.TotalItems))
	}

	out := statusStyle.Render(strings.Join(parts, " • "))
	if err != nil {
		out += "\n" + errorStyle.Render(err.Error())
	}
	return out
}

func (m Model) renderListHelp() string {
	if m.searching {
		return helpStyle.Render("Enter: Done • Esc: Clear search")
	}
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"/: Search",
		"[/]: Page",
		"r: Refresh",
		"n: New",
		"s: Settings",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) rowCount() int {
	switch m.entityType {
	case EntityContacts:
		return len(m.contacts.Items())
	case EntityOrganizations:
		return len(m.organizations.Items())
	case EntitySearch:
		return len(m.search.Items())
	}
	return 0
}

func (m *Model) clampSelection() {
	if n := m.rowCount(); m.selectedRow >= n {
		m.selectedRow = n - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "tab":
		m.switchTab((m.entityType + 1) % 3)
	case "shift+tab":
		m.switchTab((m.entityType + 2) % 3)
	case "1", "2", "3":
		m.switchTab(EntityType(msg.String()[0] - '1'))
	case "/":
		m.searching = true
		return m, m.searchInput.Focus()
	case "[":
		m.prevPage()
	case "]":
		m.nextPage()
	case "r":
		m.refreshList()
	case "n":
		if m.entityType == EntityOrganizations {
			return m.openOrganizationForm(nil)
		}
		return m.openContactForm(nil)
	case "s":
		return m.openSettings()
	case "enter":
		return m.openSelected()
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.applySearch()
		return m, nil
	}

	var cmd tea.Cmd
	before := m.searchInput.Value()
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.searchInput.Value() != before {
		m.applySearch()
	}
	return m, cmd
}

// applySearch pushes the search text into the active tab's query. Each
// keystroke is a new cache key; responses for older text are discarded.
func (m *Model) applySearch() {
	q := m.searchInput.Value()
	switch m.entityType {
	case EntityContacts:
		m.contacts.SetSearch(q)
	case EntityOrganizations:
		m.organizations.SetSearch(q)
	case EntitySearch:
		m.search.SetSearch(q)
	}
	m.selectedRow = 0
}

func (m *Model) switchTab(t EntityType) {
	if t == m.entityType {
		return
	}
	m.entityType = t
	m.selectedRow = 0

	// the search box follows the tab it was typed into
	var q string
	switch t {
	case EntityContacts:
		q = m.contacts.Params().Query
	case EntityOrganizations:
		q = m.organizations.Params().Query
	case EntitySearch:
		q = m.search.Params().Query
	}
	m.searchInput.SetValue(q)
}

func (m *Model) nextPage() {
	switch m.entityType {
	case EntityContacts:
		if m.contacts.Pager().HasNext() {
			m.contacts.NextPage()
		}
	case EntityOrganizations:
		if m.organizations.Pager().HasNext() {
			m.organizations.NextPage()
		}
	case EntitySearch:
		if m.search.Pager().HasNext() {
			m.search.NextPage()
		}
	}
	m.selectedRow = 0
}

func (m *Model) prevPage() {
	switch m.entityType {
	case EntityContacts:
		m.contacts.PrevPage()
	case EntityOrganizations:
		m.organizations.PrevPage()
	case EntitySearch:
		m.search.PrevPage()
	}
	m.selectedRow = 0
}

func (m Model) refreshList() {
	switch m.entityType {
	case EntityContacts:
		m.contacts.Refresh()
	case EntityOrganizations:
		m.organizations.Refresh()
	case EntitySearch:
		m.search.Refresh()
	}
}

func (m Model) openSelected() (tea.Model, tea.Cmd) {
	switch m.entityType {
	case EntityContacts:
		items := m.contacts.Items()
		if m.selectedRow < len(items) {
			return m.openDetail(EntityContacts, items[m.selectedRow].ID)
		}
	case EntityOrganizations:
		items := m.organizations.Items()
		if m.selectedRow < len(items) {
			return m.openDetail(EntityOrganizations, items[m.selectedRow].ID)
		}
	case EntitySearch:
		items := m.search.Items()
		if m.selectedRow < len(items) {
			r := items[m.selectedRow]
			switch r.EntityType {
			case models.EntityContact:
				return m.openDetail(EntityContacts, r.EntityID)
			case models.EntityOrganization:
				return m.openDetail(EntityOrganizations, r.EntityID)
			}
		}
	}
	return m, nil
}

func tagList(tags []models.Tag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
