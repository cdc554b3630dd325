package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
)

const (
	detailInteractions = 5
	detailMembers      = 10
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(15)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginTop(1)
)

// openDetail follows one contact or organization plus its related lists.
func (m Model) openDetail(kind EntityType, id uuid.UUID) (tea.Model, tea.Cmd) {
	m.closeDetail()
	m.detailKind, m.selectedID = kind, id
	m.err = nil

	key := id
	switch kind {
	case EntityContacts:
		m.contact = query.NewContact(m.cache, m.client, &key, notify[*models.Contact](m.events))
		m.interactions = query.NewInteractionList(m.cache, m.client,
			api.InteractionFilters{ContactID: &key, PageSize: detailInteractions},
			notify[*models.Page[models.Interaction]](m.events))
	case EntityOrganizations:
		m.organization = query.NewOrganization(m.cache, m.client, &key, notify[*models.Organization](m.events))
		m.members = query.NewContactList(m.cache, m.client,
			api.ContactFilters{OrganizationID: &key, PageSize: detailMembers},
			notify[*models.Page[models.Contact]](m.events))
		m.interactions = query.NewInteractionList(m.cache, m.client,
			api.InteractionFilters{OrganizationID: &key, PageSize: detailInteractions},
			notify[*models.Page[models.Interaction]](m.events))
	}
	m.viewMode = ViewDetail
	return m, nil
}

func (m *Model) closeDetail() {
	if m.contact != nil {
		m.contact.Close()
		m.contact = nil
	}
	if m.organization != nil {
		m.organization.Close()
		m.organization = nil
	}
	if m.interactions != nil {
		m.interactions.Close()
		m.interactions = nil
	}
	if m.members != nil {
		m.members.Close()
		m.members = nil
	}
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	switch m.detailKind {
	case EntityContacts:
		s.WriteString(m.renderContactDetail())
	case EntityOrganizations:
		s.WriteString(m.renderOrganizationDetail())
	}

	if m.err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(m.err.Error()))
	}

	s.WriteString("\n")
	s.WriteString(m.renderDetailHelp())
	return s.String()
}

func (m Model) renderContactDetail() string {
	st := m.contact.State()
	if !st.HasData || st.Data == nil {
		return renderPending("CONTACT", st.Loading(), st.Err)
	}
	c := st.Data

	var s strings.Builder
	s.WriteString(titleStyle.Render("CONTACT: " + c.DisplayName()))
	s.WriteString("\n\n")
	s.WriteString(renderField("Email", c.Email))
	s.WriteString(renderField("Phone", c.Phone))
	s.WriteString(renderField("Title", c.Title))
	s.WriteString(renderField("Status", c.Status))
	s.WriteString(renderField("Category", c.Category))
	s.WriteString(renderField("Source", string(c.Source)))
	s.WriteString(renderField("Location", c.Location))
	s.WriteString(renderField("LinkedIn", c.LinkedInURL))
	if c.OrganizationID != nil {
		s.WriteString(renderField("Organization", c.OrganizationID.String()))
	}
	s.WriteString(renderField("Tags", tagList(c.Tags)))
	s.WriteString(renderField("Notes", c.Notes))
	if st.Validating() {
		s.WriteString(statusStyle.Render("Refreshing..."))
		s.WriteString("\n")
	}

	s.WriteString(m.renderInteractions())
	return s.String()
}

func (m Model) renderOrganizationDetail() string {
	st := m.organization.State()
	if !st.HasData || st.Data == nil {
		return renderPending("ORGANIZATION", st.Loading(), st.Err)
	}
	o := st.Data

	var s strings.Builder
	s.WriteString(titleStyle.Render("ORGANIZATION: " + o.Name))
	s.WriteString("\n\n")
	s.WriteString(renderField("Type", string(o.Type)))
	s.WriteString(renderField("Website", o.Website))
	s.WriteString(renderField("Sector", o.Sector))
	s.WriteString(renderField("Location", o.Location))
	s.WriteString(renderField("Size", o.Size))
	s.WriteString(renderField("Tags", tagList(o.Tags)))
	s.WriteString(renderField("Notes", o.Notes))

	s.WriteString(sectionStyle.Render("Contacts"))
	s.WriteString("\n")
	members := m.members.Items()
	if len(members) == 0 {
		s.WriteString(statusStyle.Render("  none"))
		s.WriteString("\n")
	}
	for _, c := range members {
		fmt.Fprintf(&s, "  %s  %s\n", c.DisplayName(), statusStyle.Render(c.Status))
	}
	if total := m.members.Pager().TotalItems; total > len(members) {
		s.WriteString(statusStyle.Render(fmt.Sprintf("  ...and %d more", total-len(members))))
		s.WriteString("\n")
	}

	s.WriteString(m.renderInteractions())
	return s.String()
}

func (m Model) renderInteractions() string {
	var s strings.Builder
	s.WriteString(sectionStyle.Render("Recent interactions"))
	s.WriteString("\n")

	st := m.interactions.State()
	items := m.interactions.Items()
	switch {
	case st.Loading():
		s.WriteString(statusStyle.Render("  loading..."))
		s.WriteString("\n")
	case st.Err != nil && !st.HasData:
		s.WriteString(errorStyle.Render("  " + st.Err.Error()))
		s.WriteString("\n")
	case len(items) == 0:
		s.WriteString(statusStyle.Render("  none"))
		s.WriteString("\n")
	}
	for _, i := range items {
		when := "-"
		if i.OccurredAt != nil {
			when = i.OccurredAt.Format("2006-01-02")
		}
		title := i.Title
		if title == "" {
			title = i.Summary
		}
		fmt.Fprintf(&s, "  %s  %-8s %s\n", when, i.Type, title)
	}
	return s.String()
}

func renderPending(title string, loading bool, err error) string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")
	switch {
	case err != nil:
		s.WriteString(errorStyle.Render(err.Error()))
	case loading:
		s.WriteString(statusStyle.Render("Loading..."))
	default:
		s.WriteString(statusStyle.Render("Not found"))
	}
	s.WriteString("\n")
	return s.String()
}

func renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit",
		"t: Tags",
		"g: Graph",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.closeDetail()
		m.viewMode = ViewList
		m.err = nil
	case "r":
		m.refreshDetail()
	case "e":
		switch m.detailKind {
		case EntityContacts:
			if c := m.contact.State().Data; c != nil {
				return m.openContactForm(c)
			}
		case EntityOrganizations:
			if o := m.organization.State().Data; o != nil {
				return m.openOrganizationForm(o)
			}
		}
	case "t":
		return m.openTags()
	case "g":
		return m.openGraph()
	}
	return m, nil
}

func (m Model) refreshDetail() {
	if m.contact != nil {
		m.contact.Refresh()
	}
	if m.organization != nil {
		m.organization.Refresh()
	}
	if m.interactions != nil {
		m.interactions.Refresh()
	}
	if m.members != nil {
		m.members.Refresh()
	}
}
