package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/forms"
	"github.com/harperreed/crmview/models"
)

// formField pairs an input label with the key its validation errors use.
type formField struct {
	label string
	key   string
}

var contactFields = []formField{
	{"First name", "first_name"},
	{"Last name", "last_name"},
	{"Email", "email"},
	{"Phone", "phone"},
	{"Title", "title"},
	{"Status", "status"},
	{"Category", "category"},
	{"Location", "location"},
	{"LinkedIn", "linkedin_url"},
	{"Notes", "notes"},
}

var organizationFields = []formField{
	{"Name", "name"},
	{"Website", "website"},
	{"Type", "type"},
	{"Sector", "sector"},
	{"Location", "location"},
	{"Size", "size"},
	{"Notes", "notes"},
}

func contactInputs(v forms.ContactValues) []string {
	return []string{v.FirstName, v.LastName, v.Email, v.Phone, v.Title, v.Status, v.Category, v.Location, v.LinkedInURL, v.Notes}
}

func applyContactInputs(v *forms.ContactValues, in []string) {
	v.FirstName, v.LastName, v.Email, v.Phone, v.Title = in[0], in[1], in[2], in[3], in[4]
	v.Status, v.Category, v.Location, v.LinkedInURL, v.Notes = in[5], in[6], in[7], in[8], in[9]
}

func organizationInputs(v forms.OrganizationValues) []string {
	return []string{v.Name, v.Website, string(v.Type), v.Sector, v.Location, v.Size, v.Notes}
}

func applyOrganizationInputs(v *forms.OrganizationValues, in []string) {
	v.Name, v.Website, v.Type, v.Sector = in[0], in[1], models.OrganizationType(in[2]), in[3]
	v.Location, v.Size, v.Notes = in[4], in[5], in[6]
}

func newInputs(fields []formField, values []string) []textinput.Model {
	inputs := make([]textinput.Model, len(fields))
	for i, f := range fields {
		t := textinput.New()
		t.Prompt = fmt.Sprintf("%-12s ", f.label+":")
		t.CharLimit = 500
		t.SetValue(values[i])
		inputs[i] = t
	}
	return inputs
}

// cachedSettings returns the tenant settings if any view has loaded them.
func (m Model) cachedSettings() *models.Settings {
	s, _ := m.cache.Get(api.SettingsKey).Data.(*models.Settings)
	return s
}

// openContactForm edits c, or starts a new contact when c is nil.
func (m Model) openContactForm(c *models.Contact) (tea.Model, tea.Cmd) {
	if c == nil {
		m.contactForm = forms.NewContactForm(m.client, m.cachedSettings())
	} else {
		m.contactForm = forms.EditContactForm(m.client, c, m.cachedSettings())
	}
	m.contactForm.Cache = m.cache
	m.orgForm = nil
	m.formInputs = newInputs(contactFields, contactInputs(m.contactForm.Values))
	return m.enterEdit()
}

func (m Model) openOrganizationForm(o *models.Organization) (tea.Model, tea.Cmd) {
	if o == nil {
		m.orgForm = forms.NewOrganizationForm(m.client)
	} else {
		m.orgForm = forms.EditOrganizationForm(m.client, o)
	}
	m.orgForm.Cache = m.cache
	m.contactForm = nil
	m.formInputs = newInputs(organizationFields, organizationInputs(m.orgForm.Values))
	return m.enterEdit()
}

func (m Model) enterEdit() (tea.Model, tea.Cmd) {
	m.focusIndex = 0
	m.err = nil
	m.viewMode = ViewEdit
	return m, m.updateFormFocus()
}

func (m Model) editFields() []formField {
	if m.orgForm != nil {
		return organizationFields
	}
	return contactFields
}

func (m Model) renderEditView() string {
	var s strings.Builder

	var (
		title   string
		editing bool
		errs    forms.FieldErrors
		status  string
	)
	if m.orgForm != nil {
		title, editing, errs, status = "ORGANIZATION", m.orgForm.Editing(), m.orgForm.Errors, m.orgForm.Status
	} else if m.contactForm != nil {
		title, editing, errs, status = "CONTACT", m.contactForm.Editing(), m.contactForm.Errors, m.contactForm.Status
	}

	// Title
	if editing {
		s.WriteString(titleStyle.Render("EDIT " + title))
	} else {
		s.WriteString(titleStyle.Render("NEW " + title))
	}
	s.WriteString("\n\n")

	// Form fields
	fields := m.editFields()
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
		if msg, ok := errs[fields[i].key]; ok {
			s.WriteString("    ")
			s.WriteString(errorStyle.Render(msg))
			s.WriteString("\n")
		}
	}

	if m.contactForm != nil && len(m.contactForm.Stages) > 0 {
		s.WriteString("\n")
		s.WriteString(statusStyle.Render("Stages: " + strings.Join(m.contactForm.Stages, ", ")))
		s.WriteString("\n")
	}

	if status != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(status))
		s.WriteString("\n")
	}

	s.WriteString("\n")

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.contactForm, m.orgForm, m.formInputs = nil, nil, nil
		if m.contact != nil || m.organization != nil {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		return m, m.updateFormFocus()
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		return m, m.updateFormFocus()
	case "enter", "ctrl+s":
		return m, m.submitForm()
	}

	// Update the focused input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) updateFormFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.formInputs {
		if i == m.focusIndex {
			cmd = m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
	return cmd
}

func (m Model) inputValues() []string {
	out := make([]string, len(m.formInputs))
	for i, in := range m.formInputs {
		out[i] = in.Value()
	}
	return out
}

// submitForm copies the inputs into the form and saves it in the background.
// Validation happens before any request is sent.
func (m Model) submitForm() tea.Cmd {
	ctx := m.ctx
	switch {
	case m.contactForm != nil:
		f := m.contactForm
		if f.Submitting() {
			return nil
		}
		applyContactInputs(&f.Values, m.inputValues())
		return func() tea.Msg {
			saved, err := f.Submit(ctx)
			if err != nil {
				return savedMsg{kind: EntityContacts, err: err}
			}
			return savedMsg{kind: EntityContacts, id: saved.ID}
		}
	case m.orgForm != nil:
		f := m.orgForm
		applyOrganizationInputs(&f.Values, m.inputValues())
		return func() tea.Msg {
			saved, err := f.Submit(ctx)
			if err != nil {
				return savedMsg{kind: EntityOrganizations, err: err}
			}
			return savedMsg{kind: EntityOrganizations, id: saved.ID}
		}
	}
	return nil
}

func (m Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// the form keeps its values and shows field errors or the server status
		m.logger.Debug().Err(msg.err).Msg("save failed")
		return m, nil
	}

	var status string
	if m.contactForm != nil {
		status = m.contactForm.Status
	} else if m.orgForm != nil {
		status = m.orgForm.Status
	}
	m.contactForm, m.orgForm, m.formInputs = nil, nil, nil

	toast := m.showToast(status, false)
	next, cmd := m.openDetail(msg.kind, msg.id)
	return next, tea.Batch(cmd, toast)
}
