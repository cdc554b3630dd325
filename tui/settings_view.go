package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/crmview/forms"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
)

const (
	rowStages = iota + 4
	rowCategories
	settingsRows
)

var settingsFlags = []struct {
	flag  forms.SettingsFlag
	label string
}{
	{forms.FlagEnabled, "CRM enabled"},
	{forms.FlagTier2, "Tier 2 features"},
	{forms.FlagTier3Deals, "Deals"},
	{forms.FlagTier3CustomFields, "Custom fields"},
}

// eventNotifier turns settings outcomes into toasts. Sends wait for the
// program instead of dropping, up to one toast lifetime.
type eventNotifier struct {
	ctx context.Context
	ch  chan<- toastMsg
}

func (n eventNotifier) Success(msg string) { n.send(toastMsg{text: msg}) }
func (n eventNotifier) Error(msg string)   { n.send(toastMsg{text: msg, err: true}) }

func (n eventNotifier) send(msg toastMsg) {
	select {
	case n.ch <- msg:
	case <-n.ctx.Done():
	case <-time.After(toastDuration):
	}
}

func (m Model) openSettings() (tea.Model, tea.Cmd) {
	if m.settings == nil {
		m.settings = query.NewSettings(m.cache, m.client, notify[*models.Settings](m.events))
	}
	m.settingsCursor = 0
	m.listEditing = false
	m.err = nil
	m.syncSettings()
	m.viewMode = ViewSettings
	return m, nil
}

func (m *Model) closeSettings() {
	if m.settings != nil {
		m.settings.Close()
	}
	m.settings, m.settingsForm = nil, nil
	m.listEditing = false
}

// syncSettings builds the form from the first loaded settings and adopts
// later server values while no save is pending.
func (m *Model) syncSettings() {
	if m.settings == nil {
		return
	}
	st := m.settings.State()
	if !st.HasData || st.Data == nil {
		return
	}
	if m.settingsForm == nil {
		m.settingsForm = forms.NewSettingsForm(m.client, *st.Data, eventNotifier{ctx: m.ctx, ch: m.toasts}, m.cache, nil)
		return
	}
	if !m.settingsForm.Pending() {
		m.settingsForm.Reset(*st.Data)
	}
}

func (m Model) renderSettingsView() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("SETTINGS"))
	s.WriteString("\n\n")

	if m.settingsForm == nil {
		if err := m.settings.State().Err; err != nil {
			s.WriteString(errorStyle.Render(err.Error()))
		} else {
			s.WriteString(statusStyle.Render("Loading..."))
		}
		s.WriteString("\n")
		s.WriteString(helpStyle.Render("Esc: Back"))
		return s.String()
	}

	cur := m.settingsForm.Settings()
	values := []bool{cur.Enabled, cur.Tier2Enabled, cur.Tier3Deals, cur.Tier3CustomFields}
	for i, f := range settingsFlags {
		box := "[ ]"
		if values[i] {
			box = "[x]"
		}
		s.WriteString(m.settingsMark(i))
		s.WriteString(box + " " + f.label)
		s.WriteString("\n")
	}

	s.WriteString(m.settingsMark(rowStages))
	s.WriteString(fieldLabelStyle.Render("Stages:") + " " + fieldValueStyle.Render(strings.Join(cur.ContactStageOptions, ", ")))
	s.WriteString("\n")
	s.WriteString(m.settingsMark(rowCategories))
	s.WriteString(fieldLabelStyle.Render("Categories:") + " " + fieldValueStyle.Render(strings.Join(cur.ContactCategorySuggestions, ", ")))
	s.WriteString("\n")

	if m.listEditing {
		s.WriteString("\n")
		s.WriteString(m.listInput.View())
		s.WriteString("\n")
	}

	for _, msg := range m.settingsForm.Errors {
		s.WriteString(errorStyle.Render(msg))
		s.WriteString("\n")
	}
	if m.settingsForm.Pending() {
		s.WriteString(statusStyle.Render("Saving..."))
		s.WriteString("\n")
	}

	help := []string{"↑/↓: Navigate", "Space: Toggle", "Enter: Edit list", "Esc: Back"}
	if m.listEditing {
		help = []string{"Enter: Save (comma separated)", "Esc: Cancel"}
	}
	s.WriteString(helpStyle.Render(strings.Join(help, " • ")))
	return s.String()
}

func (m Model) settingsMark(row int) string {
	if row == m.settingsCursor {
		return "> "
	}
	return "  "
}

func (m Model) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.listEditing {
		return m.handleListEditKeys(msg)
	}

	switch msg.String() {
	case "esc", "backspace":
		m.closeSettings()
		m.viewMode = ViewList
	case "up", "k":
		if m.settingsCursor > 0 {
			m.settingsCursor--
		}
	case "down", "j":
		if m.settingsCursor < settingsRows-1 {
			m.settingsCursor++
		}
	case "r":
		m.settings.Refresh()
	case " ", "enter":
		if m.settingsForm == nil {
			return m, nil
		}
		if m.settingsCursor < len(settingsFlags) {
			return m, m.toggleSetting(settingsFlags[m.settingsCursor].flag)
		}
		cur := m.settingsForm.Settings()
		values := cur.ContactStageOptions
		if m.settingsCursor == rowCategories {
			values = cur.ContactCategorySuggestions
		}
		m.listInput = textinput.New()
		m.listInput.Prompt = "> "
		m.listInput.SetValue(strings.Join(values, ", "))
		m.listEditing = true
		return m, m.listInput.Focus()
	}
	return m, nil
}

func (m Model) handleListEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.listEditing = false
		return m, nil
	case "enter":
		m.listEditing = false
		values := splitList(m.listInput.Value())
		f, ctx := m.settingsForm, m.ctx
		save := f.SetStages
		if m.settingsCursor == rowCategories {
			save = f.SetCategories
		}
		return m, settingsCmd(ctx, func(ctx context.Context) error { return save(ctx, values) })
	}
	var cmd tea.Cmd
	m.listInput, cmd = m.listInput.Update(msg)
	return m, cmd
}

func (m Model) toggleSetting(flag forms.SettingsFlag) tea.Cmd {
	f := m.settingsForm
	return settingsCmd(m.ctx, func(ctx context.Context) error { return f.Toggle(ctx, flag) })
}

func settingsCmd(ctx context.Context, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		err := fn(ctx)
		if errors.Is(err, forms.ErrPending) {
			err = nil
		}
		return settingsMsg{err: err}
	}
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
