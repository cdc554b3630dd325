package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/tags"
)

const (
	paneMatches = iota
	paneAttached
)

// openTags starts the tag picker for the entity in the detail view.
func (m Model) openTags() (tea.Model, tea.Cmd) {
	var (
		target   tags.Target
		attached []models.Tag
	)
	switch {
	case m.contact != nil:
		c := m.contact.State().Data
		if c == nil {
			return m, nil
		}
		target, attached = tags.ForContact(m.client, c.ID), c.Tags
	case m.organization != nil:
		o := m.organization.State().Data
		if o == nil {
			return m, nil
		}
		target, attached = tags.ForOrganization(m.client, o.ID), o.Tags
	default:
		return m, nil
	}

	mgr := tags.New(m.client, target, attached,
		tags.WithCache(m.cache),
		tags.WithLogger(m.logger),
	)
	m.tagManager = mgr
	m.tagInput = textinput.New()
	m.tagInput.Placeholder = "Filter or name a new tag"
	m.tagInput.Prompt = "# "
	m.tagCursor, m.tagPane = 0, paneMatches
	m.err = nil
	m.viewMode = ViewTags

	ctx := m.ctx
	return m, tea.Batch(m.tagInput.Focus(), func() tea.Msg {
		return tagsMsg{err: mgr.Open(ctx)}
	})
}

// tagOptions is the number of selectable rows in the matches pane,
// counting the create row.
func (m Model) tagOptions() int {
	n := len(m.tagManager.Matches())
	if m.tagManager.CanCreate() {
		n++
	}
	return n
}

func (m Model) renderTagsView() string {
	var s strings.Builder
	mgr := m.tagManager

	s.WriteString(titleStyle.Render("TAGS"))
	s.WriteString("\n\n")
	s.WriteString(m.tagInput.View())
	s.WriteString("\n\n")

	switch mgr.State() {
	case tags.StateLoading:
		s.WriteString(statusStyle.Render("Loading tags..."))
		s.WriteString("\n")
	case tags.StateBusy:
		s.WriteString(statusStyle.Render("Saving..."))
		s.WriteString("\n")
	}

	matches := mgr.Matches()
	for i, t := range matches {
		s.WriteString(m.tagCursorMark(paneMatches, i))
		s.WriteString(t.Name)
		s.WriteString("\n")
	}
	if mgr.CanCreate() {
		s.WriteString(m.tagCursorMark(paneMatches, len(matches)))
		fmt.Fprintf(&s, "Create %q\n", strings.TrimSpace(mgr.Filter()))
	}

	s.WriteString(sectionStyle.Render("Attached"))
	s.WriteString("\n")
	attached := mgr.Attached()
	if len(attached) == 0 {
		s.WriteString(statusStyle.Render("  none"))
		s.WriteString("\n")
	}
	for i, t := range attached {
		s.WriteString(m.tagCursorMark(paneAttached, i))
		s.WriteString(t.Name)
		s.WriteString("\n")
	}

	if err := mgr.Err(); err != nil {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(err.Error()))
		s.WriteString("\n")
	}

	s.WriteString(helpStyle.Render(strings.Join([]string{
		"↑/↓: Navigate",
		"Tab: Switch list",
		"Enter: Attach / Remove",
		"Esc: Back",
	}, " • ")))
	return s.String()
}

func (m Model) tagCursorMark(pane, i int) string {
	if m.tagPane == pane && m.tagCursor == i {
		return "> "
	}
	return "  "
}

func (m Model) handleTagsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mgr := m.tagManager
	switch msg.String() {
	case "esc":
		mgr.Close()
		m.tagManager = nil
		m.viewMode = ViewDetail
		return m, nil
	case "tab", "shift+tab":
		if m.tagPane == paneMatches {
			m.tagPane = paneAttached
			m.tagInput.Blur()
		} else {
			m.tagPane = paneMatches
			m.tagInput.Focus()
		}
		m.tagCursor = 0
		return m, nil
	case "up":
		if m.tagCursor > 0 {
			m.tagCursor--
		}
		return m, nil
	case "down":
		limit := m.tagOptions()
		if m.tagPane == paneAttached {
			limit = len(mgr.Attached())
		}
		if m.tagCursor < limit-1 {
			m.tagCursor++
		}
		return m, nil
	case "enter":
		return m, m.tagAction()
	case "x", "delete":
		if m.tagPane == paneAttached {
			return m, m.tagAction()
		}
	}

	if m.tagPane != paneMatches {
		return m, nil
	}
	var cmd tea.Cmd
	m.tagInput, cmd = m.tagInput.Update(msg)
	if m.tagInput.Value() != mgr.Filter() {
		mgr.SetFilter(m.tagInput.Value())
		m.tagCursor = 0
	}
	return m, cmd
}

// tagAction attaches, creates or detaches the highlighted tag in the background.
func (m Model) tagAction() tea.Cmd {
	mgr, ctx := m.tagManager, m.ctx

	if m.tagPane == paneAttached {
		attached := mgr.Attached()
		if m.tagCursor >= len(attached) {
			return nil
		}
		id := attached[m.tagCursor].ID
		return func() tea.Msg { return tagsMsg{err: mgr.Detach(ctx, id)} }
	}

	matches := mgr.Matches()
	switch {
	case m.tagCursor < len(matches):
		id := matches[m.tagCursor].ID
		return func() tea.Msg { return tagsMsg{err: mgr.Select(ctx, id)} }
	case mgr.CanCreate():
		return func() tea.Msg { return tagsMsg{err: mgr.CreateAndAttach(ctx)} }
	}
	return nil
}

func (m Model) handleTagsResult(msg tagsMsg) (tea.Model, tea.Cmd) {
	if m.tagManager == nil {
		return m, nil
	}
	switch {
	case msg.err != nil:
		if errors.Is(msg.err, tags.ErrBusy) {
			return m, nil
		}
		// Err() is shown by the picker; a failed load closes it
		if m.tagManager.State() == tags.StateClosed {
			m.tagManager = nil
			m.err = msg.err
			m.viewMode = ViewDetail
		}
		return m, nil
	case m.tagManager.State() == tags.StateClosed:
		m.tagManager = nil
		m.viewMode = ViewDetail
		return m, m.showToast("Tags updated", false)
	}
	if n := len(m.tagManager.Attached()); m.tagPane == paneAttached && m.tagCursor >= n && n > 0 {
		m.tagCursor = n - 1
	}
	return m, nil
}
