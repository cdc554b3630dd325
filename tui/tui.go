// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Renders cached CRM queries and re-renders whenever the cache notifies a change
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/forms"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
	"github.com/harperreed/crmview/tags"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewTags
	ViewSettings
	ViewGraph
)

// EntityType represents the tab being listed
type EntityType int

const (
	EntityContacts EntityType = iota
	EntityOrganizations
	EntitySearch
)

const toastDuration = 3 * time.Second

type (
	// changedMsg means some query the model renders has a new state.
	changedMsg struct{}

	toastMsg struct {
		text string
		err  bool
	}

	clearToastMsg struct{ seq int }

	savedMsg struct {
		kind EntityType
		id   uuid.UUID
		err  error
	}

	tagsMsg struct{ err error }

	settingsMsg struct{ err error }

	graphMsg struct {
		dot string
		err error
	}
)

type Option func(*Model)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// Model is the main bubbletea model
type Model struct {
	ctx    context.Context
	client *api.Client
	cache  *cache.Manager
	logger zerolog.Logger
	events chan tea.Msg
	toasts chan toastMsg

	viewMode   ViewMode
	entityType EntityType

	// List view state
	contacts      *query.ContactList
	organizations *query.OrganizationList
	search        *query.SearchList
	selectedRow   int
	searching     bool
	searchInput   textinput.Model

	// Detail view state
	detailKind   EntityType
	selectedID   uuid.UUID
	contact      *query.ContactQuery
	organization *query.OrganizationQuery
	interactions *query.InteractionList
	members      *query.ContactList

	// Edit view state
	contactForm *forms.ContactForm
	orgForm     *forms.OrganizationForm
	formInputs  []textinput.Model
	focusIndex  int

	// Tag picker state
	tagManager *tags.Manager
	tagInput   textinput.Model
	tagCursor  int
	tagPane    int

	// Settings state
	settings       *query.SettingsQuery
	settingsForm   *forms.SettingsForm
	settingsCursor int
	listEditing    bool
	listInput      textinput.Model

	// Graph view state
	graphDOT    string
	graphScroll int

	toast    string
	toastErr bool
	toastSeq int

	width  int
	height int
	err    error
}

// New starts the list queries immediately; Close releases them.
func New(ctx context.Context, client *api.Client, m *cache.Manager, opts ...Option) Model {
	model := Model{
		ctx:        ctx,
		client:     client,
		cache:      m,
		logger:     zerolog.Nop(),
		events:     make(chan tea.Msg, 64),
		toasts:     make(chan toastMsg, 16),
		viewMode:   ViewList,
		entityType: EntityContacts,
		width:      80,
		height:     24,
	}
	for _, opt := range opts {
		opt(&model)
	}

	model.searchInput = textinput.New()
	model.searchInput.Placeholder = "Search..."
	model.searchInput.Prompt = "/ "

	model.contacts = query.NewContactList(m, client, api.ContactFilters{}, notify[*models.Page[models.Contact]](model.events))
	model.organizations = query.NewOrganizationList(m, client, api.OrganizationFilters{}, notify[*models.Page[models.Organization]](model.events))
	model.search = query.NewSearch(m, client, api.SearchFilters{}, notify[*models.Page[models.SearchResultItem]](model.events))
	return model
}

// Close stops every query the model still follows.
func (m Model) Close() {
	m.contacts.Close()
	m.organizations.Close()
	m.search.Close()
	m.closeDetail()
	if m.settings != nil {
		m.settings.Close()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), waitForToast(m.toasts))
}

// waitForEvent delivers the next query notification to Update.
func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

func waitForToast(ch <-chan toastMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// notify builds a query onChange that wakes the program without blocking
// the cache. A full channel already holds a pending wake-up.
func notify[T any](ch chan<- tea.Msg) func(query.State[T]) {
	return func(query.State[T]) {
		select {
		case ch <- changedMsg{}:
		default:
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case changedMsg:
		m.syncSettings()
		m.clampSelection()
		return m, waitForEvent(m.events)
	case toastMsg:
		// toasts arrive through their own channel, so keep listening
		return m, tea.Batch(waitForToast(m.toasts), m.showToast(msg.text, msg.err))
	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil
	case savedMsg:
		return m.handleSaved(msg)
	case tagsMsg:
		return m.handleTagsResult(msg)
	case settingsMsg:
		// failures were already shown as a toast or as field errors
		if msg.err != nil {
			m.logger.Debug().Err(msg.err).Msg("settings update failed")
		}
		return m, nil
	case graphMsg:
		if m.viewMode == ViewGraph {
			m.graphDOT, m.err = msg.dot, msg.err
		}
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	var body string
	switch m.viewMode {
	case ViewList:
		body = m.renderListView()
	case ViewDetail:
		body = m.renderDetailView()
	case ViewEdit:
		body = m.renderEditView()
	case ViewTags:
		body = m.renderTagsView()
	case ViewSettings:
		body = m.renderSettingsView()
	case ViewGraph:
		body = m.renderGraphView()
	}
	if m.toast != "" {
		style := toastStyle
		if m.toastErr {
			style = toastErrorStyle
		}
		body += "\n" + style.Render(m.toast)
	}
	return body
}

// showToast displays text until it is replaced or times out.
func (m *Model) showToast(text string, isErr bool) tea.Cmd {
	m.toast, m.toastErr = text, isErr
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return clearToastMsg{seq: seq}
	})
}

// typing is true while a text input owns the keyboard.
func (m Model) typing() bool {
	switch m.viewMode {
	case ViewList:
		return m.searching
	case ViewEdit, ViewTags:
		return true
	case ViewSettings:
		return m.listEditing
	}
	return false
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if !m.typing() {
			return m, tea.Quit
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewTags:
		return m.handleTagsKeys(msg)
	case ViewSettings:
		return m.handleSettingsKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	}

	return m, nil
}

// Run drives the model until the user quits.
func Run(ctx context.Context, client *api.Client, m *cache.Manager, opts ...Option) error {
	model := New(ctx, client, m, opts...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	} else {
		model.Close()
	}
	return err
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	toastErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)
