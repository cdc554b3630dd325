// ABOUTME: Tag picker state machine for attaching, detaching and creating tags inline
// ABOUTME: Loads the tag catalogue on open and prevents case-insensitive duplicate names
package tags

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/models"
)

var (
	ErrClosed    = errors.New("tag manager is closed")
	ErrBusy      = errors.New("tag manager is busy")
	ErrEmptyName = errors.New("tag name is required")
)

type State int

const (
	StateClosed State = iota
	StateLoading
	StateOpen
	StateBusy
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateOpen:
		return "open"
	case StateBusy:
		return "busy"
	}
	return "closed"
}

type Service interface {
	ListAllTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, req models.TagCreate) (*models.Tag, error)
}

type Option func(*Manager)

// WithCache mirrors every confirmed tag list into m.
func WithCache(m *cache.Manager) Option {
	return func(t *Manager) { t.cache = m }
}

func WithOnChange(fn func([]models.Tag)) Option {
	return func(t *Manager) { t.onChange = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(t *Manager) { t.logger = l }
}

type Manager struct {
	svc    Service
	target Target

	cache    *cache.Manager
	onChange func([]models.Tag)
	logger   zerolog.Logger

	mu       sync.Mutex
	state    State
	all      []models.Tag
	attached []models.Tag
	filter   string
	err      error
}

// New edits target, whose current tags are attached.
func New(svc Service, target Target, attached []models.Tag, opts ...Option) *Manager {
	t := &Manager{
		svc:      svc,
		target:   target,
		attached: append([]models.Tag{}, attached...),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With().Str("component", "tags").Str("entity", string(target.Kind)).Logger()
	return t
}

func (t *Manager) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err is the last load or toggle failure, cleared by the next successful step.
func (t *Manager) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Manager) Attached() []models.Tag {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.Tag{}, t.attached...)
}

func (t *Manager) Filter() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filter
}

// Open loads the full tag list. Opening an open manager is a no-op.
func (t *Manager) Open(ctx context.Context) error {
	t.mu.Lock()
	if t.state != StateClosed {
		t.mu.Unlock()
		return nil
	}
	t.state, t.filter, t.err = StateLoading, "", nil
	t.mu.Unlock()

	all, err := t.svc.ListAllTags(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateLoading {
		// closed while loading
		return nil
	}
	if err != nil {
		t.state, t.err = StateClosed, err
		return err
	}
	t.state, t.all = StateOpen, all
	t.logger.Debug().Int("tags", len(all)).Msg("tag list loaded")
	return nil
}

func (t *Manager) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state, t.filter = StateClosed, ""
}

func (t *Manager) SetFilter(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.filter = s
}

// Matches lists loaded tags whose name contains the filter, ignoring case,
// minus the ones already attached.
func (t *Manager) Matches() []models.Tag {
	t.mu.Lock()
	defer t.mu.Unlock()
	needle := strings.ToLower(strings.TrimSpace(t.filter))
	var out []models.Tag
	for _, tag := range t.all {
		if models.HasTag(t.attached, tag.ID) {
			continue
		}
		if needle == "" || strings.Contains(strings.ToLower(tag.Name), needle) {
			out = append(out, tag)
		}
	}
	return out
}

// CanCreate reports whether the filter names a tag that does not exist yet.
func (t *Manager) CanCreate() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := strings.TrimSpace(t.filter)
	return name != "" && t.exactLocked(name) == nil
}

func (t *Manager) exactLocked(name string) *models.Tag {
	for i := range t.all {
		if strings.EqualFold(t.all[i].Name, name) {
			return &t.all[i]
		}
	}
	return nil
}

// Select attaches tagID and closes. Selecting an attached tag only closes.
func (t *Manager) Select(ctx context.Context, tagID uuid.UUID) error {
	t.mu.Lock()
	if err := t.readyLocked(); err != nil {
		t.mu.Unlock()
		return err
	}
	if models.HasTag(t.attached, tagID) {
		t.state, t.filter = StateClosed, ""
		t.mu.Unlock()
		return nil
	}
	t.state = StateBusy
	t.mu.Unlock()

	return t.finish(t.target.attach(ctx, tagID))
}

// CreateAndAttach attaches the tag named by the filter, creating it first
// unless a tag with that name (ignoring case) is already loaded.
func (t *Manager) CreateAndAttach(ctx context.Context) error {
	t.mu.Lock()
	if err := t.readyLocked(); err != nil {
		t.mu.Unlock()
		return err
	}
	name := strings.TrimSpace(t.filter)
	if name == "" {
		t.mu.Unlock()
		return ErrEmptyName
	}
	if existing := t.exactLocked(name); existing != nil {
		id := existing.ID
		t.mu.Unlock()
		return t.Select(ctx, id)
	}
	t.state = StateBusy
	t.mu.Unlock()

	tag, err := t.create(ctx, name)
	if err != nil {
		return t.finish(nil, err)
	}
	return t.finish(t.target.attach(ctx, tag.ID))
}

// create makes the tag, falling back to a reload when another client won the race.
func (t *Manager) create(ctx context.Context, name string) (*models.Tag, error) {
	tag, err := t.svc.CreateTag(ctx, models.TagCreate{Name: name})
	if err == nil {
		t.mu.Lock()
		t.all = append(t.all, *tag)
		t.mu.Unlock()
		return tag, nil
	}
	if !api.IsConflict(err) {
		return nil, err
	}
	all, lerr := t.svc.ListAllTags(ctx)
	if lerr != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.all = all
	if existing := t.exactLocked(name); existing != nil {
		found := *existing
		return &found, nil
	}
	return nil, fmt.Errorf("tag %q: %w", name, err)
}

// Detach removes tagID. It does not need the picker to be open.
func (t *Manager) Detach(ctx context.Context, tagID uuid.UUID) error {
	t.mu.Lock()
	if t.state == StateBusy || t.state == StateLoading {
		t.mu.Unlock()
		return ErrBusy
	}
	if !models.HasTag(t.attached, tagID) {
		t.mu.Unlock()
		return nil
	}
	prev := t.state
	t.state = StateBusy
	t.mu.Unlock()

	tags, err := t.target.detach(ctx, tagID)
	if err != nil {
		t.mu.Lock()
		t.state, t.err = prev, err
		t.mu.Unlock()
		return err
	}
	t.apply(tags, prev)
	return nil
}

func (t *Manager) readyLocked() error {
	switch t.state {
	case StateOpen:
		return nil
	case StateBusy, StateLoading:
		return ErrBusy
	}
	return ErrClosed
}

// finish records the outcome of an attach. Success closes the picker;
// failure leaves it open with the filter intact.
func (t *Manager) finish(tags []models.Tag, err error) error {
	if err != nil {
		t.mu.Lock()
		t.state, t.err = StateOpen, err
		t.mu.Unlock()
		t.logger.Warn().Err(err).Msg("attach tag failed")
		return err
	}
	t.apply(tags, StateClosed)
	return nil
}

func (t *Manager) apply(tags []models.Tag, next State) {
	if tags == nil {
		tags = []models.Tag{}
	}
	t.mu.Lock()
	t.attached = append([]models.Tag{}, tags...)
	t.state, t.err = next, nil
	if next == StateClosed {
		t.filter = ""
	}
	t.mu.Unlock()

	t.target.publish(t.cache, tags)
	if t.onChange != nil {
		t.onChange(append([]models.Tag{}, tags...))
	}
}
