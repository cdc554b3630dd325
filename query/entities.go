// ABOUTME: Single-entity queries for contacts, organizations and tenant settings
// ABOUTME: A nil id leaves the query idle; invalidation helpers follow mutations
package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/models"
)

type ContactGetter interface {
	GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
}

type OrganizationGetter interface {
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
}

type SettingsGetter interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
}

type (
	ContactQuery      = Query[*uuid.UUID, *models.Contact]
	OrganizationQuery = Query[*uuid.UUID, *models.Organization]
	SettingsQuery     = Query[struct{}, *models.Settings]
)

func idKey(keyOf func(uuid.UUID) string) KeyFunc[*uuid.UUID] {
	return func(id *uuid.UUID) (string, bool) {
		if id == nil {
			return "", false
		}
		return keyOf(*id), true
	}
}

// NewContact follows one contact. Pass a nil id to suppress fetching.
func NewContact(m *cache.Manager, svc ContactGetter, id *uuid.UUID, onChange func(State[*models.Contact])) *ContactQuery {
	fetch := func(ctx context.Context, id *uuid.UUID) (*models.Contact, error) {
		return svc.GetContact(ctx, *id)
	}
	return New[*uuid.UUID, *models.Contact](m, id, idKey(api.ContactKey), fetch, onChange)
}

func NewOrganization(m *cache.Manager, svc OrganizationGetter, id *uuid.UUID, onChange func(State[*models.Organization])) *OrganizationQuery {
	fetch := func(ctx context.Context, id *uuid.UUID) (*models.Organization, error) {
		return svc.GetOrganization(ctx, *id)
	}
	return New[*uuid.UUID, *models.Organization](m, id, idKey(api.OrganizationKey), fetch, onChange)
}

func NewSettings(m *cache.Manager, svc SettingsGetter, onChange func(State[*models.Settings])) *SettingsQuery {
	keyFn := func(struct{}) (string, bool) { return api.SettingsKey, true }
	fetch := func(ctx context.Context, _ struct{}) (*models.Settings, error) {
		return svc.GetSettings(ctx)
	}
	return New[struct{}, *models.Settings](m, struct{}{}, keyFn, fetch, onChange)
}

// FetchSettings reads settings through the cache without subscribing.
func FetchSettings(ctx context.Context, m *cache.Manager, svc SettingsGetter) (*models.Settings, error) {
	v, err := m.Fetch(ctx, api.SettingsKey, cache.LoaderFor(svc.GetSettings), cache.DefaultDedupeInterval)
	if err != nil {
		return nil, err
	}
	s, _ := v.(*models.Settings)
	return s, nil
}

// Key prefixes of each resource family.
const (
	contactsPrefix      = "contacts"
	organizationsPrefix = "organizations"
	interactionsPrefix  = "interactions"
	tagsPrefix          = "tags"
	searchPrefix        = "search"
)

// ContactsChanged refreshes every contact list, contact detail and search result.
func ContactsChanged(m *cache.Manager) {
	m.Invalidate(contactsPrefix)
	m.Invalidate(searchPrefix)
}

func OrganizationsChanged(m *cache.Manager) {
	m.Invalidate(organizationsPrefix)
	m.Invalidate(searchPrefix)
}

func InteractionsChanged(m *cache.Manager) {
	m.Invalidate(interactionsPrefix)
	m.Invalidate(searchPrefix)
}

func TagsChanged(m *cache.Manager) {
	m.Invalidate(tagsPrefix)
	m.Invalidate(searchPrefix)
}

// SettingsChanged stores confirmed settings so every follower sees them.
func SettingsChanged(m *cache.Manager, s *models.Settings) {
	m.Mutate(api.SettingsKey, s)
}
