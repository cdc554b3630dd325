// ABOUTME: Binds the tag manager to one contact or organization
// ABOUTME: Knows the toggle endpoints, the entity's cache key and which lists to refresh
package tags

import (
	"context"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
)

type ContactTagger interface {
	AddTagToContact(ctx context.Context, contactID, tagID uuid.UUID) ([]models.Tag, error)
	RemoveTagFromContact(ctx context.Context, contactID, tagID uuid.UUID) ([]models.Tag, error)
}

type OrganizationTagger interface {
	AddTagToOrganization(ctx context.Context, orgID, tagID uuid.UUID) ([]models.Tag, error)
	RemoveTagFromOrganization(ctx context.Context, orgID, tagID uuid.UUID) ([]models.Tag, error)
}

// Target is the entity whose tags are being edited.
type Target struct {
	Kind models.EntityType
	ID   uuid.UUID

	attach  func(ctx context.Context, tagID uuid.UUID) ([]models.Tag, error)
	detach  func(ctx context.Context, tagID uuid.UUID) ([]models.Tag, error)
	key     string
	replace func(cached any, tags []models.Tag) (any, bool)
	changed func(m *cache.Manager)
}

func ForContact(svc ContactTagger, id uuid.UUID) Target {
	return Target{
		Kind: models.EntityContact,
		ID:   id,
		attach: func(ctx context.Context, tagID uuid.UUID) ([]models.Tag, error) {
			return svc.AddTagToContact(ctx, id, tagID)
		},
		detach: func(ctx context.Context, tagID uuid.UUID) ([]models.Tag, error) {
			return svc.RemoveTagFromContact(ctx, id, tagID)
		},
		key: api.ContactKey(id),
		replace: func(cached any, tags []models.Tag) (any, bool) {
			c, ok := cached.(*models.Contact)
			if !ok || c == nil {
				return nil, false
			}
			next := *c
			next.Tags = tags
			return &next, true
		},
		changed: query.ContactsChanged,
	}
}

func ForOrganization(svc OrganizationTagger, id uuid.UUID) Target {
	return Target{
		Kind: models.EntityOrganization,
		ID:   id,
		attach: func(ctx context.Context, tagID uuid.UUID) ([]models.Tag, error) {
			return svc.AddTagToOrganization(ctx, id, tagID)
		},
		detach: func(ctx context.Context, tagID uuid.UUID) ([]models.Tag, error) {
			return svc.RemoveTagFromOrganization(ctx, id, tagID)
		},
		key: api.OrganizationKey(id),
		replace: func(cached any, tags []models.Tag) (any, bool) {
			o, ok := cached.(*models.Organization)
			if !ok || o == nil {
				return nil, false
			}
			next := *o
			next.Tags = tags
			return &next, true
		},
		changed: query.OrganizationsChanged,
	}
}

// publish writes tags into the cached entity, then refreshes lists of its kind.
func (t Target) publish(m *cache.Manager, tags []models.Tag) {
	if m == nil {
		return
	}
	if v, ok := t.replace(m.Get(t.key).Data, tags); ok {
		m.Mutate(t.key, v)
	}
	t.changed(m)
	query.TagsChanged(m)
}
