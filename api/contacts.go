// ABOUTME: Contact endpoints of the CRM API
// ABOUTME: List, get, create, patch and tag toggles for contacts
package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/models"
)

const contactsResource = "contacts"

type ContactFilters struct {
	Query          string
	Status         string
	Category       string
	OrganizationID *uuid.UUID
	TagIDs         []uuid.UUID
	SortBy         string
	PageNum        int
	PageSize       int
}

// Key is the resource-relative request path, which also identifies the result in a cache.
func (f ContactFilters) Key() string {
	num, size := pageDefaults(f.PageNum, f.PageSize)
	return WithQueryParams(contactsResource, Params{
		{"q", f.Query},
		{"status", f.Status},
		{"category", f.Category},
		{"organization_id", f.OrganizationID},
		{"tag_ids", f.TagIDs},
		{"sort_by", f.SortBy},
		{"page_num", num},
		{"page_size", size},
	})
}

func ContactKey(id uuid.UUID) string {
	return contactsResource + "/" + id.String()
}

func (c *Client) ListContacts(ctx context.Context, f ContactFilters) (*models.Page[models.Contact], error) {
	var page models.Page[models.Contact]
	if err := c.t.GetJSON(ctx, c.path(f.Key()), "List contacts", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	var contact models.Contact
	if err := c.t.GetJSON(ctx, c.path(ContactKey(id)), "Get contact", &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) CreateContact(ctx context.Context, req models.ContactCreate) (*models.Contact, error) {
	var contact models.Contact
	if err := c.t.PostJSON(ctx, c.path(contactsResource), "Create contact", req, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (c *Client) PatchContact(ctx context.Context, id uuid.UUID, patch models.ContactPatch) (*models.Contact, error) {
	var contact models.Contact
	if err := c.t.PatchJSON(ctx, c.path(ContactKey(id)), "Update contact", patch, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// AddTagToContact returns the contact's full tag list after the attach.
func (c *Client) AddTagToContact(ctx context.Context, contactID, tagID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.t.PostJSON(ctx, c.path(ContactKey(contactID), "tags", tagID.String()), "Add tag", struct{}{}, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *Client) RemoveTagFromContact(ctx context.Context, contactID, tagID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.t.DeleteJSON(ctx, c.path(ContactKey(contactID), "tags", tagID.String()), "Remove tag", &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func pageDefaults(num, size int) (int, int) {
	if num < 0 {
		num = 0
	}
	if size <= 0 {
		size = models.DefaultPageSize
	}
	return num, size
}
