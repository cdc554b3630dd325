// ABOUTME: Organization endpoints of the CRM API
// ABOUTME: Mirrors the contact operations for organizations
package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/models"
)

const organizationsResource = "organizations"

type OrganizationFilters struct {
	Query    string
	Type     models.OrganizationType
	TagIDs   []uuid.UUID
	SortBy   string
	PageNum  int
	PageSize int
}

func (f OrganizationFilters) Key() string {
	num, size := pageDefaults(f.PageNum, f.PageSize)
	return WithQueryParams(organizationsResource, Params{
		{"q", f.Query},
		{"type", string(f.Type)},
		{"tag_ids", f.TagIDs},
		{"sort_by", f.SortBy},
		{"page_num", num},
		{"page_size", size},
	})
}

func OrganizationKey(id uuid.UUID) string {
	return organizationsResource + "/" + id.String()
}

func (c *Client) ListOrganizations(ctx context.Context, f OrganizationFilters) (*models.Page[models.Organization], error) {
	var page models.Page[models.Organization]
	if err := c.t.GetJSON(ctx, c.path(f.Key()), "List organizations", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := c.t.GetJSON(ctx, c.path(OrganizationKey(id)), "Get organization", &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *Client) CreateOrganization(ctx context.Context, req models.OrganizationCreate) (*models.Organization, error) {
	var org models.Organization
	if err := c.t.PostJSON(ctx, c.path(organizationsResource), "Create organization", req, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *Client) PatchOrganization(ctx context.Context, id uuid.UUID, patch models.OrganizationPatch) (*models.Organization, error) {
	var org models.Organization
	if err := c.t.PatchJSON(ctx, c.path(OrganizationKey(id)), "Update organization", patch, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func (c *Client) AddTagToOrganization(ctx context.Context, orgID, tagID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.t.PostJSON(ctx, c.path(OrganizationKey(orgID), "tags", tagID.String()), "Add tag", struct{}{}, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (c *Client) RemoveTagFromOrganization(ctx context.Context, orgID, tagID uuid.UUID) ([]models.Tag, error) {
	var tags []models.Tag
	if err := c.t.DeleteJSON(ctx, c.path(OrganizationKey(orgID), "tags", tagID.String()), "Remove tag", &tags); err != nil {
		return nil, err
	}
	return tags, nil
}
