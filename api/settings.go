// ABOUTME: Tenant settings and global search endpoints of the CRM API
// ABOUTME: Settings are admin-only; search spans contacts, organizations, interactions and tags
package api

import (
	"context"

	"github.com/harperreed/crmview/models"
)

const (
	SettingsKey    = "settings"
	searchResource = "search"
)

func (c *Client) GetSettings(ctx context.Context) (*models.Settings, error) {
	var s models.Settings
	if err := c.t.GetJSON(ctx, c.path(SettingsKey), "Get CRM settings", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) PatchSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	var s models.Settings
	if err := c.t.PatchJSON(ctx, c.path(SettingsKey), "Update CRM settings", patch, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

type SearchFilters struct {
	Query       string
	EntityTypes []models.EntityType
	PageNum     int
	PageSize    int
}

func (f SearchFilters) Key() string {
	num, size := pageDefaults(f.PageNum, f.PageSize)
	types := make([]string, 0, len(f.EntityTypes))
	for _, t := range f.EntityTypes {
		types = append(types, string(t))
	}
	return WithQueryParams(searchResource, Params{
		{"q", f.Query},
		{"entity_types", types},
		{"page_num", num},
		{"page_size", size},
	})
}

func (c *Client) Search(ctx context.Context, f SearchFilters) (*models.Page[models.SearchResultItem], error) {
	var page models.Page[models.SearchResultItem]
	if err := c.t.GetJSON(ctx, c.path(f.Key()), "Search CRM", &page); err != nil {
		return nil, err
	}
	return &page, nil
}
