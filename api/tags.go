// ABOUTME: Tag endpoints of the CRM API
// ABOUTME: Paged listing, full listing for pickers, and tag creation
package api

import (
	"context"

	"github.com/harperreed/crmview/models"
)

const tagsResource = "tags"

type TagFilters struct {
	Query    string
	PageNum  int
	PageSize int
}

func (f TagFilters) Key() string {
	num, size := pageDefaults(f.PageNum, f.PageSize)
	return WithQueryParams(tagsResource, Params{
		{"q", f.Query},
		{"page_num", num},
		{"page_size", size},
	})
}

func (c *Client) ListTags(ctx context.Context, f TagFilters) (*models.Page[models.Tag], error) {
	var page models.Page[models.Tag]
	if err := c.t.GetJSON(ctx, c.path(f.Key()), "List tags", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllTags walks every page at the maximum page size.
func (c *Client) ListAllTags(ctx context.Context) ([]models.Tag, error) {
	var all []models.Tag
	for num := 0; ; num++ {
		page, err := c.ListTags(ctx, TagFilters{PageNum: num, PageSize: models.MaxPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if len(page.Items) == 0 || len(all) >= page.TotalItems {
			return all, nil
		}
	}
}

// CreateTag fails with status 409 when the name already exists.
func (c *Client) CreateTag(ctx context.Context, req models.TagCreate) (*models.Tag, error) {
	var tag models.Tag
	if err := c.t.PostJSON(ctx, c.path(tagsResource), "Create tag", req, &tag); err != nil {
		return nil, err
	}
	return &tag, nil
}
