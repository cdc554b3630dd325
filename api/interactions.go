// ABOUTME: Interaction endpoints of the CRM API
// ABOUTME: Lists and logs notes, calls, emails, meetings and events
package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/models"
)

const interactionsResource = "interactions"

type InteractionFilters struct {
	ContactID      *uuid.UUID
	OrganizationID *uuid.UUID
	PageNum        int
	PageSize       int
}

func (f InteractionFilters) Key() string {
	num, size := pageDefaults(f.PageNum, f.PageSize)
	return WithQueryParams(interactionsResource, Params{
		{"contact_id", f.ContactID},
		{"organization_id", f.OrganizationID},
		{"page_num", num},
		{"page_size", size},
	})
}

func (c *Client) ListInteractions(ctx context.Context, f InteractionFilters) (*models.Page[models.Interaction], error) {
	var page models.Page[models.Interaction]
	if err := c.t.GetJSON(ctx, c.path(f.Key()), "List interactions", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// CreateInteraction logs an interaction. The server adds the caller as
// organizer and the contact as attendee when attendees are omitted.
func (c *Client) CreateInteraction(ctx context.Context, req models.InteractionCreate) (*models.Interaction, error) {
	var interaction models.Interaction
	if err := c.t.PostJSON(ctx, c.path(interactionsResource), "Log interaction", req, &interaction); err != nil {
		return nil, err
	}
	return &interaction, nil
}
