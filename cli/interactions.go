// ABOUTME: Interaction CLI commands
// ABOUTME: Lists the timeline of a contact or organization and logs new interactions
package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/forms"
	"github.com/harperreed/crmview/models"
)

type InteractionsCmd struct {
	List InteractionListCmd `cmd:"" default:"withargs" help:"List interactions."`
	Log  InteractionLogCmd  `cmd:"" help:"Log a note, call, email, meeting or event."`
}

type InteractionListCmd struct {
	Contact  string `help:"Only interactions with this contact ID."`
	Org      string `help:"Only interactions with this organization ID."`
	Page     int    `help:"Zero-based page number." default:"0"`
	PageSize int    `help:"Results per page." default:"25"`
}

func (c *InteractionListCmd) Run(ctx context.Context, a *App) error {
	contact, err := optionalID("contact", c.Contact)
	if err != nil {
		return err
	}
	org, err := optionalID("organization", c.Org)
	if err != nil {
		return err
	}
	f := api.InteractionFilters{ContactID: contact, OrganizationID: org, PageNum: c.Page, PageSize: c.PageSize}
	page, err := fetch(ctx, a, f.Key(), func(ctx context.Context) (*models.Page[models.Interaction], error) {
		return a.Client.ListInteractions(ctx, f)
	})
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(page)
	}
	if len(page.Items) == 0 {
		a.printf("No interactions found\n")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tTYPE\tTITLE\tATTENDEES\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t---------\t--")
	for _, i := range page.Items {
		when := i.CreatedAt
		if i.OccurredAt != nil {
			when = *i.OccurredAt
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			when.Format("2006-01-02 15:04"), i.Type, dash(i.Title), len(i.Attendees), i.ID)
	}
	_ = w.Flush()
	printPager(a, f.PageNum, f.PageSize, page.TotalItems)
	return nil
}

type InteractionLogCmd struct {
	Contact   string   `help:"Contact ID."`
	Org       string   `help:"Organization ID."`
	Type      string   `help:"note, call, email, meeting or event." default:"note" enum:"note,call,email,meeting,event"`
	Title     string   `help:"Short title." required:""`
	Summary   string   `help:"What happened."`
	At        string   `help:"When it happened (2006-01-02 or RFC 3339). Defaults to now."`
	Attendee  []string `help:"Contact IDs that attended."`
	Organizer string   `help:"Contact ID of the organizer."`
}

func (c *InteractionLogCmd) Run(ctx context.Context, a *App) error {
	contact, err := optionalID("contact", c.Contact)
	if err != nil {
		return err
	}
	org, err := optionalID("organization", c.Org)
	if err != nil {
		return err
	}
	form := forms.NewInteractionForm(a.Client, contact, org)
	form.Cache = a.Cache
	form.Values.Type = models.InteractionType(c.Type)
	form.Values.Title = c.Title
	form.Values.Summary = c.Summary
	form.Values.OccurredAt = c.At

	attendees, err := parseIDs("attendee", c.Attendee)
	if err != nil {
		return err
	}
	for i := range attendees {
		form.Values.Attendees = append(form.Values.Attendees, models.AttendeeInput{ContactID: &attendees[i], Role: models.RoleAttendee})
	}
	organizer, err := optionalID("organizer", c.Organizer)
	if err != nil {
		return err
	}
	if organizer != nil {
		form.Values.Attendees = append(form.Values.Attendees, models.AttendeeInput{ContactID: organizer, Role: models.RoleOrganizer})
	}

	saved, err := form.Submit(ctx)
	var verr *forms.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("cannot log interaction: %w", err)
	}
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(saved)
	}
	a.printf("✓ %s (ID: %s)\n", form.Status, saved.ID)
	return nil
}
