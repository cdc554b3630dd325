// ABOUTME: Contact CLI commands
// ABOUTME: List, show, create, update and tag contacts through the cached API client
package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/forms"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
	"github.com/harperreed/crmview/tags"
)

type ContactsCmd struct {
	List   ContactListCmd   `cmd:"" default:"withargs" help:"List contacts."`
	Get    ContactGetCmd    `cmd:"" help:"Show one contact."`
	Add    ContactAddCmd    `cmd:"" help:"Create a contact."`
	Update ContactUpdateCmd `cmd:"" help:"Change fields of a contact."`
	Tag    ContactTagCmd    `cmd:"" help:"Attach a tag, creating it if needed."`
	Untag  ContactUntagCmd  `cmd:"" help:"Detach a tag."`
}

type ContactListCmd struct {
	Query    string   `short:"q" help:"Match name or email."`
	Status   string   `help:"Only this stage."`
	Category string   `help:"Only this category."`
	Org      string   `help:"Only contacts of this organization ID."`
	Tag      []string `help:"Only contacts with any of these tag IDs."`
	Sort     string   `help:"Sort key understood by the server."`
	Page     int      `help:"Zero-based page number." default:"0"`
	PageSize int      `help:"Results per page." default:"25"`
}

func (c *ContactListCmd) Run(ctx context.Context, a *App) error {
	org, err := optionalID("organization", c.Org)
	if err != nil {
		return err
	}
	tagIDs, err := parseIDs("tag", c.Tag)
	if err != nil {
		return err
	}
	f := api.ContactFilters{
		Query:          c.Query,
		Status:         c.Status,
		Category:       c.Category,
		OrganizationID: org,
		TagIDs:         tagIDs,
		SortBy:         c.Sort,
		PageNum:        c.Page,
		PageSize:       c.PageSize,
	}
	page, err := fetch(ctx, a, f.Key(), func(ctx context.Context) (*models.Page[models.Contact], error) {
		return a.Client.ListContacts(ctx, f)
	})
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(page)
	}
	if len(page.Items) == 0 {
		a.printf("No contacts found\n")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tSTATUS\tTAGS\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t------\t----\t--")
	for _, ct := range page.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			ct.DisplayName(), dash(ct.Email), dash(ct.Status), dash(tagNames(ct.Tags)), ct.ID)
	}
	_ = w.Flush()
	printPager(a, f.PageNum, f.PageSize, page.TotalItems)
	return nil
}

type ContactGetCmd struct {
	ID string `arg:"" help:"Contact ID."`
}

func (c *ContactGetCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("contact", c.ID)
	if err != nil {
		return err
	}
	ct, err := fetch(ctx, a, api.ContactKey(id), func(ctx context.Context) (*models.Contact, error) {
		return a.Client.GetContact(ctx, id)
	})
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(ct)
	}
	printContact(a, ct)
	return nil
}

func printContact(a *App, ct *models.Contact) {
	a.printf("%s (ID: %s)\n", ct.DisplayName(), ct.ID)
	for _, f := range [][2]string{
		{"Email", ct.Email},
		{"Phone", ct.Phone},
		{"Title", ct.Title},
		{"Status", ct.Status},
		{"Category", ct.Category},
		{"Source", string(ct.Source)},
		{"LinkedIn", ct.LinkedInURL},
		{"Location", ct.Location},
		{"Tags", tagNames(ct.Tags)},
		{"Notes", ct.Notes},
	} {
		if f[1] != "" {
			a.printf("  %s: %s\n", f[0], f[1])
		}
	}
	if ct.OrganizationID != nil {
		a.printf("  Organization: %s\n", ct.OrganizationID)
	}
}

// ContactFields are the editable flags shared by add and update.
type ContactFields struct {
	FirstName string `name:"first-name" help:"First name."`
	LastName  string `name:"last-name" help:"Last name."`
	Email     string `help:"Email address."`
	Phone     string `help:"Phone number."`
	Title     string `help:"Job title."`
	Org       string `help:"Organization ID." xor:"org"`
	NoOrg     bool   `name:"no-org" help:"Unlink the contact from its organization." xor:"org"`
	Source    string `help:"manual, import, referral, inbound or other."`
	Status    string `help:"Stage, one of the tenant's configured stages."`
	Category  string `help:"Free-form category."`
	Notes     string `help:"Notes."`
	LinkedIn  string `name:"linkedin" help:"LinkedIn profile URL."`
	Location  string `help:"Location."`
}

// apply copies every non-empty flag onto v.
func (f ContactFields) apply(v *forms.ContactValues) error {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&v.FirstName, f.FirstName)
	set(&v.LastName, f.LastName)
	set(&v.Email, f.Email)
	set(&v.Phone, f.Phone)
	set(&v.Title, f.Title)
	set(&v.Status, f.Status)
	set(&v.Category, f.Category)
	set(&v.Notes, f.Notes)
	set(&v.LinkedInURL, f.LinkedIn)
	set(&v.Location, f.Location)
	if f.Source != "" {
		v.Source = models.ContactSource(f.Source)
	}
	org, err := optionalID("organization", f.Org)
	if err != nil {
		return err
	}
	if org != nil {
		v.OrganizationID = org
	}
	if f.NoOrg {
		v.OrganizationID = nil
	}
	return nil
}

type ContactAddCmd struct {
	ContactFields `embed:""`
}

func (c *ContactAddCmd) Run(ctx context.Context, a *App) error {
	settings, err := query.FetchSettings(ctx, a.Cache, a.Client)
	if err != nil {
		a.Logger.Debug().Err(err).Msg("settings unavailable, using default stages")
		settings = nil
	}
	form := forms.NewContactForm(a.Client, settings)
	form.Cache = a.Cache
	if err := c.apply(&form.Values); err != nil {
		return err
	}
	saved, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(saved)
	}
	a.printf("✓ Contact created: %s (ID: %s)\n", saved.DisplayName(), saved.ID)
	return nil
}

type ContactUpdateCmd struct {
	ID            string `arg:"" help:"Contact ID."`
	ContactFields `embed:""`
}

func (c *ContactUpdateCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("contact", c.ID)
	if err != nil {
		return err
	}
	current, err := a.Client.GetContact(ctx, id)
	if err != nil {
		return err
	}
	settings, err := query.FetchSettings(ctx, a.Cache, a.Client)
	if err != nil {
		settings = nil
	}
	form := forms.EditContactForm(a.Client, current, settings)
	form.Cache = a.Cache
	if err := c.apply(&form.Values); err != nil {
		return err
	}
	saved, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(saved)
	}
	a.printf("✓ %s: %s\n", form.Status, saved.ID)
	return nil
}

type ContactTagCmd struct {
	ID  string `arg:"" help:"Contact ID."`
	Tag string `arg:"" help:"Tag name or ID."`
}

func (c *ContactTagCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("contact", c.ID)
	if err != nil {
		return err
	}
	current, err := a.Client.GetContact(ctx, id)
	if err != nil {
		return err
	}
	return attachTag(ctx, a, tags.ForContact(a.Client, id), current.Tags, c.Tag)
}

type ContactUntagCmd struct {
	ID  string `arg:"" help:"Contact ID."`
	Tag string `arg:"" help:"Tag name or ID."`
}

func (c *ContactUntagCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("contact", c.ID)
	if err != nil {
		return err
	}
	current, err := a.Client.GetContact(ctx, id)
	if err != nil {
		return err
	}
	return detachTag(ctx, a, tags.ForContact(a.Client, id), current.Tags, c.Tag)
}

func tagNames(ts []models.Tag) string {
	names := make([]string, 0, len(ts))
	for _, t := range ts {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}

func printPager(a *App, pageNum, pageSize, total int) {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	pages := models.TotalPages(total, pageSize)
	if pages > 1 {
		a.printf("\nPage %d of %d (%d total)\n", pageNum+1, pages, total)
	}
}
