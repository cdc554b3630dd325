// ABOUTME: Organization CLI commands
// ABOUTME: List, show, create, update and tag organizations
package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/forms"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/tags"
)

type OrganizationsCmd struct {
	List   OrganizationListCmd   `cmd:"" default:"withargs" help:"List organizations."`
	Get    OrganizationGetCmd    `cmd:"" help:"Show one organization and its people."`
	Add    OrganizationAddCmd    `cmd:"" help:"Create an organization."`
	Update OrganizationUpdateCmd `cmd:"" help:"Change fields of an organization."`
	Tag    OrganizationTagCmd    `cmd:"" help:"Attach a tag, creating it if needed."`
	Untag  OrganizationUntagCmd  `cmd:"" help:"Detach a tag."`
}

type OrganizationListCmd struct {
	Query    string   `short:"q" help:"Match name."`
	Type     string   `help:"customer, prospect, partner, vendor or other."`
	Tag      []string `help:"Only organizations with any of these tag IDs."`
	Sort     string   `help:"Sort key understood by the server."`
	Page     int      `help:"Zero-based page number." default:"0"`
	PageSize int      `help:"Results per page." default:"25"`
}

func (c *OrganizationListCmd) Run(ctx context.Context, a *App) error {
	tagIDs, err := parseIDs("tag", c.Tag)
	if err != nil {
		return err
	}
	f := api.OrganizationFilters{
		Query:    c.Query,
		Type:     models.OrganizationType(c.Type),
		TagIDs:   tagIDs,
		SortBy:   c.Sort,
		PageNum:  c.Page,
		PageSize: c.PageSize,
	}
	page, err := fetch(ctx, a, f.Key(), func(ctx context.Context) (*models.Page[models.Organization], error) {
		return a.Client.ListOrganizations(ctx, f)
	})
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(page)
	}
	if len(page.Items) == 0 {
		a.printf("No organizations found\n")
		return nil
	}

	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tTYPE\tWEBSITE\tTAGS\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-------\t----\t--")
	for _, o := range page.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			o.Name, dash(string(o.Type)), dash(o.Website), dash(tagNames(o.Tags)), o.ID)
	}
	_ = w.Flush()
	printPager(a, f.PageNum, f.PageSize, page.TotalItems)
	return nil
}

type OrganizationGetCmd struct {
	ID string `arg:"" help:"Organization ID."`
}

func (c *OrganizationGetCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("organization", c.ID)
	if err != nil {
		return err
	}
	org, err := fetch(ctx, a, api.OrganizationKey(id), func(ctx context.Context) (*models.Organization, error) {
		return a.Client.GetOrganization(ctx, id)
	})
	if err != nil {
		return err
	}
	pf := api.ContactFilters{OrganizationID: &id}
	people, err := fetch(ctx, a, pf.Key(), func(ctx context.Context) (*models.Page[models.Contact], error) {
		return a.Client.ListContacts(ctx, pf)
	})
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(struct {
			*models.Organization
			Contacts []models.Contact `json:"contacts"`
		}{org, people.Items})
	}

	a.printf("%s (ID: %s)\n", org.Name, org.ID)
	for _, f := range [][2]string{
		{"Type", string(org.Type)},
		{"Website", org.Website},
		{"Sector", org.Sector},
		{"Location", org.Location},
		{"Size", org.Size},
		{"Tags", tagNames(org.Tags)},
		{"Notes", org.Notes},
	} {
		if f[1] != "" {
			a.printf("  %s: %s\n", f[0], f[1])
		}
	}
	if len(people.Items) > 0 {
		a.printf("\n  Contacts (%d):\n", people.TotalItems)
		for _, p := range people.Items {
			a.printf("    - %s %s\n", p.DisplayName(), dash(p.Email))
		}
	}
	return nil
}

type OrganizationFields struct {
	Name     string `help:"Organization name."`
	Website  string `help:"Website URL."`
	Type     string `help:"customer, prospect, partner, vendor or other."`
	Sector   string `help:"Sector."`
	Location string `help:"Location."`
	Size     string `help:"Size band."`
	Notes    string `help:"Notes."`
}

func (f OrganizationFields) apply(v *forms.OrganizationValues) {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&v.Name, f.Name)
	set(&v.Website, f.Website)
	set(&v.Sector, f.Sector)
	set(&v.Location, f.Location)
	set(&v.Size, f.Size)
	set(&v.Notes, f.Notes)
	if f.Type != "" {
		v.Type = models.OrganizationType(f.Type)
	}
}

type OrganizationAddCmd struct {
	OrganizationFields `embed:""`
}

func (c *OrganizationAddCmd) Run(ctx context.Context, a *App) error {
	form := forms.NewOrganizationForm(a.Client)
	form.Cache = a.Cache
	c.apply(&form.Values)
	saved, err := form.Submit(ctx)
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(saved)
	}
	a.printf("✓ Organization created: %s (ID: %s)\n", saved.Name, saved.ID)
	return nil
}

type OrganizationUpdateCmd struct {
	ID                 string `arg:"" help:"Organization ID."`
	OrganizationFields `embed:""`
}

func (c *OrganizationUpdateCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("organization", c.ID)
	if err != nil {
		return err
	}
	current, err := a.Client.GetOrganization(ctx, id)
	if err != nil {
		return err
	}
	form := forms.EditOrganizationForm(a.Client, current)
	form.Cache = a.Cache
	c.apply(&form.Values)
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

type OrganizationTagCmd struct {
	ID  string `arg:"" help:"Organization ID."`
	Tag string `arg:"" help:"Tag name or ID."`
}

func (c *OrganizationTagCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("organization", c.ID)
	if err != nil {
		return err
	}
	current, err := a.Client.GetOrganization(ctx, id)
	if err != nil {
		return err
	}
	return attachTag(ctx, a, tags.ForOrganization(a.Client, id), current.Tags, c.Tag)
}

type OrganizationUntagCmd struct {
	ID  string `arg:"" help:"Organization ID."`
	Tag string `arg:"" help:"Tag name or ID."`
}

func (c *OrganizationUntagCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("organization", c.ID)
	if err != nil {
		return err
	}
	current, err := a.Client.GetOrganization(ctx, id)
	if err != nil {
		return err
	}
	return detachTag(ctx, a, tags.ForOrganization(a.Client, id), current.Tags, c.Tag)
}
