// ABOUTME: Settings and search CLI commands
// ABOUTME: Settings changes go through the optimistic settings form
package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/forms"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
)

type SettingsCmd struct {
	Show SettingsShowCmd `cmd:"" default:"withargs" help:"Show CRM settings."`
	Set  SettingsSetCmd  `cmd:"" help:"Change one setting."`
}

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx context.Context, a *App) error {
	s, err := fetch(ctx, a, api.SettingsKey, a.Client.GetSettings)
	if err != nil {
		return err
	}
	return printSettings(a, *s)
}

func printSettings(a *App, s models.Settings) error {
	if a.JSON {
		return a.printJSON(s)
	}
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "enabled\t%t\n", s.Enabled)
	_, _ = fmt.Fprintf(w, "tier2_enabled\t%t\n", s.Tier2Enabled)
	_, _ = fmt.Fprintf(w, "tier3_deals\t%t\n", s.Tier3Deals)
	_, _ = fmt.Fprintf(w, "tier3_custom_fields\t%t\n", s.Tier3CustomFields)
	_, _ = fmt.Fprintf(w, "contact_stage_options\t%s\n", strings.Join(models.AllowedStages(&s), ", "))
	_, _ = fmt.Fprintf(w, "contact_category_suggestions\t%s\n", strings.Join(models.CategorySuggestions(&s), ", "))
	if s.UpdatedAt != nil {
		_, _ = fmt.Fprintf(w, "updated_at\t%s\n", s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"enabled, tier2_enabled, tier3_deals, tier3_custom_fields, contact_stage_options or contact_category_suggestions."`
	Value string `arg:"" help:"true/false for flags, a comma-separated list otherwise."`
}

func (c *SettingsSetCmd) patch() (models.SettingsPatch, error) {
	var p models.SettingsPatch
	if flag, ok := forms.ParseSettingsFlag(c.Key); ok {
		v, err := strconv.ParseBool(c.Value)
		if err != nil {
			return p, fmt.Errorf("%s expects true or false, got %q", c.Key, c.Value)
		}
		switch flag {
		case forms.FlagEnabled:
			p.Enabled = &v
		case forms.FlagTier2:
			p.Tier2Enabled = &v
		case forms.FlagTier3Deals:
			p.Tier3Deals = &v
		case forms.FlagTier3CustomFields:
			p.Tier3CustomFields = &v
		}
		return p, nil
	}
	list := strings.Split(c.Value, ",")
	switch c.Key {
	case "contact_stage_options":
		p.ContactStageOptions = &list
	case "contact_category_suggestions":
		p.ContactCategorySuggestions = &list
	default:
		return p, fmt.Errorf("unknown setting %q", c.Key)
	}
	return p, nil
}

func (c *SettingsSetCmd) Run(ctx context.Context, a *App) error {
	patch, err := c.patch()
	if err != nil {
		return err
	}
	current, err := query.FetchSettings(ctx, a.Cache, a.Client)
	if err != nil {
		return err
	}
	form := forms.NewSettingsForm(a.Client, *current, forms.LogNotifier{Logger: a.Logger}, a.Cache, nil)
	if err := form.Update(ctx, patch); err != nil {
		return err
	}
	return printSettings(a, form.Settings())
}

type SearchCmd struct {
	Query    string   `arg:"" help:"Text to search for."`
	Type     []string `help:"Restrict to contact, organization, interaction or tag." enum:"contact,organization,interaction,tag"`
	Page     int      `help:"Zero-based page number." default:"0"`
	PageSize int      `help:"Results per page." default:"25"`
}

func (c *SearchCmd) Run(ctx context.Context, a *App) error {
	f := api.SearchFilters{Query: strings.TrimSpace(c.Query), PageNum: c.Page, PageSize: c.PageSize}
	if f.Query == "" {
		return fmt.Errorf("search text is required")
	}
	for _, t := range c.Type {
		f.EntityTypes = append(f.EntityTypes, models.EntityType(t))
	}
	page, err := fetch(ctx, a, f.Key(), func(ctx context.Context) (*models.Page[models.SearchResultItem], error) {
		return a.Client.Search(ctx, f)
	})
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(page)
	}
	if len(page.Items) == 0 {
		a.printf("No results for %q\n", f.Query)
		return nil
	}
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TYPE\tMATCH\tDETAIL\tID")
	for _, r := range page.Items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.EntityType, r.PrimaryText, dash(r.SecondaryText), r.EntityID)
	}
	_ = w.Flush()
	printPager(a, f.PageNum, f.PageSize, page.TotalItems)
	return nil
}
