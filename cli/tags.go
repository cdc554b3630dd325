// ABOUTME: Tag CLI commands and the attach/detach helpers used by contacts and organizations
// ABOUTME: Creation is refused client-side when a tag with the same name already exists
package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
	"github.com/harperreed/crmview/tags"
)

// allTagsKey caches the full catalogue; it shares the tags prefix so tag changes invalidate it.
const allTagsKey = "tags/all"

type TagsCmd struct {
	List TagListCmd `cmd:"" default:"withargs" help:"List every tag."`
	Add  TagAddCmd  `cmd:"" help:"Create a tag."`
}

func (a *App) allTags(ctx context.Context) ([]models.Tag, error) {
	return fetch(ctx, a, allTagsKey, a.Client.ListAllTags)
}

type TagListCmd struct {
	Filter string `arg:"" optional:"" help:"Only names containing this text."`
}

func (c *TagListCmd) Run(ctx context.Context, a *App) error {
	all, err := a.allTags(ctx)
	if err != nil {
		return err
	}
	var shown []models.Tag
	for _, t := range all {
		if c.Filter == "" || strings.Contains(strings.ToLower(t.Name), strings.ToLower(c.Filter)) {
			shown = append(shown, t)
		}
	}
	if a.JSON {
		if shown == nil {
			shown = []models.Tag{}
		}
		return a.printJSON(shown)
	}
	if len(shown) == 0 {
		a.printf("No tags found\n")
		return nil
	}
	w := tabwriter.NewWriter(a.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCOLOR\tID")
	for _, t := range shown {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, dash(t.Color), t.ID)
	}
	return w.Flush()
}

type TagAddCmd struct {
	Name  string `arg:"" help:"Tag name."`
	Color string `help:"Display color, e.g. #ff8800."`
}

func (c *TagAddCmd) Run(ctx context.Context, a *App) error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return tags.ErrEmptyName
	}
	all, err := a.allTags(ctx)
	if err != nil {
		return err
	}
	for _, t := range all {
		if strings.EqualFold(t.Name, name) {
			return fmt.Errorf("tag %q already exists (ID: %s)", t.Name, t.ID)
		}
	}
	tag, err := a.Client.CreateTag(ctx, models.TagCreate{Name: name, Color: c.Color})
	if err != nil {
		return err
	}
	query.TagsChanged(a.Cache)
	if a.JSON {
		return a.printJSON(tag)
	}
	a.printf("✓ Tag created: %s (ID: %s)\n", tag.Name, tag.ID)
	return nil
}

// attachTag attaches ref, an ID or a name. Unknown names are created.
func attachTag(ctx context.Context, a *App, target tags.Target, attached []models.Tag, ref string) error {
	m := tags.New(a.Client, target, attached, tags.WithCache(a.Cache), tags.WithLogger(a.Logger))
	if err := m.Open(ctx); err != nil {
		return err
	}
	if id, err := uuid.Parse(ref); err == nil {
		if err := m.Select(ctx, id); err != nil {
			return err
		}
	} else {
		m.SetFilter(ref)
		if err := m.CreateAndAttach(ctx); err != nil {
			return err
		}
	}
	return printTags(a, m.Attached())
}

// detachTag detaches ref, matched against the attached tags by ID or name.
func detachTag(ctx context.Context, a *App, target tags.Target, attached []models.Tag, ref string) error {
	var found *models.Tag
	for i, t := range attached {
		if t.ID.String() == ref || strings.EqualFold(t.Name, strings.TrimSpace(ref)) {
			found = &attached[i]
			break
		}
	}
	if found == nil {
		return fmt.Errorf("tag %q is not attached", ref)
	}
	m := tags.New(a.Client, target, attached, tags.WithCache(a.Cache), tags.WithLogger(a.Logger))
	if err := m.Detach(ctx, found.ID); err != nil {
		return err
	}
	return printTags(a, m.Attached())
}

func printTags(a *App, ts []models.Tag) error {
	if a.JSON {
		return a.printJSON(ts)
	}
	a.printf("✓ Tags: %s\n", dash(tagNames(ts)))
	return nil
}
