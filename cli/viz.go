// ABOUTME: Visualization CLI commands
// ABOUTME: Graph rendering for contacts and organizations, plus the text dashboard
package cli

import (
	"context"
	"os"

	"github.com/harperreed/crmview/viz"
)

type VizCmd struct {
	Contact      VizContactCmd      `cmd:"" help:"Graph a contact's organization, tags and interactions."`
	Organization VizOrganizationCmd `cmd:"" aliases:"org" help:"Graph an organization's people, tags and interactions."`
}

type vizOutput struct {
	Format string `help:"dot, svg or png." default:"dot" enum:"dot,svg,png"`
	Output string `short:"o" help:"Output file (default: stdout)." type:"path"`
}

func (v vizOutput) write(a *App, graph string) error {
	if v.Output != "" {
		return os.WriteFile(v.Output, []byte(graph), 0644)
	}
	a.printf("%s\n", graph)
	return nil
}

type VizContactCmd struct {
	ID        string    `arg:"" help:"Contact ID."`
	VizOutput vizOutput `embed:""`
}

func (c *VizContactCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("contact", c.ID)
	if err != nil {
		return err
	}
	format, err := viz.ParseFormat(c.VizOutput.Format)
	if err != nil {
		return err
	}
	graph, err := viz.NewGraphGenerator(a.Client).WithFormat(format).GenerateContactGraph(ctx, id)
	if err != nil {
		return err
	}
	return c.VizOutput.write(a, graph)
}

type VizOrganizationCmd struct {
	ID        string    `arg:"" help:"Organization ID."`
	VizOutput vizOutput `embed:""`
}

func (c *VizOrganizationCmd) Run(ctx context.Context, a *App) error {
	id, err := parseID("organization", c.ID)
	if err != nil {
		return err
	}
	format, err := viz.ParseFormat(c.VizOutput.Format)
	if err != nil {
		return err
	}
	graph, err := viz.NewGraphGenerator(a.Client).WithFormat(format).GenerateOrganizationGraph(ctx, id)
	if err != nil {
		return err
	}
	return c.VizOutput.write(a, graph)
}

type DashboardCmd struct{}

func (c *DashboardCmd) Run(ctx context.Context, a *App) error {
	stats, err := viz.GenerateDashboardStats(ctx, a.Client)
	if err != nil {
		return err
	}
	if a.JSON {
		return a.printJSON(stats)
	}
	a.printf("%s", viz.RenderDashboard(stats))
	return nil
}
