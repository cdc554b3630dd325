// ABOUTME: Graphviz renderings of a contact's or organization's neighbourhood
// ABOUTME: Nodes for the entity, its organization or people, tags and recent interactions
package viz

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/google/uuid"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/models"
)

// Source is the read side of the CRM API the graphs are drawn from.
type Source interface {
	GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	ListContacts(ctx context.Context, f api.ContactFilters) (*models.Page[models.Contact], error)
	ListInteractions(ctx context.Context, f api.InteractionFilters) (*models.Page[models.Interaction], error)
}

// RecentInteractions caps how many interactions are drawn per entity.
const RecentInteractions = 10

type GraphGenerator struct {
	src    Source
	format graphviz.Format
}

func NewGraphGenerator(src Source) *GraphGenerator {
	return &GraphGenerator{src: src, format: graphviz.XDOT}
}

// ParseFormat accepts dot, svg and png.
func ParseFormat(name string) (graphviz.Format, error) {
	switch strings.ToLower(name) {
	case "", "dot", "xdot":
		return graphviz.XDOT, nil
	case "svg":
		return graphviz.SVG, nil
	case "png":
		return graphviz.PNG, nil
	}
	return "", fmt.Errorf("unsupported format %q", name)
}

func (g *GraphGenerator) WithFormat(f graphviz.Format) *GraphGenerator {
	g.format = f
	return g
}

type builder struct {
	graph *cgraph.Graph
	nodes map[string]*cgraph.Node
}

func (b *builder) node(key, label string, shape cgraph.Shape, fill string) (*cgraph.Node, error) {
	if n, ok := b.nodes[key]; ok {
		return n, nil
	}
	n, err := b.graph.CreateNodeByName(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create node: %w", err)
	}
	n.SetLabel(label)
	n.SetShape(shape)
	n.SetStyle(cgraph.FilledNodeStyle)
	n.SetFillColor(fill)
	b.nodes[key] = n
	return n, nil
}

func (b *builder) edge(name string, from, to *cgraph.Node, label string) (*cgraph.Edge, error) {
	e, err := b.graph.CreateEdgeByName(name, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to create edge: %w", err)
	}
	if label != "" {
		e.SetLabel(label)
	}
	return e, nil
}

func (b *builder) tags(owner *cgraph.Node, tags []models.Tag) error {
	for _, t := range tags {
		n, err := b.node("tag_"+t.ID.String(), "#"+t.Name, cgraph.NoteShape, "lightyellow")
		if err != nil {
			return err
		}
		e, err := b.edge("tagged", owner, n, "")
		if err != nil {
			return err
		}
		e.SetStyle(cgraph.DottedEdgeStyle)
	}
	return nil
}

func (b *builder) interactions(owner *cgraph.Node, items []models.Interaction) error {
	for _, i := range items {
		label := string(i.Type)
		if i.Title != "" {
			label += "\n" + i.Title
		}
		if i.OccurredAt != nil {
			label += "\n" + i.OccurredAt.Format("2006-01-02")
		}
		n, err := b.node("interaction_"+i.ID.String(), label, cgraph.DiamondShape, "lavender")
		if err != nil {
			return err
		}
		if _, err := b.edge("logged", owner, n, ""); err != nil {
			return err
		}
	}
	return nil
}

// render lays out the graph built by fill.
func (g *GraphGenerator) render(ctx context.Context, title string, fill func(*builder) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel(title)
	graph.SetRankDir(cgraph.LRRank)

	if err := fill(&builder{graph: graph, nodes: map[string]*cgraph.Node{}}); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, g.format, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

// GenerateContactGraph draws a contact with its organization, tags and recent interactions.
func (g *GraphGenerator) GenerateContactGraph(ctx context.Context, id uuid.UUID) (string, error) {
	c, err := g.src.GetContact(ctx, id)
	if err != nil {
		return "", err
	}
	var org *models.Organization
	if c.OrganizationID != nil {
		if org, err = g.src.GetOrganization(ctx, *c.OrganizationID); err != nil && !api.IsNotFound(err) {
			return "", err
		}
	}
	interactions, err := g.src.ListInteractions(ctx, api.InteractionFilters{ContactID: &id, PageSize: RecentInteractions})
	if err != nil {
		return "", err
	}

	return g.render(ctx, c.DisplayName(), func(b *builder) error {
		label := c.DisplayName()
		if c.Email != "" {
			label += "\n" + c.Email
		}
		self, err := b.node("contact_"+c.ID.String(), label, cgraph.EllipseShape, "lightgreen")
		if err != nil {
			return err
		}
		if org != nil {
			on, err := b.node("organization_"+org.ID.String(), org.Name+"\n(Organization)", cgraph.BoxShape, "lightblue")
			if err != nil {
				return err
			}
			e, err := b.edge("works_at", self, on, "works at")
			if err != nil {
				return err
			}
			e.SetStyle(cgraph.DashedEdgeStyle)
		}
		if err := b.tags(self, c.Tags); err != nil {
			return err
		}
		return b.interactions(self, interactions.Items)
	})
}

// GenerateOrganizationGraph draws an organization with its people, tags and recent interactions.
func (g *GraphGenerator) GenerateOrganizationGraph(ctx context.Context, id uuid.UUID) (string, error) {
	org, err := g.src.GetOrganization(ctx, id)
	if err != nil {
		return "", err
	}
	people, err := g.src.ListContacts(ctx, api.ContactFilters{OrganizationID: &id, PageSize: models.MaxPageSize})
	if err != nil {
		return "", err
	}
	interactions, err := g.src.ListInteractions(ctx, api.InteractionFilters{OrganizationID: &id, PageSize: RecentInteractions})
	if err != nil {
		return "", err
	}

	return g.render(ctx, org.Name, func(b *builder) error {
		self, err := b.node("organization_"+org.ID.String(), org.Name+"\n(Organization)", cgraph.BoxShape, "lightblue")
		if err != nil {
			return err
		}
		for _, c := range people.Items {
			label := c.DisplayName()
			if c.Title != "" {
				label += "\n" + c.Title
			}
			cn, err := b.node("contact_"+c.ID.String(), label, cgraph.EllipseShape, "lightgreen")
			if err != nil {
				return err
			}
			e, err := b.edge("works_at", cn, self, "works at")
			if err != nil {
				return err
			}
			e.SetStyle(cgraph.DashedEdgeStyle)
		}
		if err := b.tags(self, org.Tags); err != nil {
			return err
		}
		return b.interactions(self, interactions.Items)
	})
}
