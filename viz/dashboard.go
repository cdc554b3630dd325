// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Contacts per stage, entity totals and the latest interactions
package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/models"
)

type DashboardSource interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	ListContacts(ctx context.Context, f api.ContactFilters) (*models.Page[models.Contact], error)
	ListOrganizations(ctx context.Context, f api.OrganizationFilters) (*models.Page[models.Organization], error)
	ListInteractions(ctx context.Context, f api.InteractionFilters) (*models.Page[models.Interaction], error)
}

type DashboardStats struct {
	// Stages in tenant order with the number of contacts in each.
	Stages []StageCount

	TotalContacts      int
	TotalOrganizations int

	RecentActivity []ActivityItem
}

type StageCount struct {
	Stage string
	Count int
}

type ActivityItem struct {
	Date        time.Time
	Description string
}

// GenerateDashboardStats asks the server for totals only (page size 1), so
// it costs one request per stage plus three.
func GenerateDashboardStats(ctx context.Context, src DashboardSource) (*DashboardStats, error) {
	settings, err := src.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{}

	all, err := src.ListContacts(ctx, api.ContactFilters{PageSize: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to count contacts: %w", err)
	}
	stats.TotalContacts = all.TotalItems

	for _, stage := range models.AllowedStages(settings) {
		page, err := src.ListContacts(ctx, api.ContactFilters{Status: stage, PageSize: 1})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s contacts: %w", stage, err)
		}
		stats.Stages = append(stats.Stages, StageCount{Stage: stage, Count: page.TotalItems})
	}

	orgs, err := src.ListOrganizations(ctx, api.OrganizationFilters{PageSize: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to count organizations: %w", err)
	}
	stats.TotalOrganizations = orgs.TotalItems

	recent, err := src.ListInteractions(ctx, api.InteractionFilters{PageSize: RecentInteractions})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch interactions: %w", err)
	}
	for _, i := range recent.Items {
		at := i.CreatedAt
		if i.OccurredAt != nil {
			at = *i.OccurredAt
		}
		desc := string(i.Type)
		if i.Title != "" {
			desc += ": " + i.Title
		}
		stats.RecentActivity = append(stats.RecentActivity, ActivityItem{Date: at, Description: desc})
	}

	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  CRM DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("CONTACTS BY STAGE\n")
	renderStages(&out, stats.Stages)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d contacts  🏢 %d organizations\n\n", stats.TotalContacts, stats.TotalOrganizations))

	if len(stats.RecentActivity) > 0 {
		out.WriteString("RECENT ACTIVITY\n")
		for _, a := range stats.RecentActivity {
			out.WriteString(fmt.Sprintf("  %s  %s\n", a.Date.Format("Jan 02"), a.Description))
		}
	}

	return out.String()
}

func renderStages(out *strings.Builder, stages []StageCount) {
	maxCount := 0
	for _, s := range stages {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, s := range stages {
		barLength := (s.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d\n", s.Stage, bar, s.Count))
	}
}
