package viz

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/crmtest"
	"github.com/harperreed/crmview/models"
)

func setup(t *testing.T) (*api.Client, *crmtest.Server) {
	t.Helper()
	srv := crmtest.New(t)
	c, err := api.New(srv.URL)
	require.NoError(t, err)
	return c, srv
}

func TestGenerateContactGraph(t *testing.T) {
	client, srv := setup(t)
	org := srv.AddOrganization(models.Organization{Name: "Acme Corp"})
	vip := srv.AddTag("VIP")
	c := srv.AddContact(models.Contact{FirstName: "Ada", LastName: "Lovelace", OrganizationID: &org.ID, Tags: []models.Tag{vip}})
	when := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	srv.AddInteraction(models.Interaction{ContactID: &c.ID, Type: models.InteractionCall, Title: "Intro call", OccurredAt: &when})

	out, err := NewGraphGenerator(client).GenerateContactGraph(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "#VIP")
	assert.Contains(t, out, "Intro call")
	assert.Contains(t, out, "works at")
}

func TestGenerateOrganizationGraph(t *testing.T) {
	client, srv := setup(t)
	org := srv.AddOrganization(models.Organization{Name: "Acme Corp"})
	srv.AddContact(models.Contact{FirstName: "Ada", Title: "CTO", OrganizationID: &org.ID})
	srv.AddContact(models.Contact{FirstName: "Grace"})

	svg, err := ParseFormat("svg")
	require.NoError(t, err)
	out, err := NewGraphGenerator(client).WithFormat(svg).GenerateOrganizationGraph(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "Ada")
	assert.NotContains(t, out, "Grace")
}

func TestGenerateGraphMissingEntity(t *testing.T) {
	client, _ := setup(t)
	_, err := NewGraphGenerator(client).GenerateContactGraph(context.Background(), uuid.New())
	assert.True(t, api.IsNotFound(err))
}

func TestParseFormat(t *testing.T) {
	_, err := ParseFormat("gif")
	assert.Error(t, err)
}

func TestDashboard(t *testing.T) {
	client, srv := setup(t)
	srv.AddContact(models.Contact{FirstName: "Ada", Status: "active"})
	srv.AddContact(models.Contact{FirstName: "Grace", Status: "active"})
	srv.AddContact(models.Contact{FirstName: "Linus"})
	srv.AddOrganization(models.Organization{Name: "Acme"})

	stats, err := GenerateDashboardStats(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 1, stats.TotalOrganizations)
	require.Len(t, stats.Stages, 4)
	assert.Equal(t, StageCount{Stage: "lead", Count: 1}, stats.Stages[0])
	assert.Equal(t, StageCount{Stage: "active", Count: 2}, stats.Stages[1])

	out := RenderDashboard(stats)
	assert.Contains(t, out, "CONTACTS BY STAGE")
	assert.Contains(t, out, "██████████")
	assert.Contains(t, out, "3 contacts")
}

func TestDashboardPropagatesErrors(t *testing.T) {
	client, srv := setup(t)
	srv.FailNext(http.MethodGet, "/settings", http.StatusUnauthorized)
	_, err := GenerateDashboardStats(context.Background(), client)
	assert.EqualError(t, err, "Get CRM settings failed (Status: 401)")
}
