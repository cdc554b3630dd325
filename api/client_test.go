package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmview/crmtest"
	"github.com/harperreed/crmview/models"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *crmtest.Server) {
	t.Helper()
	srv := crmtest.New(t)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c, srv
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)
}

func TestCreateThenGetContactUsesFirstStage(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateContact(ctx, models.ContactCreate{FirstName: "Ada"})
	require.NoError(t, err)

	got, err := c.GetContact(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)
	assert.Equal(t, "lead", got.Status)
}

func TestCreateContactUsesTenantStages(t *testing.T) {
	c, srv := newTestClient(t)
	srv.SetSettings(models.Settings{ContactStageOptions: []string{"prospect", "client"}})

	created, err := c.CreateContact(context.Background(), models.ContactCreate{FirstName: "Grace"})
	require.NoError(t, err)
	assert.Equal(t, "prospect", created.Status)

	_, err = c.CreateContact(context.Background(), models.ContactCreate{FirstName: "Linus", Status: "lead"})
	require.Error(t, err)
	assert.Equal(t, "Create contact failed (Status: 422)", err.Error())
}

func TestNon2xxProducesUniformError(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.GetContact(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, "Get contact failed (Status: 404)", err.Error())
	assert.True(t, IsNotFound(err))

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "Get contact", he.Action)
}

func TestNetworkFailureIsHTTPErrorWithoutStatus(t *testing.T) {
	srv := crmtest.New(t)
	c, err := New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.GetSettings(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Contains(t, err.Error(), "Get CRM settings failed:")
}

func TestListContactsPaging(t *testing.T) {
	c, srv := newTestClient(t)
	for i := 0; i < 30; i++ {
		srv.AddContact(models.Contact{FirstName: "Person", Status: "active"})
	}
	ctx := context.Background()

	first, err := c.ListContacts(ctx, ContactFilters{Status: "active"})
	require.NoError(t, err)
	assert.Len(t, first.Items, 25)
	assert.Equal(t, 30, first.TotalItems)

	second, err := c.ListContacts(ctx, ContactFilters{Status: "active", PageNum: 1})
	require.NoError(t, err)
	assert.Len(t, second.Items, 5)
	assert.Equal(t, 2, models.TotalPages(second.TotalItems, 25))
}

func TestTagToggleIsIdempotent(t *testing.T) {
	c, srv := newTestClient(t)
	contact := srv.AddContact(models.Contact{FirstName: "Ada"})
	tag := srv.AddTag("vip")
	ctx := context.Background()

	tags, err := c.AddTagToContact(ctx, contact.ID, tag.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	tags, err = c.AddTagToContact(ctx, contact.ID, tag.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	tags, err = c.RemoveTagFromContact(ctx, contact.ID, tag.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestOrganizationTagToggle(t *testing.T) {
	c, srv := newTestClient(t)
	org := srv.AddOrganization(models.Organization{Name: "Acme"})
	tag := srv.AddTag("partner")

	tags, err := c.AddTagToOrganization(context.Background(), org.ID, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "partner", tags[0].Name)

	listed, err := c.ListOrganizations(context.Background(), OrganizationFilters{TagIDs: []uuid.UUID{tag.ID}})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	assert.Equal(t, org.ID, listed.Items[0].ID)
}

func TestCreateTagConflict(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddTag("Donor")

	_, err := c.CreateTag(context.Background(), models.TagCreate{Name: "donor"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestListAllTagsWalksPages(t *testing.T) {
	c, srv := newTestClient(t)
	for i := 0; i < 205; i++ {
		srv.AddTag(uuid.NewString())
	}

	tags, err := c.ListAllTags(context.Background())
	require.NoError(t, err)
	assert.Len(t, tags, 205)
	assert.Equal(t, 2, srv.Hits(http.MethodGet, "/tags"))
}

func TestCreateInteractionDefaultsAttendees(t *testing.T) {
	c, srv := newTestClient(t)
	contact := srv.AddContact(models.Contact{FirstName: "Ada"})

	i, err := c.CreateInteraction(context.Background(), models.InteractionCreate{
		ContactID: &contact.ID,
		Type:      models.InteractionCall,
		Title:     "Intro call",
	})
	require.NoError(t, err)
	require.Len(t, i.Attendees, 2)
	assert.Equal(t, models.RoleOrganizer, i.Attendees[0].Role)
	assert.Equal(t, contact.ID, *i.Attendees[1].ContactID)

	page, err := c.ListInteractions(context.Background(), InteractionFilters{ContactID: &contact.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)
}

func TestSettingsRoundTrip(t *testing.T) {
	c, _ := newTestClient(t)
	off := false

	s, err := c.PatchSettings(context.Background(), models.SettingsPatch{Tier2Enabled: &off})
	require.NoError(t, err)
	assert.False(t, s.Tier2Enabled)
	assert.NotNil(t, s.UpdatedAt)

	empty := []string{}
	_, err = c.PatchSettings(context.Background(), models.SettingsPatch{ContactStageOptions: &empty})
	assert.Equal(t, "Update CRM settings failed (Status: 422)", err.Error())
}

func TestSearchFiltersEntityTypes(t *testing.T) {
	c, srv := newTestClient(t)
	srv.AddContact(models.Contact{FirstName: "Acme", LastName: "Person"})
	srv.AddOrganization(models.Organization{Name: "Acme Corp"})

	page, err := c.Search(context.Background(), SearchFilters{Query: "acme", EntityTypes: []models.EntityType{models.EntityOrganization}})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, models.EntityOrganization, page.Items[0].EntityType)
}

func TestAPIKeyIsSentAsBearer(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	srv := crmtest.New(t)
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"), r.Header.Get("X-Request-ID"))
		mu.Unlock()
		return http.DefaultTransport.RoundTrip(r)
	})}

	c, err := New(srv.URL, WithHTTPClient(hc), WithAPIKey("secret"))
	require.NoError(t, err)
	_, err = c.GetSettings(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.Equal(t, "Bearer secret", seen[0])
	assert.Len(t, seen[1], 26)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestTimeoutAppliesToCopyOfHTTPClient(t *testing.T) {
	hc := &http.Client{}
	orders := [][]Option{
		{WithTimeout(5 * time.Second), WithHTTPClient(hc)},
		{WithHTTPClient(hc), WithTimeout(5 * time.Second)},
	}
	for _, opts := range orders {
		c, err := New("http://localhost:3000", opts...)
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, c.t.rc.GetClient().Timeout)
	}
	assert.Zero(t, hc.Timeout, "caller's client must not be modified")
}
