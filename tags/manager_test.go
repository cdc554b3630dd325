package tags

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/crmtest"
	"github.com/harperreed/crmview/models"
	"github.com/harperreed/crmview/query"
)

func setup(t *testing.T) (*api.Client, *crmtest.Server) {
	t.Helper()
	srv := crmtest.New(t)
	c, err := api.New(srv.URL)
	require.NoError(t, err)
	return c, srv
}

func names(tags []models.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.Name)
	}
	return out
}

func TestOpenLoadsTagsOnlyWhenOpened(t *testing.T) {
	client, srv := setup(t)
	srv.AddTag("Donor")
	c := srv.AddContact(models.Contact{FirstName: "Ada"})

	m := New(client, ForContact(client, c.ID), c.Tags)
	assert.Equal(t, StateClosed, m.State())
	assert.Equal(t, 0, srv.Hits(http.MethodGet, "/tags"))

	require.NoError(t, m.Open(context.Background()))
	assert.Equal(t, StateOpen, m.State())
	assert.Equal(t, []string{"Donor"}, names(m.Matches()))

	require.NoError(t, m.Open(context.Background()))
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/tags"))
}

func TestMatchesIgnoresCaseAndAttached(t *testing.T) {
	client, srv := setup(t)
	donor := srv.AddTag("Donor")
	srv.AddTag("Board")
	srv.AddTag("Past donor")
	c := srv.AddContact(models.Contact{FirstName: "Ada", Tags: []models.Tag{donor}})

	m := New(client, ForContact(client, c.ID), c.Tags)
	require.NoError(t, m.Open(context.Background()))

	m.SetFilter("DON")
	assert.Equal(t, []string{"Past donor"}, names(m.Matches()))
	assert.True(t, m.CanCreate())

	m.SetFilter("  board ")
	assert.False(t, m.CanCreate())

	m.SetFilter("")
	assert.False(t, m.CanCreate())
}

func TestSelectAttachesAndCloses(t *testing.T) {
	client, srv := setup(t)
	board := srv.AddTag("Board")
	c := srv.AddContact(models.Contact{FirstName: "Ada"})

	var changes [][]models.Tag
	m := New(client, ForContact(client, c.ID), c.Tags, WithOnChange(func(tags []models.Tag) {
		changes = append(changes, tags)
	}))

	assert.ErrorIs(t, m.Select(context.Background(), board.ID), ErrClosed)

	require.NoError(t, m.Open(context.Background()))
	m.SetFilter("bo")
	require.NoError(t, m.Select(context.Background(), board.ID))

	assert.Equal(t, StateClosed, m.State())
	assert.Empty(t, m.Filter())
	assert.Equal(t, []string{"Board"}, names(m.Attached()))
	require.Len(t, changes, 1)
	assert.Equal(t, []string{"Board"}, names(changes[0]))

	stored, _ := srv.Contact(c.ID)
	assert.Equal(t, []string{"Board"}, names(stored.Tags))
}

func TestSelectAttachedTagIsNoop(t *testing.T) {
	client, srv := setup(t)
	board := srv.AddTag("Board")
	c := srv.AddContact(models.Contact{FirstName: "Ada", Tags: []models.Tag{board}})

	m := New(client, ForContact(client, c.ID), c.Tags)
	require.NoError(t, m.Open(context.Background()))
	require.NoError(t, m.Select(context.Background(), board.ID))

	assert.Equal(t, StateClosed, m.State())
	assert.Equal(t, 0, srv.Hits(http.MethodPost, "/contacts/"+c.ID.String()+"/tags/"+board.ID.String()))
}

func TestCreateAndAttachReusesExactMatch(t *testing.T) {
	client, srv := setup(t)
	srv.AddTag("VIP")
	c := srv.AddContact(models.Contact{FirstName: "Ada"})

	m := New(client, ForContact(client, c.ID), c.Tags)
	require.NoError(t, m.Open(context.Background()))
	m.SetFilter("vip")
	require.NoError(t, m.CreateAndAttach(context.Background()))

	assert.Equal(t, 0, srv.Hits(http.MethodPost, "/tags"))
	assert.Equal(t, []string{"VIP"}, names(m.Attached()))
	assert.Len(t, srv.Tags(), 1)
}

func TestCreateAndAttachNewTag(t *testing.T) {
	client, srv := setup(t)
	o := srv.AddOrganization(models.Organization{Name: "Acme"})

	m := New(client, ForOrganization(client, o.ID), o.Tags)
	require.NoError(t, m.Open(context.Background()))

	m.SetFilter("   ")
	assert.ErrorIs(t, m.CreateAndAttach(context.Background()), ErrEmptyName)

	m.SetFilter("Funder")
	require.NoError(t, m.CreateAndAttach(context.Background()))
	assert.Equal(t, 1, srv.Hits(http.MethodPost, "/tags"))
	assert.Equal(t, []string{"Funder"}, names(m.Attached()))
	assert.Equal(t, []string{"Funder"}, names(srv.Tags()))
}

func TestCreateAndAttachRecoversFromConflict(t *testing.T) {
	client, srv := setup(t)
	c := srv.AddContact(models.Contact{FirstName: "Ada"})

	m := New(client, ForContact(client, c.ID), c.Tags)
	require.NoError(t, m.Open(context.Background()))

	// created elsewhere after the list was loaded
	srv.AddTag("Press")

	m.SetFilter("press")
	require.NoError(t, m.CreateAndAttach(context.Background()))
	assert.Equal(t, []string{"Press"}, names(m.Attached()))
	assert.Len(t, srv.Tags(), 1)
}

func TestAttachFailureKeepsPickerOpen(t *testing.T) {
	client, srv := setup(t)
	board := srv.AddTag("Board")
	c := srv.AddContact(models.Contact{FirstName: "Ada"})
	srv.FailNext(http.MethodPost, "/contacts/"+c.ID.String()+"/tags/"+board.ID.String(), http.StatusInternalServerError)

	m := New(client, ForContact(client, c.ID), c.Tags)
	require.NoError(t, m.Open(context.Background()))
	m.SetFilter("bo")

	err := m.Select(context.Background(), board.ID)
	require.Error(t, err)
	assert.Equal(t, StateOpen, m.State())
	assert.Equal(t, "bo", m.Filter())
	assert.Equal(t, err, m.Err())
	assert.Empty(t, m.Attached())
}

func TestDetachUpdatesCacheAndLists(t *testing.T) {
	client, srv := setup(t)
	board := srv.AddTag("Board")
	c := srv.AddContact(models.Contact{FirstName: "Ada", Tags: []models.Tag{board}})

	cm := cache.New()
	defer cm.Close()
	list := query.NewContactList(cm, client, api.ContactFilters{}, nil)
	defer list.Close()
	require.Eventually(t, func() bool { return list.State().HasData }, time.Second, 5*time.Millisecond)
	cm.Mutate(api.ContactKey(c.ID), &c)

	m := New(client, ForContact(client, c.ID), c.Tags, WithCache(cm))
	require.NoError(t, m.Detach(context.Background(), board.ID))
	assert.Empty(t, m.Attached())

	cached := cm.Get(api.ContactKey(c.ID)).Data.(*models.Contact)
	assert.Empty(t, cached.Tags)
	assert.Len(t, c.Tags, 1, "cached value is replaced, not edited in place")

	require.Eventually(t, func() bool {
		items := list.Items()
		return len(items) == 1 && len(items[0].Tags) == 0
	}, time.Second, 5*time.Millisecond)
}
