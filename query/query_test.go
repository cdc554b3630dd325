package query

import (
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmview/api"
	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/crmtest"
	"github.com/harperreed/crmview/models"
)

func setup(t *testing.T) (*cache.Manager, *api.Client, *crmtest.Server) {
	t.Helper()
	srv := crmtest.New(t)
	client, err := api.New(srv.URL)
	require.NoError(t, err)
	m := cache.New()
	t.Cleanup(func() { _ = m.Close() })
	return m, client, srv
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestContactListLoadsAndNotifies(t *testing.T) {
	m, client, srv := setup(t)
	srv.AddContact(models.Contact{FirstName: "Ada", LastName: "Lovelace"})

	var calls atomic.Int32
	list := NewContactList(m, client, api.ContactFilters{}, func(State[*models.Page[models.Contact]]) { calls.Add(1) })
	defer list.Close()

	eventually(t, func() bool { return list.State().Status == cache.StatusReady })
	require.Len(t, list.Items(), 1)
	assert.Equal(t, "Ada Lovelace", list.Items()[0].FullName)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestSameFiltersShareOneRequest(t *testing.T) {
	m, client, srv := setup(t)
	gate := srv.HoldQuery("/contacts", "ada")

	first := NewContactList(m, client, api.ContactFilters{Query: "ada"}, nil)
	defer first.Close()
	<-gate.Arrived
	second := NewContactList(m, client, api.ContactFilters{Query: "ada"}, nil)
	defer second.Close()

	assert.True(t, second.State().Loading())
	gate.Release()

	eventually(t, func() bool { return second.State().Status == cache.StatusReady })
	assert.Equal(t, 1, srv.Hits(http.MethodGet, "/contacts"))
}

func TestLateResponseForOldSearchIsIgnored(t *testing.T) {
	m, client, srv := setup(t)
	srv.AddContact(models.Contact{FirstName: "Acme", LastName: "Buyer"})
	srv.AddContact(models.Contact{FirstName: "Acme Corp", LastName: "Founder"})
	gate := srv.HoldQuery("/contacts", "acme")

	list := NewContactList(m, client, api.ContactFilters{Query: "acme"}, nil)
	defer list.Close()
	<-gate.Arrived

	list.SetSearch("acme corp")
	eventually(t, func() bool { return list.State().HasData })
	require.Len(t, list.Items(), 1)

	gate.Release()
	oldKey := api.ContactFilters{Query: "acme"}.Key()
	eventually(t, func() bool { return m.Get(oldKey).Status == cache.StatusReady })

	assert.Equal(t, "acme corp", list.Params().Query)
	require.Len(t, list.Items(), 1)
	assert.Equal(t, "Acme Corp Founder", list.Items()[0].FullName)
}

func TestPagingThroughContacts(t *testing.T) {
	m, client, srv := setup(t)
	for i := 0; i < 30; i++ {
		srv.AddContact(models.Contact{FirstName: "Active", Status: "active"})
	}
	srv.AddContact(models.Contact{FirstName: "Gone", Status: "archived"})

	list := NewContactList(m, client, api.ContactFilters{Status: "active"}, nil)
	defer list.Close()
	eventually(t, func() bool { return list.State().HasData })
	assert.Len(t, list.Items(), 25)

	p := list.Pager()
	assert.Equal(t, 2, p.TotalPages())
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrev())

	list.NextPage()
	eventually(t, func() bool { return list.State().HasData && len(list.Items()) == 5 })
	assert.False(t, list.Pager().HasNext())

	list.PrevPage()
	assert.Len(t, list.Items(), 25, "previous page is served from cache")
}

func TestPageIsNotClampedWhenFiltersShrink(t *testing.T) {
	m, client, srv := setup(t)
	for i := 0; i < 30; i++ {
		srv.AddContact(models.Contact{FirstName: "Active", Status: "active"})
	}

	list := NewContactList(m, client, api.ContactFilters{Status: "active", PageNum: 1}, nil)
	defer list.Close()
	eventually(t, func() bool { return list.State().HasData })

	f := list.Params()
	f.Status = "archived"
	list.SetParams(f)
	eventually(t, func() bool { return list.State().HasData })

	assert.Equal(t, 1, list.Params().PageNum)
	assert.Empty(t, list.Items())
}

func TestSearchResetsPage(t *testing.T) {
	m, client, _ := setup(t)
	list := NewOrganizationList(m, client, api.OrganizationFilters{PageNum: 3}, nil)
	defer list.Close()

	list.SetSearch("acme")
	assert.Equal(t, 0, list.Params().PageNum)
	assert.Equal(t, "acme", list.Params().Query)
}

func TestNilIDSuppressesFetching(t *testing.T) {
	m, client, srv := setup(t)
	c := srv.AddContact(models.Contact{FirstName: "Ada"})

	q := NewContact(m, client, nil, nil)
	defer q.Close()
	assert.Equal(t, cache.StatusIdle, q.State().Status)
	assert.Equal(t, 0, srv.Hits(http.MethodGet, "/contacts/"+c.ID.String()))

	q.SetParams(&c.ID)
	eventually(t, func() bool { return q.State().HasData })
	assert.Equal(t, "Ada", q.State().Data.FirstName)
}

func TestMissingOrganizationReportsNotFound(t *testing.T) {
	m, client, _ := setup(t)
	missing := uuid.New()

	q := NewOrganization(m, client, &missing, nil)
	defer q.Close()
	eventually(t, func() bool { return q.State().Status == cache.StatusError })
	assert.False(t, q.State().HasData)
	assert.True(t, api.IsNotFound(q.State().Err))
}

func TestRefreshKeepsStaleDataVisible(t *testing.T) {
	m, client, srv := setup(t)
	srv.AddTag("vip")

	list := NewTagList(m, client, api.TagFilters{}, nil)
	defer list.Close()
	eventually(t, func() bool { return list.State().HasData })

	srv.FailNext(http.MethodGet, "/tags", http.StatusInternalServerError)
	list.Refresh()
	eventually(t, func() bool { return list.State().Status == cache.StatusError })

	s := list.State()
	assert.Equal(t, "List tags failed (Status: 500)", s.Err.Error())
	require.True(t, s.HasData)
	assert.Equal(t, "vip", s.Data.Items[0].Name)
}

func TestInvalidationRefetchesFollowers(t *testing.T) {
	m, client, srv := setup(t)
	list := NewContactList(m, client, api.ContactFilters{}, nil)
	defer list.Close()
	eventually(t, func() bool { return list.State().HasData })
	assert.Empty(t, list.Items())

	srv.AddContact(models.Contact{FirstName: "Ada"})
	ContactsChanged(m)
	eventually(t, func() bool { return len(list.Items()) == 1 })
}

func TestEmptySearchStaysIdle(t *testing.T) {
	m, client, srv := setup(t)
	srv.AddOrganization(models.Organization{Name: "Acme"})

	s := NewSearch(m, client, api.SearchFilters{}, nil)
	defer s.Close()
	assert.Equal(t, cache.StatusIdle, s.State().Status)

	s.SetSearch("acme")
	eventually(t, func() bool { return s.State().HasData })
	assert.Equal(t, "Acme", s.Items()[0].PrimaryText)
}

func TestSettingsChangedUpdatesFollowers(t *testing.T) {
	m, client, _ := setup(t)
	q := NewSettings(m, client, nil)
	defer q.Close()
	eventually(t, func() bool { return q.State().HasData })
	assert.True(t, q.State().Data.Enabled)

	SettingsChanged(m, &models.Settings{Enabled: false})
	assert.False(t, q.State().Data.Enabled)
}
