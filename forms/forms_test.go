package forms

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

func TestContactFormBlocksInvalidInputBeforeNetwork(t *testing.T) {
	client, srv := setup(t)
	f := NewContactForm(client, nil)
	f.Values.Email = "not-an-email"
	f.Values.Status = "won"

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "is required", f.Errors["first_name"])
	assert.Equal(t, "must be a valid email address", f.Errors["email"])
	assert.Contains(t, f.Errors["status"], "lead, active, inactive, archived")
	assert.Equal(t, 0, srv.Hits(http.MethodPost, "/contacts"))
}

func TestContactFormCreatesWithDefaultStage(t *testing.T) {
	client, srv := setup(t)
	srv.SetSettings(models.Settings{ContactStageOptions: []string{"Prospect", "client"}})
	settings := srv.Settings()

	var got *models.Contact
	f := NewContactForm(client, &settings)
	f.OnSuccess = func(c *models.Contact) { got = c }
	f.Values.FirstName = "Ada"

	assert.Equal(t, "prospect", f.Values.Status)
	saved, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "prospect", saved.Status)
	assert.Same(t, saved, got)
	assert.Equal(t, "Saved Ada", f.Status)
}

func TestContactFormServerErrorKeepsValues(t *testing.T) {
	client, srv := setup(t)
	srv.FailNext(http.MethodPost, "/contacts", http.StatusInternalServerError)

	f := NewContactForm(client, nil)
	f.Values.FirstName = "Ada"
	f.OnSuccess = func(*models.Contact) { t.Fatal("OnSuccess must not run on failure") }

	_, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Create contact failed (Status: 500)", f.Status)
	assert.Equal(t, "Ada", f.Values.FirstName)
}

func TestContactFormEditSendsOnlyChanges(t *testing.T) {
	client, srv := setup(t)
	c := srv.AddContact(models.Contact{FirstName: "Ada", Email: "ada@example.com"})

	f := EditContactForm(client, &c, nil)
	_, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No changes", f.Status)
	assert.Equal(t, 0, srv.Hits(http.MethodPatch, "/contacts/"+c.ID.String()))

	f.Values.Status = "active"
	f.Values.LastName = "Lovelace"
	saved, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "active", saved.Status)
	assert.Equal(t, "Ada Lovelace", saved.FullName)
	assert.Equal(t, "ada@example.com", saved.Email)
}

func TestContactFormEditUnlinksOrganization(t *testing.T) {
	client, srv := setup(t)
	org := srv.AddOrganization(models.Organization{Name: "Acme"})
	c := srv.AddContact(models.Contact{FirstName: "Ada", OrganizationID: &org.ID})

	f := EditContactForm(client, &c, nil)
	f.Values.OrganizationID = nil
	saved, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Saved Ada", f.Status)
	assert.Nil(t, saved.OrganizationID)
	assert.Equal(t, 1, srv.Hits(http.MethodPatch, "/contacts/"+c.ID.String()))

	stored, _ := srv.Contact(c.ID)
	assert.Nil(t, stored.OrganizationID)
}

func TestContactFormDuplicateEmailConflicts(t *testing.T) {
	client, srv := setup(t)
	srv.AddContact(models.Contact{FirstName: "Ada", Email: "ada@example.com"})

	f := NewContactForm(client, nil)
	f.Values.FirstName = "Augusta"
	f.Values.Email = "ADA@example.com"
	_, err := f.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	assert.Equal(t, "Create contact failed (Status: 409)", f.Status)
	assert.Equal(t, "ADA@example.com", f.Values.Email)

	other := srv.AddContact(models.Contact{FirstName: "Grace", Email: "grace@example.com"})
	edit := EditContactForm(client, &other, nil)
	edit.Values.Email = "ada@example.com"
	_, err = edit.Submit(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	stored, _ := srv.Contact(other.ID)
	assert.Equal(t, "grace@example.com", stored.Email)
}

func TestContactFormInvalidatesCache(t *testing.T) {
	client, srv := setup(t)
	m := cache.New()
	defer m.Close()

	list := query.NewContactList(m, client, api.ContactFilters{}, nil)
	defer list.Close()
	require.Eventually(t, func() bool { return list.State().HasData }, time.Second, 5*time.Millisecond)

	f := NewContactForm(client, nil)
	f.Cache = m
	f.Values.FirstName = "Grace"
	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(list.Items()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, srv.Hits(http.MethodGet, "/contacts"))
}

func TestOrganizationFormValidation(t *testing.T) {
	client, _ := setup(t)
	f := NewOrganizationForm(client)
	f.Values.Website = "acme dot example"
	f.Values.Type = "competitor"

	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalid)
	assert.Len(t, f.Errors, 3)

	f.Values = OrganizationValues{Name: "Acme", Website: "acme.example", Type: models.OrgPartner}
	saved, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.OrgPartner, saved.Type)
	assert.Equal(t, "acme.example", saved.Website)

	edit := EditOrganizationForm(client, saved)
	edit.Values.Sector = "Manufacturing"
	updated, err := edit.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Manufacturing", updated.Sector)
}

func TestWebURLAcceptsBareHosts(t *testing.T) {
	for v, ok := range map[string]bool{
		"acme.com":                 true,
		"https://acme.com/about":   true,
		"http://www.acme.co.uk":    true,
		"linkedin.com/in/ada":      true,
		"ftp://acme.com":           false,
		"acme":                     false,
		"acme dot com":             false,
	} {
		fe := FieldErrors{}
		webURL(fe, "website", v)
		assert.Equal(t, ok, len(fe) == 0, v)
	}
}

func TestInteractionForm(t *testing.T) {
	client, srv := setup(t)
	c := srv.AddContact(models.Contact{FirstName: "Ada"})

	empty := NewInteractionForm(client, nil, nil)
	empty.Values.OccurredAt = "yesterday"
	_, err := empty.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, empty.Errors, "contact_id")
	assert.Contains(t, empty.Errors, "occurred_at")
	assert.Contains(t, empty.Errors, "title")

	f := NewInteractionForm(client, &c.ID, nil)
	f.Values.Type = models.InteractionMeeting
	f.Values.Title = "Kickoff"
	f.Values.OccurredAt = "2026-03-01"
	saved, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.InteractionMeeting, saved.Type)
	require.NotNil(t, saved.OccurredAt)
	assert.Equal(t, 2026, saved.OccurredAt.Year())
}

func TestInteractionFormRequiresTitle(t *testing.T) {
	client, srv := setup(t)
	c := srv.AddContact(models.Contact{FirstName: "Ada"})

	f := NewInteractionForm(client, &c.ID, nil)
	f.Values.Title = "   "
	_, err := f.Submit(context.Background())
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "is required", f.Errors["title"])
	assert.Equal(t, 0, srv.Hits(http.MethodPost, "/interactions"))
}

func TestDedupeAttendeesPrefersOrganizer(t *testing.T) {
	id := uuid.New()
	got := dedupeAttendees([]models.AttendeeInput{
		{ContactID: &id, Role: models.RoleAttendee},
		{ContactID: &id, Role: models.RoleOrganizer},
	})
	require.Len(t, got, 1)
	assert.Equal(t, models.RoleOrganizer, got[0].Role)
}

type recordingNotifier struct {
	mu   sync.Mutex
	ok   []string
	errs []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ok = append(n.ok, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, msg)
}

func TestSettingsToggleCommits(t *testing.T) {
	client, srv := setup(t)
	m := cache.New()
	defer m.Close()
	notifier := &recordingNotifier{}

	f := NewSettingsForm(client, srv.Settings(), notifier, m, nil)
	require.NoError(t, f.Toggle(context.Background(), FlagTier2))

	assert.True(t, f.Settings().Tier2Enabled)
	assert.True(t, srv.Settings().Tier2Enabled)
	assert.Equal(t, []string{"Settings saved"}, notifier.ok)

	cached := m.Get(api.SettingsKey).Data.(*models.Settings)
	assert.True(t, cached.Tier2Enabled)
	assert.NotNil(t, cached.UpdatedAt)
}

func TestSettingsRejectionRestoresSnapshotExactly(t *testing.T) {
	client, srv := setup(t)
	m := cache.New()
	defer m.Close()
	notifier := &recordingNotifier{}
	before := srv.Settings()

	var seen []bool
	f := NewSettingsForm(client, before, notifier, m, func(s models.Settings) { seen = append(seen, s.Enabled) })
	srv.FailNext(http.MethodPatch, "/settings", http.StatusForbidden)

	err := f.Toggle(context.Background(), FlagEnabled)
	require.Error(t, err)

	assert.Equal(t, before, f.Settings())
	assert.Equal(t, []bool{false, true}, seen)
	assert.Equal(t, []string{"Update CRM settings failed (Status: 403)"}, notifier.errs)
	assert.Equal(t, &before, m.Get(api.SettingsKey).Data)
}

func TestSettingsRejectsEmptyStages(t *testing.T) {
	client, srv := setup(t)
	f := NewSettingsForm(client, srv.Settings(), nil, nil, nil)

	err := f.SetStages(context.Background(), []string{"  "})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, 0, srv.Hits(http.MethodPatch, "/settings"))
}

func TestOptimisticRefusesConcurrentTransactions(t *testing.T) {
	o := NewOptimistic(1, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	go func() {
		_, _ = o.Apply(context.Background(), func(v int) int { return v + 1 }, func(context.Context, int) (int, error) {
			close(started)
			<-release
			return 2, nil
		})
	}()
	<-started

	_, err := o.Apply(context.Background(), func(v int) int { return v * 10 }, func(context.Context, int) (int, error) {
		return 0, errors.New("unreachable")
	})
	assert.ErrorIs(t, err, ErrPending)
	assert.Equal(t, 2, o.Value())
	assert.Equal(t, PhasePending, o.Phase())
	assert.False(t, o.Reset(5))

	close(release)
	require.Eventually(t, func() bool { return o.Phase() == PhaseCommitted }, time.Second, time.Millisecond)
	assert.Equal(t, 2, o.Value())
}
