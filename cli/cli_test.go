package cli

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmview/cache"
	"github.com/harperreed/crmview/config"
	"github.com/harperreed/crmview/crmtest"
	"github.com/harperreed/crmview/models"
)

type harness struct {
	srv *crmtest.Server
	app *App
	out *bytes.Buffer
}

func setup(t *testing.T) *harness {
	t.Helper()
	srv := crmtest.New(t)
	cfg := &config.Config{
		BaseURL:      srv.URL,
		CacheBackend: config.BackendMemory,
		CacheMaxAge:  time.Minute,
	}
	out := &bytes.Buffer{}
	app, err := NewApp(cfg, cache.NewMemoryStore(), zerolog.Nop(), Options{Out: out, Version: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return &harness{srv: srv, app: app, out: out}
}

// run parses args and runs the selected command, returning what it printed.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var c CLI
	parser, err := Parser(&c, "test",
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	h.app.JSON = c.JSON
	h.out.Reset()
	err = kctx.Run(h.app)
	return h.out.String(), err
}

func TestContactsListTable(t *testing.T) {
	h := setup(t)

	out, err := h.run(t, "contacts")
	require.NoError(t, err)
	assert.Equal(t, "No contacts found\n", out)

	h.srv.AddContact(models.Contact{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	// the empty page is still fresh in the cache
	out, err = h.run(t, "contacts", "list")
	require.NoError(t, err)
	assert.Equal(t, "No contacts found\n", out)

	h.app.MaxAge = 0
	out, err = h.run(t, "contacts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "ada@example.com")
}

func TestContactsListReusesCachedPage(t *testing.T) {
	h := setup(t)
	h.srv.AddContact(models.Contact{FirstName: "Ada"})

	_, err := h.run(t, "contacts", "list", "-q", "ada")
	require.NoError(t, err)
	_, err = h.run(t, "contacts", "list", "-q", "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, h.srv.Hits(http.MethodGet, "/contacts"))
}

func TestContactsAddValidatesLocally(t *testing.T) {
	h := setup(t)

	_, err := h.run(t, "contacts", "add", "--first-name", "Ada", "--email", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.Equal(t, 0, h.srv.Hits(http.MethodPost, "/contacts"))

	out, err := h.run(t, "contacts", "add", "--first-name", "Ada", "--email", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Contact created: Ada")
}

func TestContactsUpdateReportsNoChanges(t *testing.T) {
	h := setup(t)
	c := h.srv.AddContact(models.Contact{FirstName: "Ada"})

	out, err := h.run(t, "contacts", "update", c.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "No changes")

	out, err = h.run(t, "contacts", "update", c.ID.String(), "--title", "Analyst")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Ada")
	stored, _ := h.srv.Contact(c.ID)
	assert.Equal(t, "Analyst", stored.Title)
}

func TestContactsUpdateNoOrgUnlinks(t *testing.T) {
	h := setup(t)
	o := h.srv.AddOrganization(models.Organization{Name: "Acme"})
	c := h.srv.AddContact(models.Contact{FirstName: "Ada", OrganizationID: &o.ID})

	out, err := h.run(t, "contacts", "update", c.ID.String(), "--no-org")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Ada")
	stored, _ := h.srv.Contact(c.ID)
	assert.Nil(t, stored.OrganizationID)
}

func TestContactsTagCreatesAndUntagRemoves(t *testing.T) {
	h := setup(t)
	c := h.srv.AddContact(models.Contact{FirstName: "Ada"})

	out, err := h.run(t, "contacts", "tag", c.ID.String(), "Donor")
	require.NoError(t, err)
	assert.Contains(t, out, "Tags: Donor")
	assert.Len(t, h.srv.Tags(), 1)

	_, err = h.run(t, "contacts", "untag", c.ID.String(), "donor")
	require.NoError(t, err)
	stored, _ := h.srv.Contact(c.ID)
	assert.Empty(t, stored.Tags)

	_, err = h.run(t, "contacts", "untag", c.ID.String(), "donor")
	assert.EqualError(t, err, `tag "donor" is not attached`)
}

func TestTagsAddRefusesDuplicateNames(t *testing.T) {
	h := setup(t)
	h.srv.AddTag("VIP")

	_, err := h.run(t, "tags", "add", "vip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.Equal(t, 0, h.srv.Hits(http.MethodPost, "/tags"))

	out, err := h.run(t, "tags", "add", "Press")
	require.NoError(t, err)
	assert.Contains(t, out, "Tag created: Press")

	out, err = h.run(t, "tags")
	require.NoError(t, err)
	assert.Contains(t, out, "Press", "creating a tag invalidates the cached catalogue")
}

func TestSettingsSet(t *testing.T) {
	h := setup(t)

	_, err := h.run(t, "settings", "set", "tier2_enabled", "maybe")
	assert.EqualError(t, err, `tier2_enabled expects true or false, got "maybe"`)

	_, err = h.run(t, "settings", "set", "tier2_enabled", "true")
	require.NoError(t, err)
	assert.True(t, h.srv.Settings().Tier2Enabled)

	out, err := h.run(t, "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "tier2_enabled")
	assert.Regexp(t, `tier2_enabled\s+true`, out)
}

func TestJSONOutput(t *testing.T) {
	h := setup(t)
	o := h.srv.AddOrganization(models.Organization{Name: "Acme"})

	out, err := h.run(t, "--json", "orgs", "get", o.ID.String())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))
	assert.Contains(t, out, `"name": "Acme"`)
}

func TestInvalidIDIsRejected(t *testing.T) {
	h := setup(t)
	_, err := h.run(t, "contacts", "get", "not-a-uuid")
	assert.EqualError(t, err, `invalid contact ID "not-a-uuid"`)
}

func TestCacheKeysAndClear(t *testing.T) {
	h := setup(t)
	_, err := h.run(t, "settings")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		keys, _ := h.app.Store.Keys("")
		return len(keys) > 0
	}, time.Second, 5*time.Millisecond)

	out, err := h.run(t, "cache", "keys")
	require.NoError(t, err)
	assert.Contains(t, out, "settings")

	_, err = h.run(t, "cache", "clear", "settings")
	require.NoError(t, err)
	keys, err := h.app.Store.Keys("settings")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

type countingStore struct {
	*cache.MemoryStore
	closes int
}

func (s *countingStore) Close() error {
	s.closes++
	return s.MemoryStore.Close()
}

func TestAppCloseClosesStoreOnce(t *testing.T) {
	store := &countingStore{MemoryStore: cache.NewMemoryStore()}
	cfg := &config.Config{BaseURL: "http://localhost:3000", CacheBackend: config.BackendMemory}
	app, err := NewApp(cfg, store, zerolog.Nop(), Options{Out: &bytes.Buffer{}})
	require.NoError(t, err)

	require.NoError(t, app.Close())
	assert.Equal(t, 1, store.closes)
}
