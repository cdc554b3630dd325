package api

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmview/models"
)

func TestWithQueryParamsOmitsEmptyAndRepeatsSlices(t *testing.T) {
	got := WithQueryParams("/x", Params{
		{"q", ""},
		{"tag_ids", []string{"a", "b"}},
		{"page_num", 0},
	})
	assert.Equal(t, "/x?tag_ids=a&tag_ids=b&page_num=0", got)
}

func TestWithQueryParamsSkipsNilValues(t *testing.T) {
	var id *uuid.UUID
	var s *string
	got := WithQueryParams("/contacts", Params{
		{"organization_id", id},
		{"q", s},
		{"status", nil},
		{"tag_ids", []uuid.UUID{}},
	})
	assert.Equal(t, "/contacts", got)
}

func TestWithQueryParamsEscapesValues(t *testing.T) {
	got := WithQueryParams("/search", Params{{"q", "acme & co"}})

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "acme & co", u.Query().Get("q"))
}

func TestWithQueryParamsAppendsToExistingQuery(t *testing.T) {
	assert.Equal(t, "/x?a=1&b=2", WithQueryParams("/x?a=1", Params{{"b", 2}}))
}

func TestFilterKeysApplyPageDefaults(t *testing.T) {
	assert.Equal(t, "contacts?page_num=0&page_size=25", ContactFilters{}.Key())
	assert.Equal(t, "tags?page_num=3&page_size=200", TagFilters{PageNum: 3, PageSize: 200}.Key())

	org := uuid.MustParse("6f1c1b7e-2b7a-4e77-9a59-9a3c5f4d0c01")
	u, err := url.Parse(ContactFilters{Query: "ada", OrganizationID: &org, Status: "lead"}.Key())
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Query().Get("q"))
	assert.Equal(t, org.String(), u.Query().Get("organization_id"))
	assert.Equal(t, "lead", u.Query().Get("status"))
	assert.False(t, u.Query().Has("category"))
}

func TestSearchKeyRepeatsEntityTypes(t *testing.T) {
	u, err := url.Parse(SearchFilters{Query: "acme", EntityTypes: []models.EntityType{models.EntityContact, models.EntityOrganization}}.Key())
	require.NoError(t, err)
	assert.Equal(t, []string{"contact", "organization"}, u.Query()["entity_types"])
}
