package server

import (
	"net/http"
	"testing"

	"unionhall/internal/models"
	"unionhall/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCommunityRequiresSuperuser(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	regular := createTestUser(t, s, "regular", false)

	resp := doJSON(t, app, http.MethodPost, "/api/communities", tokenFor(t, s, regular),
		map[string]interface{}{"name": "Forbidden Hall", "slug": "forbidden-hall"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCreateAndFetchCommunity(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	token := tokenFor(t, s, admin)

	resp := doJSON(t, app, http.MethodPost, "/api/communities", token,
		map[string]interface{}{
			"name":        "Woodworkers",
			"slug":        "woodworkers",
			"description": "sawdust appreciation",
		})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created service.CommunityDTO
	decodeBody(t, resp, &created)
	assert.Equal(t, "woodworkers", created.Slug)
	assert.Equal(t, 1, created.MemberCount, "creator is the first member")

	// Public fetch by ID needs no token.
	resp = doJSON(t, app, http.MethodGet, "/api/communities/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// And by slug.
	resp = doJSON(t, app, http.MethodGet, "/api/communities/slug/woodworkers", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bySlug service.CommunityDTO
	decodeBody(t, resp, &bySlug)
	assert.Equal(t, created.ID, bySlug.ID)
}

func TestGetCommunityInvalidIDBadRequest(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)

	resp := doJSON(t, app, http.MethodGet, "/api/communities/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListCommunitiesPublic(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	createTestCommunity(t, s, admin)
	createTestCommunity(t, s, admin)

	resp := doJSON(t, app, http.MethodGet, "/api/communities?limit=10", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page struct {
		Items      []models.Community `json:"items"`
		NextCursor *string            `json:"next_cursor"`
	}
	decodeBody(t, resp, &page)
	assert.Len(t, page.Items, 2)
	assert.Nil(t, page.NextCursor)
}

func TestUpdateCommunityPatchesFields(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)

	resp := doJSON(t, app, http.MethodPut, "/api/communities/"+community.ID.String(),
		tokenFor(t, s, admin), map[string]interface{}{"description": "renovated"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated service.CommunityDTO
	decodeBody(t, resp, &updated)
	assert.Equal(t, "renovated", updated.Description)
	assert.Equal(t, community.Name, updated.Name, "unset fields stay put")
}

func TestDeleteCommunity(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)
	token := tokenFor(t, s, admin)

	resp := doJSON(t, app, http.MethodDelete, "/api/communities/"+community.ID.String(), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/communities/"+community.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
