package server

import (
	"net/http"
	"testing"

	"unionhall/internal/models"
	"unionhall/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedEngine(t *testing.T, s *Server, key string, system bool) *models.Engine {
	t.Helper()
	eng := &models.Engine{Key: key, Name: key, IsSystem: system}
	require.NoError(t, s.db.Create(eng).Error)
	return eng
}

func TestGetEngineCatalog(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "browser", false)
	seedEngine(t, s, "social", true)
	seedEngine(t, s, "arena", false)

	resp := doJSON(t, app, http.MethodGet, "/api/engines", tokenFor(t, s, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var catalog []service.EngineDTO
	decodeBody(t, resp, &catalog)
	assert.Len(t, catalog, 2)
}

func TestSetAndListMyEngines(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "tinkerer", false)
	token := tokenFor(t, s, user)
	seedEngine(t, s, "library", false)

	resp := doJSON(t, app, http.MethodPut, "/api/engines/mine/library", token,
		map[string]bool{"is_active": true, "is_pinned": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dto service.UserEngineDTO
	decodeBody(t, resp, &dto)
	assert.True(t, dto.IsPinned)

	resp = doJSON(t, app, http.MethodGet, "/api/engines/mine", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mine []service.UserEngineDTO
	decodeBody(t, resp, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "library", mine[0].Engine.Key)
}

func TestSetMyEngineUnknownKeyNotFound(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "tinkerer", false)

	resp := doJSON(t, app, http.MethodPut, "/api/engines/mine/ghost", tokenFor(t, s, user),
		map[string]bool{"is_active": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInstallAndDeactivateCommunityEngine(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)
	token := tokenFor(t, s, admin)
	seedEngine(t, s, "arena", false)

	base := "/api/communities/" + community.ID.String() + "/engines"

	resp := doJSON(t, app, http.MethodPost, base+"/arena", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var installed []models.Engine
	decodeBody(t, resp, &installed)
	require.Len(t, installed, 1)
	assert.Equal(t, "arena", installed[0].Key)

	// Reinstalling an active engine conflicts.
	resp = doJSON(t, app, http.MethodPost, base+"/arena", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, base+"/arena", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	installed = nil
	decodeBody(t, resp, &installed)
	assert.Empty(t, installed)
}

func TestInstallEngineRequiresCommunityAdmin(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)
	seedEngine(t, s, "arena", false)

	member := createTestUser(t, s, "plainmember", false)
	resp := doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/join", tokenFor(t, s, member), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/engines/arena", tokenFor(t, s, member), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
