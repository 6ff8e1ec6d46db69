package server

import (
	"net/http"
	"testing"

	"unionhall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPublicCommunityImmediatelyActive(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)
	member := createTestUser(t, s, "joiner", false)

	resp := doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/join", tokenFor(t, s, member), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var membership models.Membership
	decodeBody(t, resp, &membership)
	assert.Equal(t, models.StatusActive, membership.Status)
	assert.Equal(t, models.RoleMember, membership.Role)
}

func TestJoinTwiceConflicts(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)
	member := createTestUser(t, s, "joiner", false)
	token := tokenFor(t, s, member)

	resp := doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/join", token, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/join", token, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestProcessMemberApproveFlow(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)
	require.NoError(t, s.db.Model(&models.Community{}).
		Where("id = ?", community.ID).Update("is_private", true).Error)

	applicant := createTestUser(t, s, "applicant", false)
	resp := doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/join", tokenFor(t, s, applicant), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var pending models.Membership
	decodeBody(t, resp, &pending)
	require.Equal(t, models.StatusPending, pending.Status)

	resp = doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/members/"+applicant.ID.String()+"/process",
		tokenFor(t, s, admin), map[string]string{"action": "approve"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var approved models.Membership
	decodeBody(t, resp, &approved)
	assert.Equal(t, models.StatusActive, approved.Status)
}

func TestProcessMemberRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)

	member := createTestUser(t, s, "plainmember", false)
	resp := doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/join", tokenFor(t, s, member), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	target := createTestUser(t, s, "target", false)
	resp = doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/members/"+target.ID.String()+"/process",
		tokenFor(t, s, member), map[string]string{"action": "ban"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProcessMemberUnknownActionBadRequest(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)
	target := createTestUser(t, s, "target", false)

	resp := doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/members/"+target.ID.String()+"/process",
		tokenFor(t, s, admin), map[string]string{"action": "promote"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListMembersFilterByStatus(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)
	token := tokenFor(t, s, admin)

	member := createTestUser(t, s, "activeone", false)
	resp := doJSON(t, app, http.MethodPost,
		"/api/communities/"+community.ID.String()+"/join", tokenFor(t, s, member), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet,
		"/api/communities/"+community.ID.String()+"/members?status=active", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var members []models.Membership
	decodeBody(t, resp, &members)
	assert.Len(t, members, 2, "owner plus the new member")
}

func TestGetMyMembership(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	admin := createTestUser(t, s, "siteadmin", true)
	community := createTestCommunity(t, s, admin)

	resp := doJSON(t, app, http.MethodGet,
		"/api/communities/"+community.ID.String()+"/membership/me", tokenFor(t, s, admin), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var membership models.Membership
	decodeBody(t, resp, &membership)
	assert.Equal(t, models.RoleOwner, membership.Role)

	stranger := createTestUser(t, s, "stranger", false)
	resp = doJSON(t, app, http.MethodGet,
		"/api/communities/"+community.ID.String()+"/membership/me", tokenFor(t, s, stranger), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
