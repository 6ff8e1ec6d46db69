package server

import (
	"net/http"
	"strings"
	"testing"

	"unionhall/internal/featureflags"
	"unionhall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMyProfile(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "selfie", false)

	resp := doJSON(t, app, http.MethodGet, "/api/users/me", tokenFor(t, s, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.User
	decodeBody(t, resp, &got)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "selfie", got.Username)
}

func TestUpdateMyProfile(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "editor", false)

	resp := doJSON(t, app, http.MethodPut, "/api/users/me", tokenFor(t, s, user),
		map[string]string{"display_name": "The Editor", "bio": "words"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.User
	decodeBody(t, resp, &got)
	assert.Equal(t, "The Editor", got.DisplayName)
	assert.Equal(t, "words", got.Bio)
}

func TestUpdateMyProfileRejectsOversizedBio(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "rambler", false)

	resp := doJSON(t, app, http.MethodPut, "/api/users/me", tokenFor(t, s, user),
		map[string]string{"bio": strings.Repeat("a", 501)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetUserProfile(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	viewer := createTestUser(t, s, "viewer", false)
	subject := createTestUser(t, s, "subject", false)

	resp := doJSON(t, app, http.MethodGet,
		"/api/users/"+subject.ID.String(), tokenFor(t, s, viewer), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.User
	decodeBody(t, resp, &got)
	assert.Equal(t, subject.ID, got.ID)
}

func TestGetMyFeaturesEvaluatesFlags(t *testing.T) {
	s := newTestServer(t)
	s.featureFlags = featureflags.NewManager("beta=on,legacy=off")
	app := testApp(s)
	user := createTestUser(t, s, "flagged", false)

	resp := doJSON(t, app, http.MethodGet, "/api/users/me/features", tokenFor(t, s, user), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]bool
	decodeBody(t, resp, &got)
	assert.True(t, got["beta"])
	assert.False(t, got["legacy"])
}
