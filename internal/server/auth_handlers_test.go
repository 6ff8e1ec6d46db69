package server

import (
	"net/http"
	"testing"

	"unionhall/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupCreatesUserAndInstallsSystemEngines(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)

	require.NoError(t, s.db.Create(&models.Engine{
		Key: "social", Name: "Social", IsSystem: true,
	}).Error)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "newcomer",
		"email":    "newcomer@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "newcomer", body.User.Username)

	var links int64
	require.NoError(t, s.db.Model(&models.UserEngine{}).
		Where("user_id = ?", body.User.ID).Count(&links).Error)
	assert.Equal(t, int64(1), links, "system engines auto-install at signup")
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "weakling",
		"email":    "weakling@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	createTestUser(t, s, "original", false)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "copycat",
		"email":    "original@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginIssuesTokenWithExpectedClaims(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "alice", false)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)

	parsed, err := jwt.Parse(body.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.JWTSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, user.ID.String(), claims["sub"])
	assert.Equal(t, "unionhall-api", claims["iss"])
	assert.Equal(t, "unionhall-client", claims["aud"])
	assert.NotEmpty(t, claims["jti"])
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "bob", false)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    user.Email,
		"password": "Wrong-passw0rd!",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginUnknownEmailUnauthorized(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "ghost@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshIssuesNewToken(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)
	user := createTestUser(t, s, "carol", false)
	token := tokenFor(t, s, user)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	assert.NotEmpty(t, body.Token)
}

func TestRefreshWithoutTokenUnauthorized(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)

	resp := doJSON(t, app, http.MethodPost, "/api/auth/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRouteRequiresAuth(t *testing.T) {
	s := newTestServer(t)
	app := testApp(s)

	resp := doJSON(t, app, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
