package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"unionhall/internal/config"
	"unionhall/internal/database"
	"unionhall/internal/engine"
	"unionhall/internal/featureflags"
	"unionhall/internal/middleware"
	"unionhall/internal/models"
	"unionhall/internal/notifications"
	"unionhall/internal/repository"
	"unionhall/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Sup3r-secret-pw!"

func setupServerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(database.PersistentModels()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

// newTestServer wires a Server over sqlite without Redis or the Prometheus
// middleware, mirroring production wiring without touching the default
// metrics registry twice across tests.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:      "test-secret-key-for-handler-tests",
		Port:           "0",
		PaginationMode: config.ModeLenient,
		EngineKeyMode:  config.ModeLenient,
	}
	middleware.InitMiddleware(cfg)

	db := setupServerTestDB(t)
	s := &Server{
		config:        cfg,
		db:            db,
		userRepo:      repository.NewUserRepository(db),
		communityRepo: repository.NewCommunityRepository(db),
		memberRepo:    repository.NewMembershipRepository(db),
		engineRepo:    repository.NewEngineRepository(db),
		postRepo:      repository.NewPostRepository(db),
		registry:      engine.NewRegistry(),
		featureFlags:  featureflags.NewManager(cfg.FeatureFlags),
	}

	s.membershipService = service.NewMembershipService(
		s.memberRepo, s.communityRepo, s.isSuperuserByUserID)
	s.communityService = service.NewCommunityService(
		s.communityRepo, s.engineRepo, s.registry,
		s.isSuperuserByUserID, cfg.StrictEngineKeys(), cfg.StrictPagination())
	s.engineService = service.NewEngineService(
		s.engineRepo, s.registry, s.membershipService.IsCommunityAdmin)
	s.feedService = service.NewFeedService(
		s.postRepo, s.membershipService, s.isSuperuserByUserID, cfg.StrictPagination())
	s.userService = service.NewUserService(s.userRepo)

	s.roomHub = notifications.NewRoomHub()
	s.hubs = []wireableHub{s.roomHub}

	return s
}

// testApp returns a fiber app with the production routes registered. Requests
// to protected routes authenticate with real bearer tokens from tokenFor.
func testApp(s *Server) *fiber.App {
	app := fiber.New()
	s.SetupRoutes(app)
	return app
}

// tokenFor issues a real JWT for the user, exercising the same claims the
// login handler produces.
func tokenFor(t *testing.T, s *Server, user *models.User) string {
	t.Helper()
	token, err := s.generateToken(user.ID, user.Username)
	require.NoError(t, err)
	return token
}

func createTestUser(t *testing.T, s *Server, username string, super bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    string(hash),
		IsSuperuser: super,
	}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

func createTestCommunity(t *testing.T, s *Server, owner *models.User) *service.CommunityDTO {
	t.Helper()
	dto, err := s.communityService.Create(context.Background(), service.CreateCommunityInput{
		CreatorID: owner.ID,
		Name:      "Test Community",
		Slug:      "c-" + uuid.NewString()[:18],
	})
	require.NoError(t, err)
	return dto
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}
