package service

import (
	"context"
	"testing"

	"unionhall/internal/database"
	"unionhall/internal/engine"
	"unionhall/internal/models"
	"unionhall/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires real repositories over an in-memory database so service tests
// exercise the same SQL paths production does.
type testEnv struct {
	db            *gorm.DB
	userRepo      repository.UserRepository
	communityRepo repository.CommunityRepository
	memberRepo    repository.MembershipRepository
	engineRepo    repository.EngineRepository
	postRepo      repository.PostRepository
	registry      *engine.Registry

	membershipSvc *MembershipService
	communitySvc  *CommunityService
	engineSvc     *EngineService
	feedSvc       *FeedService
	userSvc       *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))

	env := &testEnv{
		db:            db,
		userRepo:      repository.NewUserRepository(db),
		communityRepo: repository.NewCommunityRepository(db),
		memberRepo:    repository.NewMembershipRepository(db),
		engineRepo:    repository.NewEngineRepository(db),
		postRepo:      repository.NewPostRepository(db),
		registry:      engine.NewRegistry(),
	}

	isSuperuser := func(ctx context.Context, userID uuid.UUID) (bool, error) {
		user, err := env.userRepo.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return user.IsSuperuser, nil
	}

	env.membershipSvc = NewMembershipService(env.memberRepo, env.communityRepo, isSuperuser)
	env.communitySvc = NewCommunityService(env.communityRepo, env.engineRepo, env.registry, isSuperuser, false, false)
	env.engineSvc = NewEngineService(env.engineRepo, env.registry, env.membershipSvc.IsCommunityAdmin)
	env.feedSvc = NewFeedService(env.postRepo, env.membershipSvc, isSuperuser, false)
	env.userSvc = NewUserService(env.userRepo)

	return env
}

func (e *testEnv) createUser(t *testing.T, super bool) *models.User {
	t.Helper()
	user := &models.User{
		Username:    gofakeit.Username() + uuid.NewString()[:8],
		Email:       uuid.NewString()[:8] + gofakeit.Email(),
		Password:    "hashed-password",
		IsActive:    true,
		IsSuperuser: super,
	}
	require.NoError(t, e.db.Create(user).Error)
	return user
}

func (e *testEnv) createEngine(t *testing.T, key string, system bool) *models.Engine {
	t.Helper()
	eng := &models.Engine{
		Key:      key,
		Name:     gofakeit.AppName(),
		IsSystem: system,
	}
	require.NoError(t, e.db.Create(eng).Error)
	return eng
}

// createCommunity builds a community through the service so the owner
// membership and installed engines exist like in production. The owner must be
// a superuser because creation is superuser-gated.
func (e *testEnv) createCommunity(t *testing.T, owner *models.User, private bool, archetypes ...string) *CommunityDTO {
	t.Helper()
	dto, err := e.communitySvc.Create(context.Background(), CreateCommunityInput{
		CreatorID:  owner.ID,
		Name:       gofakeit.Company(),
		Slug:       "c-" + uuid.NewString()[:18],
		IsPrivate:  private,
		Archetypes: archetypes,
	})
	require.NoError(t, err)
	return dto
}
