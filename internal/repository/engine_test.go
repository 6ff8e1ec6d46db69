package repository

import (
	"context"
	"testing"

	"unionhall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedEngines(t *testing.T, db *gorm.DB) map[string]models.Engine {
	t.Helper()
	out := make(map[string]models.Engine)
	for _, e := range []models.Engine{
		{Key: "social", Name: "Social Feed", IsSystem: true},
		{Key: "arena", Name: "Arena", IsSystem: true},
		{Key: "library", Name: "Library"},
	} {
		eng := e
		require.NoError(t, db.Create(&eng).Error)
		out[eng.Key] = eng
	}
	return out
}

func TestResolveKeys_PreservesOrderAndReportsUnknown(t *testing.T) {
	db := newTestDB(t)
	repo := NewEngineRepository(db)
	ctx := context.Background()
	seedEngines(t, db)

	resolved, unknown, err := repo.ResolveKeys(ctx, []string{"library", "ghost", "social", "social"})
	require.NoError(t, err)

	keys := make([]string, 0, len(resolved))
	for _, e := range resolved {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"library", "social"}, keys)
	assert.Equal(t, []string{"ghost"}, unknown)
}

func TestInstall_ThenDeactivate_ThenReinstall(t *testing.T) {
	db := newTestDB(t)
	repo := NewEngineRepository(db)
	ctx := context.Background()
	engines := seedEngines(t, db)
	community := createTestCommunity(t, db, false)

	link, err := repo.Install(ctx, community.ID, engines["library"].ID)
	require.NoError(t, err)
	assert.True(t, link.IsActive)

	// Double install conflicts.
	_, err = repo.Install(ctx, community.ID, engines["library"].ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)

	require.NoError(t, repo.Deactivate(ctx, community.ID, engines["library"].ID))

	installed, err := repo.InstalledForCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.Empty(t, installed, "deactivated engines disappear from the live join")

	// Reinstall reactivates the same row.
	link, err = repo.Install(ctx, community.ID, engines["library"].ID)
	require.NoError(t, err)
	assert.True(t, link.IsActive)

	installed, err = repo.InstalledForCommunity(ctx, community.ID)
	require.NoError(t, err)
	require.Len(t, installed, 1)
	assert.Equal(t, "library", installed[0].Key)

	var linkCount int64
	require.NoError(t, db.Model(&models.CommunityEngine{}).
		Where("community_id = ?", community.ID).Count(&linkCount).Error)
	assert.EqualValues(t, 1, linkCount, "reinstall must not duplicate the link row")
}

func TestDeactivate_NotInstalled(t *testing.T) {
	db := newTestDB(t)
	repo := NewEngineRepository(db)
	ctx := context.Background()
	engines := seedEngines(t, db)
	community := createTestCommunity(t, db, false)

	err := repo.Deactivate(ctx, community.ID, engines["social"].ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestAutoInstallSystemEngines_IdempotentAndPinned(t *testing.T) {
	db := newTestDB(t)
	repo := NewEngineRepository(db)
	ctx := context.Background()
	seedEngines(t, db)
	user := createTestUser(t, db)

	require.NoError(t, repo.AutoInstallSystemEngines(ctx, user.ID))
	require.NoError(t, repo.AutoInstallSystemEngines(ctx, user.ID))

	installs, err := repo.UserEngines(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, installs, 2, "only is_system engines are auto-installed, once")
	for _, link := range installs {
		assert.True(t, link.IsPinned)
		assert.True(t, link.IsActive)
		require.NotNil(t, link.Engine)
		assert.True(t, link.Engine.IsSystem)
	}
}

func TestSetUserEngineState_UpsertAndToggle(t *testing.T) {
	db := newTestDB(t)
	repo := NewEngineRepository(db)
	ctx := context.Background()
	engines := seedEngines(t, db)
	user := createTestUser(t, db)

	// First call creates the personal install.
	link, err := repo.SetUserEngineState(ctx, user.ID, engines["library"].ID, true, true)
	require.NoError(t, err)
	assert.True(t, link.IsPinned)

	// Second call updates in place.
	link, err = repo.SetUserEngineState(ctx, user.ID, engines["library"].ID, false, false)
	require.NoError(t, err)
	assert.False(t, link.IsActive)
	assert.False(t, link.IsPinned)

	installs, err := repo.UserEngines(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, installs, 1)
}

func TestCommunityCreateWithOwner_SeedsMembershipAndEngines(t *testing.T) {
	db := newTestDB(t)
	communities := NewCommunityRepository(db)
	members := NewMembershipRepository(db)
	engines := NewEngineRepository(db)
	ctx := context.Background()
	catalog := seedEngines(t, db)
	owner := createTestUser(t, db)

	community := &models.Community{Name: "Dev Hub", Slug: "devhub"}
	err := communities.CreateWithOwner(ctx, community, owner.ID,
		[]models.Engine{catalog["social"], catalog["library"]})
	require.NoError(t, err)

	assert.Equal(t, 1, memberCount(t, db, community.ID))

	m, err := members.Find(ctx, community.ID, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.RoleOwner, m.Role)
	assert.Equal(t, models.StatusActive, m.Status)

	installed, err := engines.InstalledForCommunity(ctx, community.ID)
	require.NoError(t, err)
	assert.Len(t, installed, 2)

	// Duplicate slug conflicts.
	dup := &models.Community{Name: "Dev Hub 2", Slug: "devhub"}
	err = communities.CreateWithOwner(ctx, dup, owner.ID, nil)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
}
