package service

import (
	"context"
	"strings"
	"testing"

	"unionhall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfilePatchesOnlyProvidedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, false)

	updated, err := env.userSvc.UpdateProfile(ctx, UpdateProfileInput{
		UserID: user.ID,
		Bio:    "Keeps the lights on.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Keeps the lights on.", updated.Bio)
	assert.Equal(t, user.Username, updated.Username)
	assert.Empty(t, updated.DisplayName)
}

func TestUpdateProfileRejectsOversizedFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, false)

	_, err := env.userSvc.UpdateProfile(ctx, UpdateProfileInput{
		UserID: user.ID,
		Bio:    strings.Repeat("x", 501),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)

	_, err = env.userSvc.UpdateProfile(ctx, UpdateProfileInput{
		UserID:      user.ID,
		DisplayName: strings.Repeat("x", 121),
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", err.(*models.AppError).Code)
}

func TestSetSuperuserByEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, false)

	promoted, err := env.userSvc.SetSuperuser(ctx, user.Email, true)
	require.NoError(t, err)
	assert.True(t, promoted.IsSuperuser)

	demoted, err := env.userSvc.SetSuperuser(ctx, user.Email, false)
	require.NoError(t, err)
	assert.False(t, demoted.IsSuperuser)

	_, err = env.userSvc.SetSuperuser(ctx, "nobody@example.com", true)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", err.(*models.AppError).Code)
}
