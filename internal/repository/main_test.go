package repository

import (
	"testing"

	"unionhall/internal/database"
	"unionhall/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.PersistentModels()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		Username: gofakeit.Username() + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + gofakeit.Email(),
		Password: "hashed-password",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestCommunity(t *testing.T, db *gorm.DB, private bool) *models.Community {
	t.Helper()
	community := &models.Community{
		Name:      gofakeit.Company(),
		Slug:      "c-" + uuid.NewString()[:18],
		IsPrivate: private,
	}
	require.NoError(t, db.Create(community).Error)
	return community
}

func createTestPost(t *testing.T, db *gorm.DB, communityID, authorID uuid.UUID) *models.Post {
	t.Helper()
	post := &models.Post{
		CommunityID: communityID,
		AuthorID:    authorID,
		Title:       gofakeit.Sentence(3),
		Content:     gofakeit.Paragraph(1, 2, 5, " "),
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
