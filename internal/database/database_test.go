package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestAutoMigratePersistentModels(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(PersistentModels()...))

	for _, table := range []string{"users", "communities", "memberships", "engines", "community_engines", "user_engines", "posts", "comments", "likes"} {
		require.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}
