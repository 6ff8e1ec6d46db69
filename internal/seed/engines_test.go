package seed

import (
	"testing"

	"unionhall/internal/database"
	"unionhall/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if migrateErr := db.AutoMigrate(database.PersistentModels()...); migrateErr != nil {
		t.Fatalf("migrate: %v", migrateErr)
	}
	return db
}

func TestEnginesSeedIsIdempotent(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	if err := Engines(db); err != nil {
		t.Fatalf("seed engines: %v", err)
	}
	if err := Engines(db); err != nil {
		t.Fatalf("re-seed engines: %v", err)
	}

	var count int64
	if err := db.Model(&models.Engine{}).Count(&count).Error; err != nil {
		t.Fatalf("count engines: %v", err)
	}
	if count != int64(len(BuiltInEngines)) {
		t.Fatalf("expected %d engines, got %d", len(BuiltInEngines), count)
	}

	var social models.Engine
	if err := db.Where("key = ?", "social").First(&social).Error; err != nil {
		t.Fatalf("find social engine: %v", err)
	}
	if !social.IsSystem {
		t.Fatal("expected the social engine to be a system engine")
	}
}

func TestEnginesSeedRestoresCatalogCopy(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)

	if err := Engines(db); err != nil {
		t.Fatalf("seed engines: %v", err)
	}
	if err := db.Model(&models.Engine{}).Where("key = ?", "arena").
		Update("name", "Renamed By Operator").Error; err != nil {
		t.Fatalf("rename engine: %v", err)
	}

	if err := Engines(db); err != nil {
		t.Fatalf("re-seed engines: %v", err)
	}

	var arena models.Engine
	if err := db.Where("key = ?", "arena").First(&arena).Error; err != nil {
		t.Fatalf("find arena engine: %v", err)
	}
	if arena.Name != "The Arena" {
		t.Fatalf("expected re-seed to restore catalog name, got %q", arena.Name)
	}
}
