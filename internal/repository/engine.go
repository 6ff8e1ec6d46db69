package repository

import (
	"context"
	"errors"

	"unionhall/internal/cache"
	"unionhall/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EngineRepository defines persistence operations for the engine catalog,
// community installations, and personal installations.
type EngineRepository interface {
	Catalog(ctx context.Context) ([]models.Engine, error)
	GetByKey(ctx context.Context, key string) (*models.Engine, error)
	// ResolveKeys maps keys to catalog engines, preserving input order and
	// silently dropping unknown keys. The second return value lists the keys
	// that did not resolve so strict callers can reject the request.
	ResolveKeys(ctx context.Context, keys []string) ([]models.Engine, []string, error)

	// InstalledForCommunity is always a live join on is_active links; there is
	// no cached installed-engines column to go stale.
	InstalledForCommunity(ctx context.Context, communityID uuid.UUID) ([]models.Engine, error)
	Install(ctx context.Context, communityID uuid.UUID, engineID uuid.UUID) (*models.CommunityEngine, error)
	Deactivate(ctx context.Context, communityID uuid.UUID, engineID uuid.UUID) error

	UserEngines(ctx context.Context, userID uuid.UUID) ([]models.UserEngine, error)
	// AutoInstallSystemEngines gives a new user every is_system engine,
	// pinned. Runs at signup; re-running is a no-op for existing links.
	AutoInstallSystemEngines(ctx context.Context, userID uuid.UUID) error
	SetUserEngineState(ctx context.Context, userID, engineID uuid.UUID, active, pinned bool) (*models.UserEngine, error)
}

type engineRepository struct {
	db *gorm.DB
}

// NewEngineRepository returns a new EngineRepository implementation.
func NewEngineRepository(db *gorm.DB) EngineRepository {
	return &engineRepository{db: db}
}

func (r *engineRepository) Catalog(ctx context.Context) ([]models.Engine, error) {
	var engines []models.Engine
	err := cache.Aside(ctx, cache.EngineCatalogKey, &engines, cache.EngineCatalogTTL, func() error {
		if err := r.db.WithContext(ctx).Order("key ASC").Find(&engines).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return engines, nil
}

func (r *engineRepository) GetByKey(ctx context.Context, key string) (*models.Engine, error) {
	var engine models.Engine
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&engine).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Engine", key)
		}
		return nil, models.NewInternalError(err)
	}
	return &engine, nil
}

func (r *engineRepository) ResolveKeys(ctx context.Context, keys []string) ([]models.Engine, []string, error) {
	if len(keys) == 0 {
		return nil, nil, nil
	}

	var found []models.Engine
	if err := r.db.WithContext(ctx).Where("key IN ?", keys).Find(&found).Error; err != nil {
		return nil, nil, models.NewInternalError(err)
	}

	byKey := make(map[string]models.Engine, len(found))
	for _, e := range found {
		byKey[e.Key] = e
	}

	resolved := make([]models.Engine, 0, len(keys))
	var unknown []string
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		if e, ok := byKey[k]; ok {
			resolved = append(resolved, e)
		} else {
			unknown = append(unknown, k)
		}
	}
	return resolved, unknown, nil
}

func (r *engineRepository) InstalledForCommunity(ctx context.Context, communityID uuid.UUID) ([]models.Engine, error) {
	var engines []models.Engine
	err := r.db.WithContext(ctx).
		Joins("JOIN community_engines ON community_engines.engine_id = engines.id").
		Where("community_engines.community_id = ? AND community_engines.is_active = ?", communityID, true).
		Order("engines.key ASC").
		Find(&engines).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return engines, nil
}

func (r *engineRepository) Install(ctx context.Context, communityID uuid.UUID, engineID uuid.UUID) (*models.CommunityEngine, error) {
	var link models.CommunityEngine
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("community_id = ? AND engine_id = ?", communityID, engineID).
			First(&link).Error
		switch {
		case err == nil:
			// Reinstall just reactivates; prior config survives.
			if link.IsActive {
				return models.NewConflictError("Engine already installed")
			}
			if uerr := tx.Model(&models.CommunityEngine{}).
				Where("community_id = ? AND engine_id = ?", communityID, engineID).
				Update("is_active", true).Error; uerr != nil {
				return uerr
			}
			link.IsActive = true
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			link = models.CommunityEngine{
				CommunityID: communityID,
				EngineID:    engineID,
				IsActive:    true,
			}
			return tx.Create(&link).Error
		default:
			return err
		}
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}
	return &link, nil
}

func (r *engineRepository) Deactivate(ctx context.Context, communityID uuid.UUID, engineID uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.CommunityEngine{}).
		Where("community_id = ? AND engine_id = ? AND is_active = ?", communityID, engineID, true).
		Update("is_active", false)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Installed engine", engineID)
	}
	return nil
}

func (r *engineRepository) UserEngines(ctx context.Context, userID uuid.UUID) ([]models.UserEngine, error) {
	var installs []models.UserEngine
	err := r.db.WithContext(ctx).
		Preload("Engine").
		Where("user_id = ?", userID).
		Find(&installs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return installs, nil
}

func (r *engineRepository) AutoInstallSystemEngines(ctx context.Context, userID uuid.UUID) error {
	var systemEngines []models.Engine
	if err := r.db.WithContext(ctx).Where("is_system = ?", true).Find(&systemEngines).Error; err != nil {
		return models.NewInternalError(err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, eng := range systemEngines {
			var existing models.UserEngine
			err := tx.Where("user_id = ? AND engine_id = ?", userID, eng.ID).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			link := models.UserEngine{
				UserID:   userID,
				EngineID: eng.ID,
				IsActive: true,
				IsPinned: true,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *engineRepository) SetUserEngineState(ctx context.Context, userID, engineID uuid.UUID, active, pinned bool) (*models.UserEngine, error) {
	var link models.UserEngine
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND engine_id = ?", userID, engineID).First(&link).Error
		switch {
		case err == nil:
			if uerr := tx.Model(&models.UserEngine{}).
				Where("user_id = ? AND engine_id = ?", userID, engineID).
				Updates(map[string]interface{}{"is_active": active, "is_pinned": pinned}).Error; uerr != nil {
				return uerr
			}
			link.IsActive = active
			link.IsPinned = pinned
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			link = models.UserEngine{
				UserID:   userID,
				EngineID: engineID,
				IsActive: active,
				IsPinned: pinned,
			}
			return tx.Create(&link).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &link, nil
}
