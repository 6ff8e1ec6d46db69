package repository

import (
	"context"
	"errors"

	"unionhall/internal/cache"
	"unionhall/internal/models"
	"unionhall/internal/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommunityRepository defines persistence operations for communities.
type CommunityRepository interface {
	// CreateWithOwner creates the community, its owner membership, and its
	// initial engine links in one transaction. MemberCount starts at 1 because
	// the creator is the first active member.
	CreateWithOwner(ctx context.Context, community *models.Community, ownerID uuid.UUID, engines []models.Engine) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error)
	GetBySlug(ctx context.Context, slug string) (*models.Community, error)
	List(ctx context.Context, limit int, cursor *pagination.Cursor) (pagination.Page[models.Community], error)
	Update(ctx context.Context, community *models.Community) error
	Delete(ctx context.Context, id uuid.UUID) error
	// RecountMembers recomputes member_count from active membership rows.
	// Recovery fallback only; normal mutations keep the counter in step.
	RecountMembers(ctx context.Context, id uuid.UUID) (int, error)
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository returns a new CommunityRepository implementation.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) CreateWithOwner(ctx context.Context, community *models.Community, ownerID uuid.UUID, engines []models.Engine) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		community.CreatorID = &ownerID
		community.MemberCount = 1
		if err := tx.Create(community).Error; err != nil {
			return err
		}

		owner := models.Membership{
			CommunityID: community.ID,
			UserID:      ownerID,
			Role:        models.RoleOwner,
			Status:      models.StatusActive,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}

		for _, eng := range engines {
			link := models.CommunityEngine{
				CommunityID: community.ID,
				EngineID:    eng.ID,
				IsActive:    true,
			}
			if err := tx.Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Community slug already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	var community models.Community
	key := cache.CommunityKey(id)

	err := cache.Aside(ctx, key, &community, cache.CommunityTTL, func() error {
		if err := r.db.WithContext(ctx).First(&community, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Community", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) GetBySlug(ctx context.Context, slug string) (*models.Community, error) {
	var community models.Community
	key := cache.CommunitySlugKey(slug)

	err := cache.Aside(ctx, key, &community, cache.CommunityTTL, func() error {
		if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&community).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Community", slug)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, limit int, cursor *pagination.Cursor) (pagination.Page[models.Community], error) {
	q := r.db.WithContext(ctx).Model(&models.Community{})
	page, err := pagination.Paginate[models.Community](q, limit, cursor)
	if err != nil {
		return page, models.NewInternalError(err)
	}
	return page, nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	if err := r.db.WithContext(ctx).Save(community).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Community slug already taken")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, community.ID, community.Slug)
	return nil
}

func (r *communityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	community, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ?", id).Delete(&models.CommunityEngine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", id).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		var postIDs []uuid.UUID
		if err := tx.Model(&models.Post{}).Where("community_id = ?", id).Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Like{}).Error; err != nil {
				return err
			}
			if err := tx.Where("community_id = ?", id).Delete(&models.Post{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Community{}, "id = ?", id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCommunity(ctx, id, community.Slug)
	return nil
}

func (r *communityRepository) RecountMembers(ctx context.Context, id uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Membership{}).
			Where("community_id = ? AND status = ?", id, models.StatusActive).
			Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Community{}).
			Where("id = ?", id).
			UpdateColumn("member_count", count).Error
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	cache.Invalidate(ctx, cache.MemberCountKey(id))
	cache.Invalidate(ctx, cache.CommunityKey(id))
	return int(count), nil
}
