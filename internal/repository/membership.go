package repository

import (
	"context"
	"errors"

	"unionhall/internal/cache"
	"unionhall/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipRepository defines persistence operations for community
// memberships. Every status transition that affects member_count runs the row
// change and the counter delta in one transaction.
type MembershipRepository interface {
	Find(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error)
	// CreatePending inserts a pending row. Pending members are never counted.
	CreatePending(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error)
	// CreateActive inserts an active member row and increments member_count.
	CreateActive(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error)
	// Approve flips a pending row to active, resets the role to member, and
	// increments member_count.
	Approve(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error)
	// Reject deletes the row outright; a rejected user may apply again later.
	Reject(ctx context.Context, communityID, userID uuid.UUID) error
	// Ban marks the row banned. member_count decrements only if the member was
	// previously active, and never below zero.
	Ban(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error)
	ListByCommunity(ctx context.Context, communityID uuid.UUID, status models.MembershipStatus) ([]models.Membership, error)
}

type membershipRepository struct {
	db *gorm.DB
}

// NewMembershipRepository returns a new MembershipRepository implementation.
func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &membershipRepository{db: db}
}

func (r *membershipRepository) Find(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &m, nil
}

func (r *membershipRepository) CreatePending(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error) {
	m := &models.Membership{
		CommunityID: communityID,
		UserID:      userID,
		Role:        models.RoleMember,
		Status:      models.StatusPending,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewConflictError("Membership already exists")
		}
		return nil, models.NewInternalError(err)
	}
	return m, nil
}

func (r *membershipRepository) CreateActive(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error) {
	m := &models.Membership{
		CommunityID: communityID,
		UserID:      userID,
		Role:        models.RoleMember,
		Status:      models.StatusActive,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return incrementMemberCount(tx, communityID)
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, models.NewConflictError("Membership already exists")
		}
		return nil, models.NewInternalError(err)
	}
	r.invalidateCommunity(ctx, communityID)
	return m, nil
}

func (r *membershipRepository) Approve(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			First(&m).Error; err != nil {
			return err
		}
		if m.Status != models.StatusPending {
			return models.NewConflictError("Membership is not pending")
		}

		// Approval always lands as a plain member regardless of what role the
		// row carried while pending.
		res := tx.Model(&models.Membership{}).
			Where("community_id = ? AND user_id = ?", communityID, userID).
			Updates(map[string]interface{}{
				"status": models.StatusActive,
				"role":   models.RoleMember,
			})
		if res.Error != nil {
			return res.Error
		}
		m.Status = models.StatusActive
		m.Role = models.RoleMember

		return incrementMemberCount(tx, communityID)
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Membership", userID)
		}
		return nil, models.NewInternalError(err)
	}
	r.invalidateCommunity(ctx, communityID)
	return &m, nil
}

func (r *membershipRepository) Reject(ctx context.Context, communityID, userID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ? AND status = ?", communityID, userID, models.StatusPending).
		Delete(&models.Membership{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Pending membership", userID)
	}
	return nil
}

func (r *membershipRepository) Ban(ctx context.Context, communityID, userID uuid.UUID) (*models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			First(&m).Error; err != nil {
			return err
		}
		if m.Status == models.StatusBanned {
			return models.NewConflictError("Membership is already banned")
		}
		wasActive := m.Status == models.StatusActive

		if err := tx.Model(&models.Membership{}).
			Where("community_id = ? AND user_id = ?", communityID, userID).
			Update("status", models.StatusBanned).Error; err != nil {
			return err
		}
		m.Status = models.StatusBanned

		if wasActive {
			return decrementMemberCount(tx, communityID)
		}
		return nil
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Membership", userID)
		}
		return nil, models.NewInternalError(err)
	}
	r.invalidateCommunity(ctx, communityID)
	return &m, nil
}

func (r *membershipRepository) ListByCommunity(ctx context.Context, communityID uuid.UUID, status models.MembershipStatus) ([]models.Membership, error) {
	q := r.db.WithContext(ctx).Where("community_id = ?", communityID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var memberships []models.Membership
	if err := q.Order("created_at ASC").Find(&memberships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return memberships, nil
}

func (r *membershipRepository) invalidateCommunity(ctx context.Context, communityID uuid.UUID) {
	cache.Invalidate(ctx, cache.CommunityKey(communityID))
	cache.Invalidate(ctx, cache.MemberCountKey(communityID))
}

func incrementMemberCount(tx *gorm.DB, communityID uuid.UUID) error {
	return tx.Model(&models.Community{}).
		Where("id = ?", communityID).
		UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
}

// decrementMemberCount clamps at zero with a guarded update so a drifted
// counter can never go negative.
func decrementMemberCount(tx *gorm.DB, communityID uuid.UUID) error {
	return tx.Model(&models.Community{}).
		Where("id = ? AND member_count > 0", communityID).
		UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error
}
