package repository

import (
	"context"
	"errors"

	"unionhall/internal/models"
	"unionhall/internal/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostRepository defines the interface for feed content. All counter columns
// are adjusted by exactly one inside the same transaction as the row change
// that justifies them; decrements are clamped at zero by guarded updates.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FeedPage(ctx context.Context, communityID uuid.UUID, limit int, cursor *pagination.Cursor) (pagination.Page[models.Post], error)

	// ToggleLike flips the caller's like. The returned bool is the new state.
	ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	IsLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error)
	DeleteComment(ctx context.Context, id uuid.UUID) error
	CommentsPage(ctx context.Context, postID uuid.UUID, limit int, cursor *pagination.Cursor) (pagination.Page[models.Comment], error)

	// Recount rebuilds like_count and comment_count from child rows. Recovery
	// fallback for drifted counters, not part of any request path.
	Recount(ctx context.Context, postID uuid.UUID) error
	RecountAll(ctx context.Context) (int, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", id)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) FeedPage(ctx context.Context, communityID uuid.UUID, limit int, cursor *pagination.Cursor) (pagination.Page[models.Post], error) {
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Preload("Author").
		Where("community_id = ?", communityID)
	page, err := pagination.Paginate[models.Post](q, limit, cursor)
	if err != nil {
		return page, models.NewInternalError(err)
	}
	return page, nil
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Like
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		switch {
		case err == nil:
			// Unlike: delete the row and decrement symmetrically.
			if derr := tx.Where("post_id = ? AND user_id = ?", postID, userID).
				Delete(&models.Like{}).Error; derr != nil {
				return derr
			}
			liked = false
			return decrementCounter(tx, postID, "like_count")
		case errors.Is(err, gorm.ErrRecordNotFound):
			like := models.Like{PostID: postID, UserID: userID}
			if cerr := tx.Create(&like).Error; cerr != nil {
				return cerr
			}
			liked = true
			return incrementCounter(tx, postID, "like_count")
		default:
			return err
		}
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

func (r *postRepository) IsLiked(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return incrementCounter(tx, comment.PostID, "comment_count")
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Preload("Author").First(&comment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *postRepository) DeleteComment(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Comment{}, "id = ?", id).Error; err != nil {
			return err
		}
		return decrementCounter(tx, comment.PostID, "comment_count")
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Comment", id)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) CommentsPage(ctx context.Context, postID uuid.UUID, limit int, cursor *pagination.Cursor) (pagination.Page[models.Comment], error) {
	q := r.db.WithContext(ctx).Model(&models.Comment{}).
		Preload("Author").
		Where("post_id = ?", postID)
	page, err := pagination.Paginate[models.Comment](q, limit, cursor)
	if err != nil {
		return page, models.NewInternalError(err)
	}
	return page, nil
}

func (r *postRepository) Recount(ctx context.Context, postID uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return recountPost(tx, postID)
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) RecountAll(ctx context.Context) (int, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Pluck("id", &ids).Error; err != nil {
		return 0, models.NewInternalError(err)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := recountPost(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return len(ids), nil
}

func recountPost(tx *gorm.DB, postID uuid.UUID) error {
	var likes, comments int64
	if err := tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&likes).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Count(&comments).Error; err != nil {
		return err
	}
	return tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumns(map[string]interface{}{
			"like_count":    likes,
			"comment_count": comments,
		}).Error
}

func incrementCounter(tx *gorm.DB, postID uuid.UUID, column string) error {
	return tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

// decrementCounter clamps at zero with a guarded update so a drifted counter
// can never go negative.
func decrementCounter(tx *gorm.DB, postID uuid.UUID, column string) error {
	return tx.Model(&models.Post{}).
		Where("id = ? AND "+column+" > 0", postID).
		UpdateColumn(column, gorm.Expr(column+" - 1")).Error
}
