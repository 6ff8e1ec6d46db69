// Package seed provides helpers to create demo and test data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"unionhall/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPassword is the login password every factory-created user gets.
const SeedPassword = "Unionhall-pw123!"

// SeedOptions tune how the factory generates data.
type SeedOptions struct {
	// SkipBcrypt stores the plain seed password instead of a hash. Much
	// faster for large seeds; such accounts cannot log in.
	SkipBcrypt bool
	// MaxDays is how far back in time generated content is spread.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts SeedOptions
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts SeedOptions) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	//nolint:gosec // weak randomness is fine for seeding
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// pastTime returns a timestamp spread over the last MaxDays.
func (f *Factory) pastTime() time.Time {
	daysBack := f.rng.Intn(f.opts.MaxDays)
	hoursBack := f.rng.Intn(24)
	minsBack := f.rng.Intn(60)
	return time.Now().Add(-time.Duration(daysBack)*24*time.Hour -
		time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username:    fmt.Sprintf("%s_%d", strings.ToLower(gofakeit.Username()), gofakeit.Number(100, 999)),
		Email:       gofakeit.Email(),
		DisplayName: gofakeit.Name(),
		Bio:         gofakeit.Sentence(10),
		AvatarURL:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}

	if f.opts.SkipBcrypt {
		user.Password = SeedPassword
	} else {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCommunity persists a community owned by the given user, including the
// owner membership row and a member count of one.
func (f *Factory) CreateCommunity(owner *models.User, overrides ...func(*models.Community)) (*models.Community, error) {
	slug := fmt.Sprintf("%s-%s", strings.ToLower(gofakeit.Word()), uuid.NewString()[:8])
	if len(slug) > 24 {
		slug = slug[:24]
	}
	community := &models.Community{
		Name:        gofakeit.Company(),
		Slug:        slug,
		Description: gofakeit.Paragraph(1, 2, 8, " "),
		CreatorID:   &owner.ID,
		MemberCount: 1,
	}

	for _, override := range overrides {
		override(community)
	}

	return community, f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.Membership{
			CommunityID: community.ID,
			UserID:      owner.ID,
			Role:        models.RoleOwner,
			Status:      models.StatusActive,
		}).Error
	})
}

// CreateMembership persists a membership row and keeps the community's
// denormalized member count in step for active members.
func (f *Factory) CreateMembership(user *models.User, community *models.Community, role models.MembershipRole, status models.MembershipStatus) (*models.Membership, error) {
	membership := &models.Membership{
		CommunityID: community.ID,
		UserID:      user.ID,
		Role:        role,
		Status:      status,
	}

	return membership, f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		if status != models.StatusActive {
			return nil
		}
		return tx.Model(&models.Community{}).Where("id = ?", community.ID).
			UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error
	})
}

// CreatePost constructs and persists a sample `models.Post` in the given
// community, with a created_at spread over the recent past.
func (f *Factory) CreatePost(author *models.User, community *models.Community, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		CommunityID: community.ID,
		AuthorID:    author.ID,
		Title:       gofakeit.Sentence(5),
		Content:     gofakeit.Paragraph(1, 3, 5, "\n"),
		ViewCount:   f.rng.Intn(500),
		CreatedAt:   f.pastTime(),
	}

	for _, override := range overrides {
		override(post)
	}

	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment on the post and bumps its comment count in
// the same transaction.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Content:  gofakeit.Sentence(8),
	}

	for _, override := range overrides {
		override(comment)
	}

	return comment, f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

// CreateLike persists a like from `user` on `post` and bumps its like count
// in the same transaction.
func (f *Factory) CreateLike(user *models.User, post *models.Post) error {
	like := &models.Like{
		PostID: post.ID,
		UserID: user.ID,
	}
	return f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(like).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
}

// InstallEngine activates an engine for the community.
func (f *Factory) InstallEngine(community *models.Community, engine *models.Engine) error {
	return f.db.Create(&models.CommunityEngine{
		CommunityID: community.ID,
		EngineID:    engine.ID,
		IsActive:    true,
	}).Error
}
