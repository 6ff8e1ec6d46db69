package engine

import (
	"context"
	"errors"

	"unionhall/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SocialModule backs the "social" feed engine. Its install hook drops a
// welcome post into the community so a freshly installed feed is not empty.
type SocialModule struct{}

// NewSocialModule returns the feed engine module.
func NewSocialModule() *SocialModule {
	return &SocialModule{}
}

// Key implements Installable.
func (m *SocialModule) Key() string { return "social" }

// OnInstall seeds a welcome post authored by the community creator.
func (m *SocialModule) OnInstall(ctx context.Context, tx *gorm.DB, communityID uuid.UUID) error {
	var community models.Community
	if err := tx.WithContext(ctx).First(&community, "id = ?", communityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if community.CreatorID == nil {
		return nil
	}

	post := models.Post{
		CommunityID: communityID,
		AuthorID:    *community.CreatorID,
		Title:       "Welcome to " + community.Name,
		Content:     "The feed is live. Introduce yourself below.",
	}
	return tx.WithContext(ctx).Create(&post).Error
}

// OnDeactivate leaves feed content in place.
func (m *SocialModule) OnDeactivate(_ context.Context, _ *gorm.DB, _ uuid.UUID) error {
	return nil
}
