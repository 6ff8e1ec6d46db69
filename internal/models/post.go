package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is community-scoped feed content with denormalized counters.
//
// LikeCount, CommentCount, and ViewCount are persisted columns adjusted by
// exactly ±1 in the same transaction as the child-row mutation. They are never
// recomputed by aggregation in the hot path; Recount exists as a recovery
// fallback in the repository.
type Post struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CommunityID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_posts_feed,priority:1" json:"community_id"`
	Community    *Community `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"community,omitempty"`
	AuthorID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Author       *User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title        string     `gorm:"size:300" json:"title"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	LikeCount    int        `gorm:"not null;default:0" json:"like_count"`
	CommentCount int        `gorm:"not null;default:0" json:"comment_count"`
	ViewCount    int        `gorm:"not null;default:0" json:"view_count"`
	CreatedAt    time.Time  `gorm:"index:idx_posts_feed,priority:2" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a UUID when one was not provided by the caller.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PaginationKey returns the keyset sort key for cursor pagination.
func (p Post) PaginationKey() (time.Time, string) {
	return p.CreatedAt, p.ID.String()
}

// Comment is a child of Post. Creating or deleting one adjusts
// Post.CommentCount in the same transaction.
type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when one was not provided by the caller.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PaginationKey returns the keyset sort key for cursor pagination.
func (c Comment) PaginationKey() (time.Time, string) {
	return c.CreatedAt, c.ID.String()
}

// Like is the toggleable reaction row, keyed by (post, user) so a duplicate
// insert is structurally impossible and existence doubles as the toggle state.
type Like struct {
	PostID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
