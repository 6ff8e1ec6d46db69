package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Community is a tenant workspace. It owns memberships, engine installations,
// and all engine-scoped content by foreign key.
type Community struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"size:120;not null" json:"name"`
	Slug        string         `gorm:"size:24;not null;uniqueIndex" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	IsPrivate   bool           `gorm:"not null;default:false" json:"is_private"`
	CreatorID   *uuid.UUID     `gorm:"type:uuid" json:"creator_id"`
	Creator     *User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	MemberCount int            `gorm:"not null;default:0" json:"member_count"`
	Settings    datatypes.JSON `json:"settings"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Community) TableName() string {
	return "communities"
}

// PaginationKey returns the keyset sort key for cursor pagination.
func (c Community) PaginationKey() (time.Time, string) {
	return c.CreatedAt, c.ID.String()
}

// BeforeCreate assigns a UUID when one was not provided by the caller.
func (c *Community) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
