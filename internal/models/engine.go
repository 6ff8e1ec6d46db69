package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Engine is a catalog entry for an installable feature module.
// The catalog is read-mostly and seeded at deploy time.
type Engine struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key         string    `gorm:"size:40;not null;uniqueIndex" json:"key"`
	Name        string    `gorm:"size:120;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:40" json:"icon"`
	// Features is a flag list in "name=on,beta=25%" form, evaluated per user
	// by the featureflags manager.
	Features  string    `gorm:"type:text" json:"features"`
	IsSystem  bool      `gorm:"not null;default:false" json:"is_system"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns a UUID when one was not provided by the caller.
func (e *Engine) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// CommunityEngine tracks which community has installed which engine.
// This is the live activation state; reads always join against it rather than
// trusting a cached column, so toggling takes effect on the next read.
type CommunityEngine struct {
	CommunityID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"community_id"`
	Community   *Community     `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"community,omitempty"`
	EngineID    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"engine_id"`
	Engine      *Engine        `gorm:"foreignKey:EngineID" json:"engine,omitempty"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	Config      datatypes.JSON `json:"config"`
	InstalledAt time.Time      `gorm:"autoCreateTime" json:"installed_at"`
}

// UserEngine is a personal engine installation, the user's own "dock" as
// opposed to a community's installed feature set. System engines are installed
// here automatically at signup, pinned by default.
type UserEngine struct {
	UserID   uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	User     *User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	EngineID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"engine_id"`
	Engine   *Engine        `gorm:"foreignKey:EngineID" json:"engine,omitempty"`
	IsActive bool           `gorm:"not null;default:true" json:"is_active"`
	IsPinned bool           `gorm:"not null;default:false" json:"is_pinned"`
	Config   datatypes.JSON `json:"config"`
}
