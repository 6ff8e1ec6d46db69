package models

import (
	"time"

	"github.com/google/uuid"
)

// MembershipRole defines a member's role within a community.
type MembershipRole string

const (
	// RoleOwner is the community owner role.
	RoleOwner MembershipRole = "owner"
	// RoleAdmin can process join requests and bans.
	RoleAdmin MembershipRole = "admin"
	// RoleModerator can moderate engine content.
	RoleModerator MembershipRole = "moderator"
	// RoleMember is the default role.
	RoleMember MembershipRole = "member"
)

// MembershipStatus defines the join state of a membership.
//
// "rejected" is transient: rejecting a pending request deletes the row, so the
// absence of a row means the user may apply again.
type MembershipStatus string

const (
	// StatusPending awaits approval by a community admin.
	StatusPending MembershipStatus = "pending"
	// StatusActive is a full member.
	StatusActive MembershipStatus = "active"
	// StatusBanned blocks the user from re-joining. The row is retained.
	StatusBanned MembershipStatus = "banned"
)

// Membership maps users to communities and tracks role and status.
// At most one row exists per (community, user) pair.
type Membership struct {
	CommunityID uuid.UUID        `gorm:"type:uuid;primaryKey" json:"community_id"`
	Community   *Community       `gorm:"foreignKey:CommunityID;constraint:OnDelete:CASCADE" json:"community,omitempty"`
	UserID      uuid.UUID        `gorm:"type:uuid;primaryKey" json:"user_id"`
	User        *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role        MembershipRole   `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Status      MembershipStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
