package seed

import (
	"unionhall/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInEngine is a permanent catalog entry shipped with the platform.
type BuiltInEngine struct {
	Key         string
	Name        string
	Description string
	Icon        string
	Features    string
	IsSystem    bool
}

// BuiltInEngines defines the engine catalog. System engines are installed
// into every new user's dock at signup; the rest are opt-in per community.
var BuiltInEngines = []BuiltInEngine{
	{Key: "social", Name: "Social Feed", Description: "Posts, comments, and likes for the community.", Icon: "feed", IsSystem: true},
	{Key: "arena", Name: "The Arena", Description: "Competitive ladders and matchups.", Icon: "trophy", Features: "ranked=on"},
	{Key: "stage", Name: "The Stage", Description: "Live events and scheduled streams.", Icon: "mic"},
	{Key: "library", Name: "The Library", Description: "Long-form articles and shared reading lists.", Icon: "book"},
	{Key: "guild", Name: "The Guild", Description: "Crews, rosters, and recruiting boards.", Icon: "shield"},
	{Key: "listings", Name: "Listings", Description: "Classifieds and swap boards.", Icon: "tag"},
	{Key: "governance", Name: "Governance", Description: "Polls, proposals, and community votes.", Icon: "gavel"},
	{Key: "academy", Name: "The Academy", Description: "Courses, guides, and mentorship threads.", Icon: "cap"},
	{Key: "club", Name: "The Club", Description: "Recurring meetups and attendance tracking.", Icon: "calendar"},
	{Key: "bunker", Name: "The Bunker", Description: "Members-only vault for private drops.", Icon: "lock"},
	{Key: "garden", Name: "The Garden", Description: "Collaborative wiki pages that grow over time.", Icon: "leaf"},
	{Key: "referral", Name: "Referrals", Description: "Invite tracking and referral rewards.", Icon: "link", Features: "rewards=off"},
}

// Engines seeds the built-in engine catalog. Safe to run repeatedly: rows are
// upserted by key so redeploys pick up copy changes without duplicating.
func Engines(db *gorm.DB) error {
	for _, item := range BuiltInEngines {
		engine := models.Engine{
			Key:         item.Key,
			Name:        item.Name,
			Description: item.Description,
			Icon:        item.Icon,
			Features:    item.Features,
			IsSystem:    item.IsSystem,
		}

		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "features", "is_system"}),
		}).Create(&engine).Error; err != nil {
			return err
		}
	}
	return nil
}
