package database

import "unionhall/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Community{},
		&models.Membership{},
		&models.Engine{},
		&models.CommunityEngine{},
		&models.UserEngine{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
	}
}
