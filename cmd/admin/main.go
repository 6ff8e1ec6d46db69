// Package main provides operator utilities for Unionhall.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"unionhall/internal/config"
	"unionhall/internal/database"
	"unionhall/internal/models"
	"unionhall/internal/repository"
	"unionhall/internal/service"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <email>        - Promote user to superuser")
	fmt.Println("  go run ./cmd/admin demote <email>         - Demote user from superuser")
	fmt.Println("  go run ./cmd/admin list-superusers        - List all superusers")
	fmt.Println("  go run ./cmd/admin recount                - Repair all denormalized counters")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch os.Args[1] {
	case "promote":
		if len(os.Args) < 3 {
			usage()
		}
		setSuperuser(db, os.Args[2], true)

	case "demote":
		if len(os.Args) < 3 {
			usage()
		}
		setSuperuser(db, os.Args[2], false)

	case "list-superusers":
		listSuperusers(db)

	case "recount":
		recountAll(db)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

func setSuperuser(db *gorm.DB, email string, superuser bool) {
	users := service.NewUserService(repository.NewUserRepository(db))

	user, err := users.SetSuperuser(context.Background(), email, superuser)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			fmt.Printf("User with email %s not found\n", email)
			os.Exit(1)
		}
		log.Fatalf("Failed to update user: %v", err)
	}

	if superuser {
		fmt.Printf("✅ Successfully promoted %s (%s) to superuser\n", user.Username, user.ID)
	} else {
		fmt.Printf("✅ Successfully demoted %s (%s) from superuser\n", user.Username, user.ID)
	}
}

func listSuperusers(db *gorm.DB) {
	var superusers []models.User
	if err := db.Where("is_superuser = ?", true).Find(&superusers).Error; err != nil {
		log.Fatalf("Failed to fetch superusers: %v", err)
	}

	if len(superusers) == 0 {
		fmt.Println("No superusers found in the system")
		return
	}

	fmt.Println("\n📋 Current Superusers:")
	fmt.Println("─────────────────────────────────────")
	for _, su := range superusers {
		fmt.Printf("ID: %s | Username: %s | Email: %s\n", su.ID, su.Username, su.Email)
	}
	fmt.Println("─────────────────────────────────────")
}

// recountAll repairs every denormalized counter from its child rows: post
// like/comment counts and community member counts.
func recountAll(db *gorm.DB) {
	ctx := context.Background()

	posts, err := repository.NewPostRepository(db).RecountAll(ctx)
	if err != nil {
		log.Fatalf("Failed to recount post counters: %v", err)
	}
	fmt.Printf("✅ Recounted %d posts\n", posts)

	communityRepo := repository.NewCommunityRepository(db)
	var ids []uuid.UUID
	if err := db.Model(&models.Community{}).Pluck("id", &ids).Error; err != nil {
		log.Fatalf("Failed to list communities: %v", err)
	}
	for _, id := range ids {
		if _, err := communityRepo.RecountMembers(ctx, id); err != nil {
			log.Fatalf("Failed to recount members for %s: %v", id, err)
		}
	}
	fmt.Printf("✅ Recounted %d communities\n", len(ids))
}
