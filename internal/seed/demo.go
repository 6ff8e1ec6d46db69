package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"unionhall/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Options configuration for the demo seeder.
type Options struct {
	NumUsers       int
	NumCommunities int
	NumPosts       int
	ShouldClean    bool
	SkipBcrypt     bool
}

// Demo populates the database with a realistic data set: users, communities
// with memberships, installed engines, and an engaged feed. Denormalized
// counters stay consistent with the child rows because everything goes
// through the factory.
func Demo(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting demo seeding with %d users, %d communities, %d posts...",
		opts.NumUsers, opts.NumCommunities, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	if err := Engines(db); err != nil {
		return fmt.Errorf("failed to seed engine catalog: %w", err)
	}

	f := NewFactory(db, SeedOptions{SkipBcrypt: opts.SkipBcrypt})
	//nolint:gosec // weak randomness is fine for seeding
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("✓ %d users created", len(users))

	if len(users) == 0 {
		return nil
	}

	var catalog []models.Engine
	if err := db.Where("is_system = ?", false).Find(&catalog).Error; err != nil {
		return fmt.Errorf("failed to load engine catalog: %w", err)
	}
	var social models.Engine
	if err := db.Where("key = ?", "social").First(&social).Error; err != nil {
		return fmt.Errorf("failed to load social engine: %w", err)
	}

	communities := make([]*models.Community, 0, opts.NumCommunities)
	for i := 0; i < opts.NumCommunities; i++ {
		owner := users[i%len(users)]
		community, err := f.CreateCommunity(owner, func(c *models.Community) {
			c.IsPrivate = r.Float32() < 0.2
		})
		if err != nil {
			return fmt.Errorf("failed to create community: %w", err)
		}

		if err := f.InstallEngine(community, &social); err != nil {
			return fmt.Errorf("failed to install social engine: %w", err)
		}
		for _, idx := range r.Perm(len(catalog))[:min(1+r.Intn(3), len(catalog))] {
			if err := f.InstallEngine(community, &catalog[idx]); err != nil {
				return fmt.Errorf("failed to install engine: %w", err)
			}
		}

		communities = append(communities, community)
	}
	log.Printf("✓ %d communities created", len(communities))

	// Roughly half the user base joins each community; private communities
	// keep a few requests pending for admins to process.
	members := make(map[*models.Community][]*models.User)
	for _, community := range communities {
		owner := *community.CreatorID
		members[community] = append(members[community], userByID(users, owner))

		for _, user := range users {
			if user.ID == owner || r.Float32() < 0.5 {
				continue
			}
			status := models.StatusActive
			if community.IsPrivate && r.Float32() < 0.3 {
				status = models.StatusPending
			}
			if _, err := f.CreateMembership(user, community, models.RoleMember, status); err != nil {
				return fmt.Errorf("failed to create membership: %w", err)
			}
			if status == models.StatusActive {
				members[community] = append(members[community], user)
			}
		}
	}
	log.Println("✓ memberships created")

	if len(communities) > 0 {
		for i := 0; i < opts.NumPosts; i++ {
			community := communities[r.Intn(len(communities))]
			roster := members[community]
			author := roster[r.Intn(len(roster))]

			post, err := f.CreatePost(author, community)
			if err != nil {
				return fmt.Errorf("failed to create post: %w", err)
			}

			for _, idx := range r.Perm(len(roster))[:r.Intn(len(roster)+1)] {
				if err := f.CreateLike(roster[idx], post); err != nil {
					return fmt.Errorf("failed to create like: %w", err)
				}
			}
			for j := 0; j < r.Intn(4); j++ {
				if _, err := f.CreateComment(roster[r.Intn(len(roster))], post); err != nil {
					return fmt.Errorf("failed to create comment: %w", err)
				}
			}

			if i > 0 && i%100 == 0 {
				log.Printf("Created %d posts...", i)
			}
		}
		log.Printf("✓ %d posts created with likes and comments", opts.NumPosts)
	}

	log.Println("🎉 Demo seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE likes, comments, posts, community_engines, user_engines, memberships, communities, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}

func userByID(users []*models.User, id uuid.UUID) *models.User {
	for _, u := range users {
		if u.ID == id {
			return u
		}
	}
	return users[0]
}
