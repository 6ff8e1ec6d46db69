// Command main runs the database seeder for Unionhall.
package main

import (
	"flag"
	"log"

	"unionhall/internal/config"
	"unionhall/internal/database"
	"unionhall/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numCommunities := flag.Int("communities", 8, "Number of communities to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	enginesOnly := flag.Bool("engines-only", false, "Only seed the built-in engine catalog")
	skipBcrypt := flag.Bool("skip-bcrypt", false, "Store plain passwords (fast, accounts cannot log in)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *enginesOnly {
		if err := seed.Engines(db); err != nil {
			log.Fatalf("❌ Engine catalog seeding failed: %v", err)
		}
		log.Println("✨ Engine catalog seeded.")
		return
	}

	err = seed.Demo(db, seed.Options{
		NumUsers:       *numUsers,
		NumCommunities: *numCommunities,
		NumPosts:       *numPosts,
		ShouldClean:    *shouldClean,
		SkipBcrypt:     *skipBcrypt,
	})
	if err != nil {
		log.Fatalf("❌ Demo seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with demo data.")
	log.Printf("📧 All seeded users have the password: %s", seed.SeedPassword)
}
