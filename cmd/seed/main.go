// Command main imports or destroys the Quill sample dataset.
//
// Usage:
//
//	go run ./cmd/seed                 import sample categories and posts
//	go run ./cmd/seed -demo-users 5   create demo users first, then import
//	go run ./cmd/seed -d              destroy posts, categories, comments, likes and bookmarks
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/seed"
)

func main() {
	destroy := flag.Bool("d", false, "Destroy sample data instead of importing it")
	demoUsers := flag.Int("demo-users", 0, "Number of generated demo users to create before importing")
	comments := flag.Int("comments", 0, "Generated comments per post from demo users")
	flag.Parse()

	log.Println("🌱 Quill Seeder")
	log.Println("===============")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{DemoUsers: *demoUsers, CommentsPerPost: *comments})
	ctx := context.Background()

	if *destroy {
		if err := s.Destroy(ctx); err != nil {
			log.Fatalf("❌ Destroy failed: %v", err)
		}
		log.Println("✨ Data Destroyed Successfully!")
		return
	}

	res, err := s.Import(ctx)
	if err != nil {
		if errors.Is(err, seed.ErrNoAuthor) {
			log.Fatalf("❌ %v", err)
		}
		log.Fatalf("❌ Import failed: %v", err)
	}
	log.Printf("✨ Data Imported Successfully! %d posts by %s", len(res.Posts), res.Author.Email)
}
