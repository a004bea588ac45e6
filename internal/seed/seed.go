// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"time"

	"quill/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed data/sample_posts.yml
var samplePostsYAML []byte

// DefaultCategories are created by Import in this order; sample posts are
// assigned to them round-robin.
var DefaultCategories = []models.Category{
	{Name: "Technology", Slug: "technology"},
	{Name: "Lifestyle", Slug: "lifestyle"},
	{Name: "Productivity", Slug: "productivity"},
	{Name: "Finance", Slug: "finance"},
	{Name: "Travel", Slug: "travel"},
}

// DemoPassword is the password of every generated demo user.
const DemoPassword = "password123"

// ErrNoAuthor is returned by Import when there is no user to own the sample posts.
var ErrNoAuthor = errors.New("no users found in the database; register a user first or pass -demo-users")

// Options configuration for the seeder
type Options struct {
	// DemoUsers is the number of generated users created before importing.
	DemoUsers int
	// CommentsPerPost adds generated comments from demo users to every sample post.
	CommentsPerPost int
	// SkipBcrypt hashes demo passwords with the minimum cost; meant for tests.
	SkipBcrypt bool
}

// SamplePost is one entry of the embedded sample dataset.
type SamplePost struct {
	Title    string `yaml:"title"`
	Slug     string `yaml:"slug"`
	Excerpt  string `yaml:"excerpt"`
	ImageURL string `yaml:"imageUrl"`
	Content  string `yaml:"content"`
}

// Result summarizes an import.
type Result struct {
	Author     *models.User
	DemoUsers  []models.User
	Categories []models.Category
	Posts      []models.Post
	Comments   int
}

// Seeder imports and removes the sample dataset.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db)}
}

// LoadSamplePosts parses the embedded sample dataset.
func LoadSamplePosts() ([]SamplePost, error) {
	var doc struct {
		Posts []SamplePost `yaml:"posts"`
	}
	if err := yaml.Unmarshal(samplePostsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse sample posts: %w", err)
	}
	return doc.Posts, nil
}

// Import replaces posts, categories and comments with the sample dataset.
// Users are kept; the oldest account becomes the author of every sample post.
func (s *Seeder) Import(ctx context.Context) (*Result, error) {
	samples, err := LoadSamplePosts()
	if err != nil {
		return nil, err
	}

	if err := s.Destroy(ctx); err != nil {
		return nil, err
	}

	result := &Result{}
	if s.opts.DemoUsers > 0 {
		users, err := s.factory.CreateUsers(ctx, s.opts.DemoUsers, s.passwordHash)
		if err != nil {
			return nil, fmt.Errorf("create demo users: %w", err)
		}
		result.DemoUsers = users
		log.Printf("✓ %d demo users created (password: %s)", len(users), DemoPassword)
	}

	var author models.User
	if err := s.db.WithContext(ctx).Order("id ASC").First(&author).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoAuthor
		}
		return nil, fmt.Errorf("find author: %w", err)
	}
	result.Author = &author

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categories := make([]models.Category, len(DefaultCategories))
		copy(categories, DefaultCategories)
		if err := tx.Create(&categories).Error; err != nil {
			return fmt.Errorf("create categories: %w", err)
		}
		result.Categories = categories

		// The first sample is the newest so listings show the dataset in file order.
		now := time.Now()
		posts := make([]models.Post, 0, len(samples))
		for i, sample := range samples {
			posts = append(posts, models.Post{
				AuthorID:   author.ID,
				Title:      sample.Title,
				Slug:       sample.Slug,
				Excerpt:    sample.Excerpt,
				Content:    sample.Content,
				ImageURL:   sample.ImageURL,
				CategoryID: categories[i%len(categories)].ID,
				CreatedAt:  now.Add(-time.Duration(i) * time.Hour),
				UpdatedAt:  now.Add(-time.Duration(i) * time.Hour),
			})
		}
		if len(posts) > 0 {
			if err := tx.Create(&posts).Error; err != nil {
				return fmt.Errorf("create posts: %w", err)
			}
		}
		result.Posts = posts
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("✓ %d categories and %d posts imported", len(result.Categories), len(result.Posts))

	if s.opts.CommentsPerPost > 0 && len(result.DemoUsers) > 0 {
		n, err := s.factory.CreateComments(ctx, result.Posts, result.DemoUsers, s.opts.CommentsPerPost)
		if err != nil {
			return nil, fmt.Errorf("create demo comments: %w", err)
		}
		result.Comments = n
		log.Printf("✓ %d demo comments created", n)
	}

	return result, nil
}

// Destroy removes posts, categories, comments, likes and bookmarks. Users are kept.
func (s *Seeder) Destroy(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range []any{
			&models.Comment{},
			&models.PostLike{},
			&models.Bookmark{},
			&models.Post{},
			&models.Category{},
		} {
			if err := tx.Where("1 = 1").Delete(table).Error; err != nil {
				return fmt.Errorf("clear %T: %w", table, err)
			}
		}
		return nil
	})
}

// EnsureCategories creates any of the default categories that do not exist yet.
func EnsureCategories(ctx context.Context, db *gorm.DB) error {
	for _, c := range DefaultCategories {
		category := c
		err := db.WithContext(ctx).
			Where("slug = ?", category.Slug).
			FirstOrCreate(&category).Error
		if err != nil {
			return fmt.Errorf("ensure category %q: %w", category.Name, err)
		}
	}
	return nil
}

func (s *Seeder) passwordHash() (string, error) {
	cost := bcrypt.DefaultCost
	if s.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
