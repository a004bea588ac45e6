package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupMockDB wraps sqlmock in a postgres-dialect gorm DB.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a fresh in-memory database with the full schema.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		DBSQLitePath: ":memory:",
		DBSchemaMode: database.SchemaModeAuto,
	}
	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fixture struct {
	db         *gorm.DB
	users      UserRepository
	posts      PostRepository
	comments   CommentRepository
	categories CategoryRepository
}

func newFixture(t *testing.T) *fixture {
	db := setupSQLiteDB(t)
	return &fixture{
		db:         db,
		users:      NewUserRepository(db),
		posts:      NewPostRepository(db),
		comments:   NewCommentRepository(db),
		categories: NewCategoryRepository(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Password: "hash"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) category(t *testing.T, name string) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, Slug: name}
	require.NoError(t, f.categories.Create(context.Background(), c))
	return c
}

// post creates a post whose creation time is offset by age so ordering is deterministic.
func (f *fixture) post(t *testing.T, author *models.User, category *models.Category, title string, age time.Duration) *models.Post {
	t.Helper()
	p := &models.Post{
		AuthorID:   author.ID,
		Title:      title,
		Slug:       fmt.Sprintf("post-%d-%s", time.Now().UnixNano(), title),
		Excerpt:    "excerpt",
		Content:    "content",
		ImageURL:   "https://img.example.com/x.png",
		CategoryID: category.ID,
		CreatedAt:  time.Now().Add(-age),
	}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}
