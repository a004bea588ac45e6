package seed

import (
	"context"
	"testing"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

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

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestLoadSamplePosts(t *testing.T) {
	posts, err := LoadSamplePosts()
	require.NoError(t, err)
	require.Len(t, posts, 10)

	slugs := map[string]bool{}
	for _, p := range posts {
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Excerpt)
		assert.NotEmpty(t, p.Content)
		assert.NotEmpty(t, p.ImageURL)
		assert.False(t, slugs[p.Slug], "duplicate slug %q", p.Slug)
		slugs[p.Slug] = true
	}
}

func TestImport_RequiresAuthor(t *testing.T) {
	db := setupSQLiteDB(t)

	_, err := NewSeeder(db, Options{}).Import(context.Background())
	require.ErrorIs(t, err, ErrNoAuthor)
	assert.Zero(t, count(t, db, &models.Post{}))
}

func TestImport_RoundRobinCategories(t *testing.T) {
	db := setupSQLiteDB(t)
	owner := models.User{Name: "Owner", Email: "owner@example.com", Password: "hash"}
	require.NoError(t, db.Create(&owner).Error)

	res, err := NewSeeder(db, Options{DemoUsers: 3, CommentsPerPost: 2, SkipBcrypt: true}).Import(context.Background())
	require.NoError(t, err)

	assert.Equal(t, owner.ID, res.Author.ID)
	require.Len(t, res.Categories, 5)
	assert.Equal(t, "Technology", res.Categories[0].Name)
	assert.Equal(t, "travel", res.Categories[4].Slug)
	require.Len(t, res.Posts, 10)
	for i, p := range res.Posts {
		assert.Equal(t, owner.ID, p.AuthorID)
		assert.Equal(t, res.Categories[i%5].ID, p.CategoryID)
	}
	assert.Len(t, res.DemoUsers, 3)
	assert.Equal(t, 20, res.Comments)
	assert.EqualValues(t, 4, count(t, db, &models.User{}))
	assert.EqualValues(t, 20, count(t, db, &models.Comment{}))
}

func TestImport_ReplacesPreviousData(t *testing.T) {
	db := setupSQLiteDB(t)
	require.NoError(t, db.Create(&models.User{Name: "Owner", Email: "owner@example.com", Password: "hash"}).Error)

	s := NewSeeder(db, Options{})
	_, err := s.Import(context.Background())
	require.NoError(t, err)
	_, err = s.Import(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 10, count(t, db, &models.Post{}))
	assert.EqualValues(t, 5, count(t, db, &models.Category{}))
}

func TestDestroy_KeepsUsers(t *testing.T) {
	db := setupSQLiteDB(t)
	owner := models.User{Name: "Owner", Email: "owner@example.com", Password: "hash"}
	require.NoError(t, db.Create(&owner).Error)

	s := NewSeeder(db, Options{DemoUsers: 2, CommentsPerPost: 1, SkipBcrypt: true})
	res, err := s.Import(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.PostLike{PostID: res.Posts[0].ID, UserID: owner.ID}).Error)
	require.NoError(t, db.Create(&models.Bookmark{PostID: res.Posts[0].ID, UserID: owner.ID}).Error)

	require.NoError(t, s.Destroy(context.Background()))

	for _, model := range []any{&models.Post{}, &models.Category{}, &models.Comment{}, &models.PostLike{}, &models.Bookmark{}} {
		assert.Zero(t, count(t, db, model), "%T", model)
	}
	assert.EqualValues(t, 3, count(t, db, &models.User{}))
}

func TestEnsureCategories_Idempotent(t *testing.T) {
	db := setupSQLiteDB(t)
	require.NoError(t, db.Create(&models.Category{Name: "Travel", Slug: "travel"}).Error)

	require.NoError(t, EnsureCategories(context.Background(), db))
	require.NoError(t, EnsureCategories(context.Background(), db))

	assert.EqualValues(t, len(DefaultCategories), count(t, db, &models.Category{}))
}
