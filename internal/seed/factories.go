package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Factory builds demo entities with gofakeit and persists them.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db, faker: gofakeit.New(0)}
}

// BuildUser returns an unsaved demo user. The index keeps emails unique
// across one run.
func (f *Factory) BuildUser(index int, passwordHash string) models.User {
	first := f.faker.FirstName()
	last := f.faker.LastName()
	handle := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, index))
	return models.User{
		Name:      first + " " + last,
		Email:     handle + "@example.com",
		Password:  passwordHash,
		Bio:       f.faker.Sentence(12),
		AvatarURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", handle),
	}
}

// CreateUsers inserts count demo users sharing one password hash.
func (f *Factory) CreateUsers(ctx context.Context, count int, hash func() (string, error)) ([]models.User, error) {
	passwordHash, err := hash()
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	// Offset by the current count so repeated runs do not collide on email.
	var existing int64
	if err := f.db.WithContext(ctx).Model(&models.User{}).Count(&existing).Error; err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		users = append(users, f.BuildUser(int(existing)+i, passwordHash))
	}
	if err := f.db.WithContext(ctx).CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// CreateComments adds perPost comments to every post, written by randomly
// chosen commenters at times after the post was published.
func (f *Factory) CreateComments(ctx context.Context, posts []models.Post, commenters []models.User, perPost int) (int, error) {
	if len(commenters) == 0 || perPost <= 0 {
		return 0, nil
	}

	comments := make([]models.Comment, 0, len(posts)*perPost)
	for _, post := range posts {
		for i := 0; i < perPost; i++ {
			commenter := commenters[f.faker.Number(0, len(commenters)-1)]
			at := post.CreatedAt.Add(time.Duration(i+1) * time.Duration(f.faker.Number(1, 50)) * time.Minute)
			comments = append(comments, models.Comment{
				PostID:    post.ID,
				UserID:    commenter.ID,
				Text:      f.faker.Sentence(f.faker.Number(4, 16)),
				CreatedAt: at,
				UpdatedAt: at,
			})
		}
	}
	if len(comments) == 0 {
		return 0, nil
	}
	if err := f.db.WithContext(ctx).CreateInBatches(&comments, 100).Error; err != nil {
		return 0, err
	}
	return len(comments), nil
}
