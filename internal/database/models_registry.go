package database

import "quill/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Category{},
		&models.Post{},
		&models.PostLike{},
		&models.Bookmark{},
		&models.Comment{},
	}
}
