package validation

import (
	"errors"
	"strings"
	"testing"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name     string `json:"name" validate:"notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   signup
		wantMsg string
	}{
		{name: "valid", input: signup{Name: "Ann", Email: "ann@example.com", Password: "secret"}},
		{name: "blank name", input: signup{Name: "   ", Email: "ann@example.com", Password: "secret"}, wantMsg: "Please add all required fields: name"},
		{name: "all missing", input: signup{}, wantMsg: "Please add all required fields: name, email, password"},
		{name: "bad email", input: signup{Name: "Ann", Email: "nope", Password: "secret"}, wantMsg: "Please provide a valid email address"},
		{name: "short password", input: signup{Name: "Ann", Email: "ann@example.com", Password: "abc"}, wantMsg: "password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.input)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *models.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, models.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "secret", false},
		{"Too Short", "abc", true},
		{"Unicode Counts Runes", "ÅÅÅÅÅÅ", false},
		{"Exactly Max", strings.Repeat("a", MaxPasswordLength), false},
		{"Too Long", strings.Repeat("a", MaxPasswordLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCategorySlug(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "web-development", CategorySlug("  Web   Development "))
	assert.Equal(t, "tech", CategorySlug("Tech"))
	assert.Equal(t, "my-post", NormalizeSlug("  My-Post "))
}
