// Package validation provides request validation backed by go-playground/validator.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"quill/internal/models"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with AppError conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator that reports fields by their JSON names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Struct validates s with the shared validator.
func Struct(s any) error {
	defaultOnce.Do(func() { defaultValidator = New() })
	return defaultValidator.Validate(s)
}

// Validate validates a struct and returns a validation AppError describing every failing field.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return models.NewValidationError(err.Error())
	}

	var missing, other []string
	for _, e := range validationErrs {
		switch e.Tag() {
		case "required", "notblank":
			missing = append(missing, e.Field())
		default:
			other = append(other, friendlyMessage(e))
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "Please add all required fields: "+strings.Join(missing, ", "))
	}
	parts = append(parts, other...)
	return models.NewValidationError(strings.Join(parts, "; "))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "email":
		return "Please provide a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", e.Field(), e.Param())
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", e.Field())
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}
