package models

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeAuthorization  = "AUTHORIZATION_ERROR"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeUpload         = "UPLOAD_ERROR"
	CodeInternal       = "INTERNAL_ERROR"
)

// ExposeErrorStack controls whether internal error responses carry a stack trace.
// It is enabled only in development.
var ExposeErrorStack bool

// ErrorResponse is the uniform error body returned by the API.
type ErrorResponse struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	// Status overrides the HTTP status derived from Code when non-zero.
	Status int
	Err    error
	stack  []byte
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code the error maps to.
func (e *AppError) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	switch e.Code {
	case CodeValidation, CodeUpload:
		return http.StatusBadRequest
	case CodeAuthentication, CodeAuthorization:
		return http.StatusUnauthorized
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WithStatus returns the error with an explicit HTTP status.
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewAuthenticationError is returned for bad or missing credentials.
func NewAuthenticationError(message string) *AppError {
	return &AppError{Code: CodeAuthentication, Message: message}
}

// NewAuthorizationError is returned when a caller acts on a resource they do not own.
func NewAuthorizationError(message string) *AppError {
	return &AppError{Code: CodeAuthorization, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

// NewConflictError is returned when a unique field is already taken.
func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func NewUploadError(err error) *AppError {
	return &AppError{Code: CodeUpload, Message: "Image upload failed", Err: err}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Server Error",
		Err:     err,
		stack:   debug.Stack(),
	}
}

// StatusOf maps any error to an HTTP status code.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return http.StatusInternalServerError
}

// RespondWithError writes the uniform {message} error body.
// Messages of unexpected errors are never sent to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{Message: "Server Error"}

	var appErr *AppError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		response.Message = appErr.Message
		if ExposeErrorStack && appErr.Code == CodeInternal {
			if appErr.Err != nil {
				response.Message = appErr.Err.Error()
			}
			response.Stack = string(appErr.stack)
		}
	case errors.As(err, &fiberErr):
		response.Message = fiberErr.Message
	case ExposeErrorStack && err != nil:
		response.Message = err.Error()
		response.Stack = string(debug.Stack())
	}

	return c.Status(status).JSON(response)
}
