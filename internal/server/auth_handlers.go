package server

import (
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RegisterUser handles POST /api/users
// @Summary Register
// @Description Create an account and receive a bearer token
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.RegisterInput true "Registration request"
// @Success 201 {object} service.AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) RegisterUser(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	resp, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// LoginUser handles POST /api/users/login
// @Summary Login
// @Description Authenticate with email and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body service.LoginInput true "Login request"
// @Success 200 {object} service.AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) LoginUser(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	resp, err := s.userService.Login(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(resp)
}
