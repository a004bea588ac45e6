package server

import (
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetOwnProfile handles GET /api/users/profile
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/profile [get]
func (s *Server) GetOwnProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetOwnDetails(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateOwnProfile handles PUT /api/users/profile
// @Summary Update current user
// @Description Partial update; a fresh token is returned
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UpdateProfileInput true "Profile fields"
// @Success 200 {object} service.AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /users/profile [put]
func (s *Server) UpdateOwnProfile(c *fiber.Ctx) error {
	var req service.UpdateProfileInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)

	resp, err := s.userService.UpdateProfile(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(resp)
}

// GetBookmarkedPosts handles GET /api/users/profile/bookmarks
func (s *Server) GetBookmarkedPosts(c *fiber.Ctx) error {
	posts, err := s.userService.ListBookmarkedPosts(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// ToggleBookmark handles PUT /api/users/profile/bookmarks/:postId
// Responds with the caller's bookmarked post IDs.
func (s *Server) ToggleBookmark(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "postId")
	if err != nil {
		return nil
	}

	ids, err := s.userService.ToggleBookmark(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(ids)
}

// GetUserProfile handles GET /api/users/:userId
// @Summary Public profile
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} service.ProfileResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{userId} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	profile, err := s.userService.GetProfile(c.UserContext(), userID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(profile)
}
