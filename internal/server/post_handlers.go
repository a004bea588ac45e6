package server

import (
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updatePostRequest struct {
	Title      string `json:"title"`
	Slug       string `json:"slug"`
	Excerpt    string `json:"excerpt"`
	Content    string `json:"content"`
	ImageURL   string `json:"imageUrl"`
	CategoryID uint   `json:"category"`
}

// GetPosts handles GET /api/posts?keyword=&category=&pageNumber=
// @Summary List posts
// @Description Newest first, nine per page
// @Tags posts
// @Produce json
// @Param keyword query string false "Title substring"
// @Param category query int false "Category ID"
// @Param pageNumber query int false "Page number" default(1)
// @Success 200 {object} models.PostPage
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := s.postService.ListPosts(c.UserContext(), service.ListPostsInput{
		Keyword:  c.Query("keyword"),
		Category: c.Query("category"),
		Page:     c.QueryInt("pageNumber", 1),
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(page)
}

// GetPopularPosts handles GET /api/posts/popular
// @Summary Most liked posts
// @Tags posts
// @Produce json
// @Success 200 {array} models.Post
// @Router /posts/popular [get]
func (s *Server) GetPopularPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListPopular(c.UserContext())
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPostBySlug handles GET /api/posts/slug/:slug
// @Summary Post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/slug/{slug} [get]
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	post, err := s.postService.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// GetMyPosts handles GET /api/posts/my-posts
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	posts, err := s.postService.ListMyPosts(c.UserContext(), currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	req.AuthorID = currentUserID(c)

	post, err := s.postService.Create(c.UserContext(), req)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPostByID handles GET /api/posts/:id
func (s *Server) GetPostByID(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetByID(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Description Author only; empty fields keep their stored values
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Update(c.UserContext(), service.UpdatePostInput{
		PostID:     id,
		EditorID:   currentUserID(c),
		Title:      req.Title,
		Slug:       req.Slug,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		ImageURL:   req.ImageURL,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.Delete(c.UserContext(), service.DeletePostInput{
		PostID:      id,
		RequesterID: currentUserID(c),
	}); err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post removed"})
}

// GetRelatedPosts handles GET /api/posts/:id/related
func (s *Server) GetRelatedPosts(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.RelatedPosts(c.UserContext(), id)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(posts)
}

// ToggleLike handles PUT /api/posts/:id/like
// @Summary Like or unlike a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/like [put]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.ToggleLike(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(post)
}
