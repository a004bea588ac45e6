package server

import (
	"fmt"
	"net/http"
	"testing"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	ts := newTestServer(t)
	ann := ts.register("ann")
	bob := ts.register("bob")
	cat := ts.category(ann.Token, "Lifestyle")
	post := ts.createPost(ann.Token, "Mornings", "mornings", cat.ID)
	otherPost := ts.createPost(ann.Token, "Evenings", "evenings", cat.ID)
	path := fmt.Sprintf("/api/comments/%d", post.ID)

	var top models.Comment
	require.Equal(t, http.StatusCreated, ts.request(http.MethodPost, path, bob.Token, fiber.Map{"text": "  Great read  "}, &top))
	assert.Equal(t, "Great read", top.Text)
	assert.Equal(t, post.ID, top.PostID)
	require.NotNil(t, top.User)
	assert.Equal(t, "bob", top.User.Name)
	assert.Nil(t, top.ParentID)

	var reply models.Comment
	require.Equal(t, http.StatusCreated, ts.request(http.MethodPost, path, ann.Token, fiber.Map{"text": "Thanks", "parentId": top.ID}, &reply))
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	var list []models.Comment
	require.Equal(t, http.StatusOK, ts.request(http.MethodGet, path, "", nil, &list))
	require.Len(t, list, 2)
	assert.Equal(t, reply.ID, list[0].ID)
	assert.Equal(t, top.ID, list[1].ID)

	tests := []struct {
		name    string
		path    string
		token   string
		body    fiber.Map
		status  int
		message string
	}{
		{"empty text", path, bob.Token, fiber.Map{"text": "   "}, http.StatusBadRequest, "Comment text is required"},
		{"missing post", "/api/comments/999", bob.Token, fiber.Map{"text": "hi"}, http.StatusNotFound, "Post not found"},
		{"parent on other post", fmt.Sprintf("/api/comments/%d", otherPost.ID), bob.Token, fiber.Map{"text": "hi", "parentId": top.ID}, http.StatusBadRequest, "Parent comment belongs to a different post"},
		{"unknown parent", path, bob.Token, fiber.Map{"text": "hi", "parentId": 999}, http.StatusBadRequest, "Parent comment not found"},
		{"no token", path, "", fiber.Map{"text": "hi"}, http.StatusUnauthorized, "Not authorized, no token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			assert.Equal(t, tt.status, ts.request(http.MethodPost, tt.path, tt.token, tt.body, &body))
			assert.Equal(t, tt.message, body.Message)
		})
	}
}
