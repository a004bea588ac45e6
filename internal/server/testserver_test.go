package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/models"
	"quill/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret-key-12345678901234567890123456789012"

// testServer is a full application over an in-memory sqlite database and a
// temporary upload directory.
type testServer struct {
	t         *testing.T
	srv       *Server
	app       *fiber.App
	db        *gorm.DB
	uploadDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the configuration before the server is built.
func newTestServerWith(t *testing.T, configure func(*config.Config)) *testServer {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Env:                 "test",
		Port:                "5000",
		JWTSecret:           testJWTSecret,
		DBDriver:            "sqlite",
		DBSQLitePath:        ":memory:",
		DBSchemaMode:        database.SchemaModeAuto,
		StorageDriver:       "local",
		UploadDir:           dir,
		UploadPublicBaseURL: "http://localhost:5000/uploads",
		UploadMaxSizeMB:     1,
		UploadMaxDimension:  64,
	}
	if configure != nil {
		configure(cfg)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	srv, err := NewServerWithDeps(cfg, db, nil, storage.NewLocalProvider(dir, cfg.UploadPublicBaseURL))
	require.NoError(t, err)
	srv.userService.WithHashCost(bcrypt.MinCost)

	return &testServer{t: t, srv: srv, app: srv.NewApp(), db: db, uploadDir: dir}
}

// request sends a JSON request and decodes the response body into out when non-nil.
func (ts *testServer) request(method, path, token string, body any, out any) int {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return ts.send(req, token, out)
}

func (ts *testServer) send(req *http.Request, token string, out any) int {
	ts.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(ts.t, err)
	defer func() { _ = resp.Body.Close() }()

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(ts.t, err)
		require.NoError(ts.t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp.StatusCode
}

type authBody struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	AvatarURL string `json:"avatarUrl"`
	Bookmarks []uint `json:"bookmarks"`
	Token     string `json:"token"`
}

type errorBody struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
}

func (ts *testServer) register(name string) authBody {
	ts.t.Helper()
	var out authBody
	status := ts.request(http.MethodPost, "/api/users", "", fiber.Map{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret1",
	}, &out)
	require.Equal(ts.t, http.StatusCreated, status)
	return out
}

func (ts *testServer) category(token, name string) models.Category {
	ts.t.Helper()
	var out models.Category
	status := ts.request(http.MethodPost, "/api/categories", token, fiber.Map{"name": name}, &out)
	require.Equal(ts.t, http.StatusCreated, status)
	return out
}

func (ts *testServer) createPost(token, title, slug string, categoryID uint) models.Post {
	ts.t.Helper()
	var out models.Post
	status := ts.request(http.MethodPost, "/api/posts", token, postBody(title, slug, categoryID), &out)
	require.Equal(ts.t, http.StatusCreated, status)
	return out
}

func postBody(title, slug string, categoryID uint) fiber.Map {
	return fiber.Map{
		"title":    title,
		"slug":     slug,
		"excerpt":  "About " + title,
		"content":  fmt.Sprintf("<p>%s</p>", title),
		"imageUrl": "http://localhost:5000/uploads/quill_uploads/image-x.png",
		"category": categoryID,
	}
}
