package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponsesCarrySecurityHeaders(t *testing.T) {
	ts := newTestServer(t)

	paths := []string{"/", "/api/posts", "/api/nope"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			resp, err := ts.app.Test(httptest.NewRequest(http.MethodGet, path, nil))
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
			// Uploaded images are embedded by the frontend on another origin.
			assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
			assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
		})
	}
}

func TestUploadedFilesAreServedWithSecurityHeaders(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(ts.uploadDir, "cover.txt"), []byte("hello"), 0o644))

	resp, err := ts.app.Test(httptest.NewRequest(http.MethodGet, "/uploads/cover.txt", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "cross-origin", resp.Header.Get("Cross-Origin-Resource-Policy"))
}
