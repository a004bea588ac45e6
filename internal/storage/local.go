package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for keys that would escape the upload directory.
var ErrInvalidKey = errors.New("invalid object key")

// LocalProvider writes objects below a directory served at a public base URL.
type LocalProvider struct {
	dir     string
	baseURL string
}

func NewLocalProvider(dir, baseURL string) *LocalProvider {
	return &LocalProvider{dir: dir, baseURL: baseURL}
}

// Dir returns the root directory objects are written to.
func (p *LocalProvider) Dir() string {
	return p.dir
}

func (p *LocalProvider) Store(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := p.pathFor(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return joinURL(p.baseURL, key), nil
}

func (p *LocalProvider) pathFor(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return filepath.Join(p.dir, clean), nil
}
