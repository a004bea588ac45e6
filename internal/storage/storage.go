// Package storage persists uploaded objects and returns their public URLs.
package storage

import (
	"context"
	"fmt"
	"strings"

	"quill/internal/config"
)

// Provider stores an object under key and returns the URL clients fetch it from.
type Provider interface {
	Store(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// New returns the provider selected by STORAGE_DRIVER.
func New(cfg *config.Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageDriver)) {
	case "", "local":
		return NewLocalProvider(cfg.UploadDir, cfg.UploadPublicBaseURL), nil
	case "oss":
		return NewOSSProvider(OSSConfig{
			Endpoint:        cfg.OSSEndpoint,
			AccessKeyID:     cfg.OSSAccessKeyID,
			AccessKeySecret: cfg.OSSAccessKeySecret,
			Bucket:          cfg.OSSBucket,
			PublicBaseURL:   cfg.OSSPublicBaseURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
