package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSConfig holds the Aliyun OSS bucket credentials.
type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	// PublicBaseURL replaces the default https://<bucket>.<endpoint> prefix, e.g. for a CDN domain.
	PublicBaseURL string
}

// OSSProvider uploads objects to an Aliyun OSS bucket.
type OSSProvider struct {
	bucket  *oss.Bucket
	baseURL string
}

func NewOSSProvider(cfg OSSConfig) (*OSSProvider, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("create oss client: %w", err)
	}
	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("open oss bucket %s: %w", cfg.Bucket, err)
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.%s", cfg.Bucket, cfg.Endpoint)
	}
	return &OSSProvider{bucket: bucket, baseURL: baseURL}, nil
}

func (p *OSSProvider) Store(ctx context.Context, key, contentType string, data []byte) (string, error) {
	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := p.bucket.PutObject(key, bytes.NewReader(data), opts...); err != nil {
		return "", fmt.Errorf("put oss object %s: %w", key, err)
	}
	return joinURL(p.baseURL, key), nil
}
