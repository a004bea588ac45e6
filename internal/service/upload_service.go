package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"quill/internal/config"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/storage"

	"github.com/chai2010/webp"
	gonanoid "github.com/matoous/go-nanoid/v2"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultUploadMaxSizeMB    = 10
	DefaultUploadMaxDimension = 2048
	UploadFolder              = "quill_uploads"
	JPEGQuality               = 82
	WebPQuality               = 80
)

// formatExt maps decoded image formats to the extension used in object keys.
var formatExt = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

var extFormat = map[string]string{
	"jpeg": "jpeg",
	"jpg":  "jpeg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

type UploadInput struct {
	UserID   uint
	Filename string
	// ContentType is the type declared on the multipart part. Empty and
	// application/octet-stream mean undeclared; anything else must match
	// the sniffed image type.
	ContentType string
	Content     []byte
}

type UploadService struct {
	provider     storage.Provider
	driver       string
	maxBytes     int64
	maxDimension int
}

func NewUploadService(provider storage.Provider, cfg *config.Config) *UploadService {
	maxSizeMB := DefaultUploadMaxSizeMB
	maxDimension := DefaultUploadMaxDimension
	driver := "local"

	if cfg != nil {
		if cfg.UploadMaxSizeMB > 0 {
			maxSizeMB = cfg.UploadMaxSizeMB
		}
		if cfg.UploadMaxDimension > 0 {
			maxDimension = cfg.UploadMaxDimension
		}
		if cfg.StorageDriver != "" {
			driver = cfg.StorageDriver
		}
	}

	return &UploadService{
		provider:     provider,
		driver:       driver,
		maxBytes:     int64(maxSizeMB) * 1024 * 1024,
		maxDimension: maxDimension,
	}
}

// MaxBytes is the largest accepted upload.
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload checks and normalizes an image, stores it and returns its public URL.
// Nothing is written when validation or storage fails.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (string, error) {
	data, contentType, ext, err := s.prepare(in)
	if err != nil {
		observability.ImageUploads.WithLabelValues(s.driver, "rejected").Inc()
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", models.NewInternalError(fmt.Errorf("generate nanoid: %w", err))
	}
	key := fmt.Sprintf("%s/image-%s.%s", UploadFolder, id, ext)

	url, err := s.provider.Store(ctx, key, contentType, data)
	if err != nil {
		observability.ImageUploads.WithLabelValues(s.driver, "failed").Inc()
		middleware.Logger.ErrorContext(ctx, "image upload failed", "key", key, "driver", s.driver, "error", err)
		return "", models.NewUploadError(err)
	}

	observability.ImageUploads.WithLabelValues(s.driver, "stored").Inc()
	middleware.Logger.InfoContext(ctx, "image uploaded", "key", key, "bytes", len(data), "user_id", in.UserID)
	return url, nil
}

// prepare validates the upload and returns the bytes to store with their
// content type and key extension.
func (s *UploadService) prepare(in UploadInput) ([]byte, string, string, error) {
	if len(in.Content) == 0 {
		return nil, "", "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return nil, "", "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1024*1024)))
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.Filename), "."))
	wantFormat, ok := extFormat[ext]
	if !ok {
		return nil, "", "", models.NewValidationError("Invalid image type")
	}
	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return nil, "", "", models.NewValidationError("Invalid image type")
	}
	if declared, ok := declaredMIME(in.ContentType); ok && declared != detected {
		return nil, "", "", models.NewValidationError("Image content type mismatch")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, "", "", models.NewValidationError("Invalid image file")
	}
	if format != wantFormat || decodedFormatToMime(format) != detected {
		return nil, "", "", models.NewValidationError("Image content type mismatch")
	}
	contentType := decodedFormatToMime(format)

	b := decoded.Bounds()
	if format == "gif" || (b.Dx() <= s.maxDimension && b.Dy() <= s.maxDimension) {
		return in.Content, contentType, formatExt[format], nil
	}

	encoded, err := encodeAs(format, resizeToFit(decoded, s.maxDimension, s.maxDimension))
	if err != nil {
		return nil, "", "", models.NewInternalError(err)
	}
	return encoded, contentType, formatExt[format], nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeAs(format string, img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality})
	case "png":
		err = png.Encode(buf, img)
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Quality: WebPQuality})
	case "gif":
		err = gif.Encode(buf, img, nil)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// declaredMIME returns the media type of a client-declared Content-Type, or
// false when the client did not name one.
func declaredMIME(contentType string) (string, bool) {
	if strings.TrimSpace(contentType) == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType, true
	}
	if mediaType == "application/octet-stream" {
		return "", false
	}
	return mediaType, true
}

func decodedFormatToMime(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
