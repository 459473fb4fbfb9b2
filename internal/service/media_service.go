package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"tweetapp/internal/models"
	"tweetapp/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxUploadBytes caps the accepted upload size before decoding
	// when no limit is configured.
	DefaultMaxUploadBytes = 10 << 20

	// maxDimension is the longest edge kept after downscaling.
	maxDimension = 2048

	jpegQuality = 82
)

// MediaKind selects the storage prefix for an upload.
type MediaKind string

const (
	KindTweetPhoto     MediaKind = "photos"
	KindProfilePicture MediaKind = "profile_pics"
)

// MediaService validates, normalizes, and stores uploaded images. Every
// accepted upload is re-encoded as JPEG under a fresh uuid key, so stored
// references never collide and never carry client-chosen names.
type MediaService struct {
	store    storage.Storage
	baseURL  string
	maxBytes int
}

// NewMediaService builds a media service enforcing maxBytes as the upload
// size limit. A non-positive maxBytes falls back to DefaultMaxUploadBytes.
func NewMediaService(store storage.Storage, baseURL string, maxBytes int) *MediaService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &MediaService{store: store, baseURL: baseURL, maxBytes: maxBytes}
}

// MaxBytes reports the upload size limit in bytes.
func (s *MediaService) MaxBytes() int {
	return s.maxBytes
}

// Upload decodes the raw bytes as an image (JPEG, PNG, GIF, or WebP),
// downscales anything larger than 2048px on its longest edge, re-encodes
// as JPEG, and saves it. It returns the storage reference to attach to a
// tweet or profile.
func (s *MediaService) Upload(ctx context.Context, kind MediaKind, data []byte) (string, error) {
	if len(data) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if len(data) > s.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File exceeds the %dMB upload limit", s.maxBytes>>20))
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", models.NewValidationError("File is not a supported image format")
	}

	src = downscale(src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", models.NewInternalError(err)
	}

	key := fmt.Sprintf("%s/%s.jpg", kind, uuid.NewString())
	if err := s.store.Save(ctx, key, buf.Bytes()); err != nil {
		return "", models.NewInternalError(err)
	}
	return key, nil
}

// Open returns the stored bytes for a media reference.
func (s *MediaService) Open(ctx context.Context, key string) ([]byte, error) {
	data, err := s.store.Open(ctx, key)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, models.NewNotFoundError("Media", key)
		}
		return nil, models.NewInternalError(err)
	}
	return data, nil
}

// URL maps a storage reference to the path it is served from.
func (s *MediaService) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + key
}

func downscale(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDimension && h <= maxDimension {
		return src
	}

	scale := float64(maxDimension) / float64(w)
	if h > w {
		scale = float64(maxDimension) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
