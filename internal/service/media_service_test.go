package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"tweetapp/internal/models"
	"tweetapp/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadStoresJPEGUnderKindPrefix(t *testing.T) {
	store := storage.NewMemory()
	svc := NewMediaService(store, "/media", 0)
	ctx := context.Background()

	ref, err := svc.Upload(ctx, KindTweetPhoto, pngBytes(t, 100, 80))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "photos/"))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	data, err := store.Open(ctx, ref)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestUploadProfilePicturePrefix(t *testing.T) {
	svc := NewMediaService(storage.NewMemory(), "/media", 0)

	ref, err := svc.Upload(context.Background(), KindProfilePicture, pngBytes(t, 10, 10))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "profile_pics/"))
}

func TestUploadDownscalesLargeImages(t *testing.T) {
	store := storage.NewMemory()
	svc := NewMediaService(store, "/media", 0)
	ctx := context.Background()

	ref, err := svc.Upload(ctx, KindTweetPhoto, pngBytes(t, 4096, 1024))
	require.NoError(t, err)

	data, err := store.Open(ctx, ref)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2048, img.Bounds().Dx())
	assert.Equal(t, 512, img.Bounds().Dy())
}

func TestUploadRejectsNonImages(t *testing.T) {
	svc := NewMediaService(storage.NewMemory(), "/media", 0)

	_, err := svc.Upload(context.Background(), KindTweetPhoto, []byte("definitely not an image"))
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestUploadRejectsEmptyAndOversized(t *testing.T) {
	svc := NewMediaService(storage.NewMemory(), "/media", 0)
	ctx := context.Background()

	_, err := svc.Upload(ctx, KindTweetPhoto, nil)
	require.Error(t, err)

	_, err = svc.Upload(ctx, KindTweetPhoto, make([]byte, DefaultMaxUploadBytes+1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "10MB")
}

func TestUploadLimitIsConfigurable(t *testing.T) {
	svc := NewMediaService(storage.NewMemory(), "/media", 1<<20)
	require.Equal(t, 1<<20, svc.MaxBytes())

	_, err := svc.Upload(context.Background(), KindTweetPhoto, make([]byte, 1<<20+1))
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.Contains(t, err.Error(), "1MB")

	_, err = svc.Upload(context.Background(), KindTweetPhoto, pngBytes(t, 50, 50))
	require.NoError(t, err)
}

func TestUploadKeysNeverCollide(t *testing.T) {
	store := storage.NewMemory()
	svc := NewMediaService(store, "/media", 0)
	ctx := context.Background()
	data := pngBytes(t, 5, 5)

	a, err := svc.Upload(ctx, KindTweetPhoto, data)
	require.NoError(t, err)
	b, err := svc.Upload(ctx, KindTweetPhoto, data)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpenMissingMedia(t *testing.T) {
	svc := NewMediaService(storage.NewMemory(), "/media", 0)

	_, err := svc.Open(context.Background(), "photos/never-stored.jpg")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestURLMapping(t *testing.T) {
	svc := NewMediaService(storage.NewMemory(), "/media", 0)

	assert.Equal(t, "/media/photos/x.jpg", svc.URL("photos/x.jpg"))
	assert.Empty(t, svc.URL(""))
}
