package server

import (
	"io"

	"tweetapp/internal/models"
	"tweetapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

// handleUploadMedia accepts a multipart image upload and returns the
// storage reference plus the URL it will be served from. The kind field
// selects tweet photos versus profile pictures.
func (s *Server) handleUploadMedia(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("A file field is required"))
	}

	kind := service.KindTweetPhoto
	if c.FormValue("kind") == string(service.KindProfilePicture) {
		kind = service.KindProfilePicture
	}

	f, err := fh.Open()
	if err != nil {
		return handleServiceError(c, models.NewInternalError(err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(s.media.MaxBytes())+1))
	if err != nil {
		return handleServiceError(c, models.NewInternalError(err))
	}

	ref, err := s.media.Upload(c.UserContext(), kind, data)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"ref": ref,
		"url": s.media.URL(ref),
	})
}

func (s *Server) handleServeMedia(c *fiber.Ctx) error {
	key := c.Params("*")
	if key == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Media key is required"))
	}

	data, err := s.media.Open(c.UserContext(), key)
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(data)
}
