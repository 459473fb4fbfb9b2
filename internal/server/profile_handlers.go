package server

import (
	"tweetapp/internal/models"
	"tweetapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleGetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}

	user, err := s.users.Get(c.UserContext(), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	profile, err := s.users.GetProfile(c.UserContext(), currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(profile)
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var in service.ProfileInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	profile, err := s.users.UpdateProfile(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(profile)
}
