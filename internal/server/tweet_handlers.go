package server

import (
	"tweetapp/internal/models"
	"tweetapp/internal/service"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleCreateTweet(c *fiber.Ctx) error {
	var in service.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	tweet, err := s.tweets.Create(c.UserContext(), currentUserID(c), in)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tweet)
}

func (s *Server) handleGetTweet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}

	tweet, err := s.tweets.Get(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(tweet)
}

func (s *Server) handleListTweets(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	tweets, err := s.tweets.List(c.UserContext(), limit, offset, currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"tweets": tweets})
}

func (s *Server) handleListUserTweets(c *fiber.Ctx) error {
	authorID, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}

	limit, offset := parsePagination(c)
	tweets, err := s.tweets.ListByUser(c.UserContext(), authorID, limit, offset, currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"tweets": tweets})
}

func (s *Server) handleUpdateTweet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}

	var in service.UpdateInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	tweet, err := s.tweets.Update(c.UserContext(), currentUserID(c), id, in)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(tweet)
}

func (s *Server) handleDeleteTweet(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}

	if err := s.tweets.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Tweet deleted"})
}

func (s *Server) handleToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return handleServiceError(c, err)
	}

	tweet, err := s.tweets.ToggleLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"liked":       tweet.Liked,
		"likes_count": tweet.LikesCount,
	})
}

// handleSearchTweets answers text search. A blank query is rejected; a
// query with no matches returns an empty list and an explanatory message.
func (s *Server) handleSearchTweets(c *fiber.Ctx) error {
	query := c.Query("q")
	limit, offset := parsePagination(c)

	tweets, err := s.tweets.Search(c.UserContext(), query, limit, offset, currentUserID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	resp := fiber.Map{"tweets": tweets}
	if len(tweets) == 0 {
		resp["message"] = "No tweets matched your search"
	}
	return c.JSON(resp)
}
