package server

import (
	"strconv"
	"time"

	"tweetapp/internal/models"
	"tweetapp/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type verifyRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

type resendRequest struct {
	Token string `json:"token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// handleRegister starts a registration. No account exists yet after this
// call; the response carries the opaque token for the verify step.
func (s *Server) handleRegister(c *fiber.Ctx) error {
	var in service.InitiateInput
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	token, err := s.registration.Initiate(c.UserContext(), in)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Verification code sent to your email",
		"token":   token,
	})
}

// handleVerifyEmail completes a registration when the submitted code
// matches. On success the account exists and a JWT is returned so the
// client is logged in immediately.
func (s *Server) handleVerifyEmail(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	if req.Token == "" || req.Code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Token and code are required"))
	}

	user, err := s.registration.Verify(c.UserContext(), req.Token, req.Code)
	if err != nil {
		return handleServiceError(c, err)
	}

	jwtToken, err := s.generateToken(user)
	if err != nil {
		return handleServiceError(c, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Email verified, account created",
		"token":   jwtToken,
		"user":    user,
	})
}

func (s *Server) handleResendOTP(c *fiber.Ctx) error {
	var req resendRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	if req.Token == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Token is required"))
	}

	if err := s.registration.Resend(c.UserContext(), req.Token); err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "A new verification code has been sent"})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	user, err := s.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return handleServiceError(c, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return handleServiceError(c, models.NewInternalError(err))
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// handleLogout exists for client symmetry. Tokens are stateless, so the
// client discards its copy; nothing is stored server side.
func (s *Server) handleLogout(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (s *Server) handleRequestPasswordReset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	token, err := s.auth.RequestReset(c.UserContext(), req.Email)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "If that email is registered, a reset code has been sent",
		"token":   token,
	})
}

func (s *Server) handleConfirmPasswordReset(c *fiber.Ctx) error {
	var req resetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	if req.Token == "" || req.Code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Token and code are required"))
	}

	if err := s.auth.ConfirmReset(c.UserContext(), req.Token, req.Code, req.NewPassword); err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password has been reset"})
}

func (s *Server) generateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(user.ID), 10),
		"iss": "tweetapp",
		"aud": "tweetapp",
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(24 * time.Hour).Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.Config.JWTSecret))
}
