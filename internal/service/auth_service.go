package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tweetapp/internal/mailer"
	"tweetapp/internal/middleware"
	"tweetapp/internal/models"
	"tweetapp/internal/repository"
	"tweetapp/internal/session"
	"tweetapp/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles credential checks and the email-code password reset
// flow. Login failures are reported with a single generic message so the
// response does not reveal whether the email exists.
type AuthService struct {
	userRepo repository.UserRepository
	sessions *session.Store
	mail     mailer.Mailer
	otpTTL   time.Duration
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, sessions *session.Store, mail mailer.Mailer, otpTTL time.Duration) *AuthService {
	if otpTTL <= 0 {
		otpTTL = DefaultOTPTTL
	}
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		mail:     mail,
		otpTTL:   otpTTL,
		now:      time.Now,
	}
}

// Login verifies the email/password pair against the stored bcrypt hash.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// Burn a hash comparison anyway to keep timing comparable.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(password))
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid email or password")
	}
	return user, nil
}

// RequestReset starts a password reset for the given address. To avoid
// account enumeration it always returns a token; when no account matches,
// the token has no record behind it and confirmation will report an
// expired session.
func (s *AuthService) RequestReset(ctx context.Context, email string) (string, error) {
	if err := validation.ValidateEmail(email); err != nil {
		return "", models.NewValidationError(err.Error())
	}

	token := session.NewToken()

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil {
		middleware.Logger.InfoContext(ctx, "password reset requested for unknown email")
		return token, nil
	}

	code, err := GenerateCode()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	rec := &session.PasswordReset{
		UserID:   user.ID,
		Email:    user.Email,
		Code:     code,
		IssuedAt: s.now(),
	}
	if err := s.sessions.SaveReset(ctx, token, rec); err != nil {
		return "", models.NewInternalError(err)
	}

	body := mailer.ResetBody(user.Email, code, s.otpTTL)
	if err := s.mail.Send(ctx, user.Email, mailer.ResetSubject, body); err != nil {
		_ = s.sessions.DeleteReset(ctx, token)
		return "", models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "password reset initiated",
		slog.Uint64("user_id", uint64(user.ID)))
	return token, nil
}

// ConfirmReset checks the emailed code and, if valid and unexpired, replaces
// the account password and clears the reset record.
func (s *AuthService) ConfirmReset(ctx context.Context, token, code, newPassword string) error {
	rec, err := s.sessions.GetReset(ctx, token)
	if errors.Is(err, session.ErrNoSession) {
		return models.NewSessionExpiredError("Session expired, please restart the password reset")
	}
	if err != nil {
		return models.NewInternalError(err)
	}

	if s.now().Sub(rec.IssuedAt) > s.otpTTL {
		return models.NewValidationError("Code has expired, request a new one")
	}
	if code != rec.Code {
		return models.NewValidationError("Invalid code, please try again")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, rec.UserID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	if err := s.sessions.DeleteReset(ctx, token); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to clear password reset record",
			slog.String("error", err.Error()))
	}

	middleware.Logger.InfoContext(ctx, "password reset completed",
		slog.Uint64("user_id", uint64(user.ID)))
	return nil
}
