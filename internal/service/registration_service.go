// Package service contains the application's business logic.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"tweetapp/internal/mailer"
	"tweetapp/internal/middleware"
	"tweetapp/internal/models"
	"tweetapp/internal/repository"
	"tweetapp/internal/session"
	"tweetapp/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// DefaultOTPTTL is the expiry window for a single issued OTP code.
const DefaultOTPTTL = 120 * time.Second

// RegistrationService orchestrates the OTP-gated registration flow:
// Initiate collects and validates identity data and emails a code, Verify
// proves email ownership and creates the durable account, Resend issues a
// fresh code. No User row exists until Verify succeeds.
type RegistrationService struct {
	userRepo repository.UserRepository
	sessions *session.Store
	mail     mailer.Mailer
	otpTTL   time.Duration
	now      func() time.Time
}

// InitiateInput is the candidate identity submitted in phase one.
type InitiateInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// NewRegistrationService creates a registration service. otpTTL <= 0 falls
// back to DefaultOTPTTL.
func NewRegistrationService(userRepo repository.UserRepository, sessions *session.Store, mail mailer.Mailer, otpTTL time.Duration) *RegistrationService {
	if otpTTL <= 0 {
		otpTTL = DefaultOTPTTL
	}
	return &RegistrationService{
		userRepo: userRepo,
		sessions: sessions,
		mail:     mail,
		otpTTL:   otpTTL,
		now:      time.Now,
	}
}

// Initiate validates the candidate identity, stores a pending registration
// record under a fresh opaque token, and emails a verification code. On
// validation failure nothing is written to the session store.
func (s *RegistrationService) Initiate(ctx context.Context, in InitiateInput) (string, error) {
	if err := validation.ValidateUsername(in.Username); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return "", models.NewValidationError(err.Error())
	}
	if in.Password != in.PasswordConfirm {
		return "", models.NewValidationError("Passwords do not match")
	}

	if existing, err := s.userRepo.GetByEmail(ctx, in.Email); err != nil {
		return "", err
	} else if existing != nil {
		return "", models.NewValidationError("Email is already registered")
	}
	if existing, err := s.userRepo.GetByUsername(ctx, in.Username); err != nil {
		return "", err
	} else if existing != nil {
		return "", models.NewValidationError("Username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	code, err := GenerateCode()
	if err != nil {
		return "", models.NewInternalError(err)
	}

	token := session.NewToken()
	rec := &session.PendingRegistration{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Code:         code,
		IssuedAt:     s.now(),
	}
	if err := s.sessions.SaveRegistration(ctx, token, rec); err != nil {
		return "", models.NewInternalError(err)
	}

	body := mailer.OTPBody(in.Email, code, s.otpTTL)
	if err := s.mail.Send(ctx, in.Email, mailer.OTPSubject, body); err != nil {
		// The record is useless without a delivered code; drop it so the
		// client restarts instead of waiting on mail that never arrives.
		_ = s.sessions.DeleteRegistration(ctx, token)
		return "", models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "registration initiated",
		slog.String("email", in.Email))
	return token, nil
}

// Verify checks the submitted code against the pending registration record.
// A correct code within the expiry window creates the User (and its Profile,
// in the same transaction) and clears the record. The terminal success state
// consumes the session: submitting the same code again reports an expired
// session.
func (s *RegistrationService) Verify(ctx context.Context, token, code string) (*models.User, error) {
	rec, err := s.sessions.GetRegistration(ctx, token)
	if errors.Is(err, session.ErrNoSession) {
		middleware.OTPVerifications.WithLabelValues("no_session").Inc()
		return nil, models.NewSessionExpiredError("Session expired, please restart registration")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if s.now().Sub(rec.IssuedAt) > s.otpTTL {
		middleware.OTPVerifications.WithLabelValues("expired").Inc()
		return nil, models.NewValidationError("Code has expired, request a new one")
	}

	if code != rec.Code {
		middleware.OTPVerifications.WithLabelValues("invalid").Inc()
		return nil, models.NewValidationError("Invalid code, please try again")
	}

	user := &models.User{
		Username: rec.Username,
		Email:    rec.Email,
		Password: rec.PasswordHash,
	}
	// Unique constraints on username/email are the safety net against a
	// concurrent duplicate submit racing on the same session.
	if err := s.userRepo.CreateWithProfile(ctx, user); err != nil {
		return nil, err
	}

	if err := s.sessions.DeleteRegistration(ctx, token); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to clear pending registration",
			slog.String("error", err.Error()))
	}

	middleware.OTPVerifications.WithLabelValues("verified").Inc()
	middleware.Logger.InfoContext(ctx, "registration verified",
		slog.String("username", user.Username))
	return user, nil
}

// Resend issues a fresh code for an existing pending registration,
// resetting the expiry clock, and emails it to the candidate address.
func (s *RegistrationService) Resend(ctx context.Context, token string) error {
	rec, err := s.sessions.GetRegistration(ctx, token)
	if errors.Is(err, session.ErrNoSession) {
		return models.NewSessionExpiredError("Session expired, please restart registration")
	}
	if err != nil {
		return models.NewInternalError(err)
	}

	code, err := GenerateCode()
	if err != nil {
		return models.NewInternalError(err)
	}
	rec.Code = code
	rec.IssuedAt = s.now()

	if err := s.sessions.SaveRegistration(ctx, token, rec); err != nil {
		return models.NewInternalError(err)
	}

	body := mailer.OTPBody(rec.Email, code, s.otpTTL)
	if err := s.mail.Send(ctx, rec.Email, mailer.OTPSubject, body); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GenerateCode returns a 6-digit numeric one-time code uniformly random in
// [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}
