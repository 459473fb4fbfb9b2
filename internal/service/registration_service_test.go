package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"tweetapp/internal/models"
	"tweetapp/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func validInput() InitiateInput {
	return InitiateInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "hunter2abc",
		PasswordConfirm: "hunter2abc",
	}
}

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestInitiateRejectsInvalidInput(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	mail := &fakeMailer{}
	svc := NewRegistrationService(repository.NewUserRepository(db), sessions, mail, 0)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*InitiateInput)
	}{
		{"short username", func(in *InitiateInput) { in.Username = "ab" }},
		{"bad email", func(in *InitiateInput) { in.Email = "not-an-email" }},
		{"short password", func(in *InitiateInput) { in.Password = "a1"; in.PasswordConfirm = "a1" }},
		{"no digit in password", func(in *InitiateInput) { in.Password = "onlyletters"; in.PasswordConfirm = "onlyletters" }},
		{"password mismatch", func(in *InitiateInput) { in.PasswordConfirm = "different9x" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.mutate(&in)

			_, err := svc.Initiate(ctx, in)
			require.Error(t, err)
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
			assert.Equal(t, int64(0), countUsers(t, db))
			assert.Equal(t, 0, mail.count())
		})
	}
}

func TestInitiateRejectsDuplicateIdentity(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	svc := NewRegistrationService(repository.NewUserRepository(db), sessions, &fakeMailer{}, 0)
	ctx := context.Background()

	createUser(t, db, "alice", "alice@example.com", "hunter2abc")

	in := validInput()
	_, err := svc.Initiate(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	in.Email = "other@example.com"
	_, err = svc.Initiate(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
}

func TestInitiateCreatesNoUserAndHashesPassword(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	mail := &fakeMailer{}
	svc := NewRegistrationService(repository.NewUserRepository(db), sessions, mail, 0)
	ctx := context.Background()

	token, err := svc.Initiate(ctx, validInput())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, int64(0), countUsers(t, db))

	rec, err := sessions.GetRegistration(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.Username)
	assert.NotEqual(t, "hunter2abc", rec.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte("hunter2abc")))
	assert.Len(t, rec.Code, 6)

	sent := mail.last(t)
	assert.Equal(t, "alice@example.com", sent.to)
	assert.Contains(t, sent.body, rec.Code)
}

func TestVerifyWrongCode(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	svc := NewRegistrationService(repository.NewUserRepository(db), sessions, &fakeMailer{}, 0)
	ctx := context.Background()

	token, err := svc.Initiate(ctx, validInput())
	require.NoError(t, err)
	rec, err := sessions.GetRegistration(ctx, token)
	require.NoError(t, err)

	wrong := "000000"
	if rec.Code == wrong {
		wrong = "000001"
	}
	_, err = svc.Verify(ctx, token, wrong)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid code")
	assert.Equal(t, int64(0), countUsers(t, db))

	// The record survives a wrong guess; the correct code still works.
	user, err := svc.Verify(ctx, token, rec.Code)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestVerifyExpiredCodeRejectedButRecordRetained(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	mail := &fakeMailer{}
	svc := NewRegistrationService(repository.NewUserRepository(db), sessions, mail, 0)
	ctx := context.Background()

	base := time.Now()
	svc.now = func() time.Time { return base }

	token, err := svc.Initiate(ctx, validInput())
	require.NoError(t, err)
	rec, err := sessions.GetRegistration(ctx, token)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(DefaultOTPTTL + time.Second) }

	_, err = svc.Verify(ctx, token, rec.Code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
	assert.Equal(t, int64(0), countUsers(t, db))

	// Resend still works against the retained record and resets the clock.
	require.NoError(t, svc.Resend(ctx, token))
	fresh, err := sessions.GetRegistration(ctx, token)
	require.NoError(t, err)
	assert.NotEqual(t, rec.Code, fresh.Code)

	user, err := svc.Verify(ctx, token, fresh.Code)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, 2, mail.count())
}

func TestVerifySuccessCreatesUserWithProfileAndConsumesSession(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	userRepo := repository.NewUserRepository(db)
	svc := NewRegistrationService(userRepo, sessions, &fakeMailer{}, 0)
	ctx := context.Background()

	token, err := svc.Initiate(ctx, validInput())
	require.NoError(t, err)
	rec, err := sessions.GetRegistration(ctx, token)
	require.NoError(t, err)

	user, err := svc.Verify(ctx, token, rec.Code)
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.Equal(t, int64(1), countUsers(t, db))

	profile, err := userRepo.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, profile.UserID)

	// The session is consumed: replaying the code reports an expired session.
	_, err = svc.Verify(ctx, token, rec.Code)
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SESSION_EXPIRED", appErr.Code)
}

func TestVerifyUnknownToken(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	svc := NewRegistrationService(repository.NewUserRepository(db), sessions, &fakeMailer{}, 0)

	_, err := svc.Verify(context.Background(), "no-such-token", "123456")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SESSION_EXPIRED", appErr.Code)
}

func TestResendUnknownToken(t *testing.T) {
	db := newTestDB(t)
	sessions, _ := newTestSessions(t)
	svc := NewRegistrationService(repository.NewUserRepository(db), sessions, &fakeMailer{}, 0)

	err := svc.Resend(context.Background(), "no-such-token")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SESSION_EXPIRED", appErr.Code)
}

func TestGenerateCodeShape(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}
