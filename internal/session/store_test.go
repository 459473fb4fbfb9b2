package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, ttl), mr
}

func TestRegistrationRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	token := NewToken()
	rec := &PendingRegistration{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		Code:         "123456",
		IssuedAt:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveRegistration(ctx, token, rec))

	got, err := store.GetRegistration(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, rec.Username, got.Username)
	assert.Equal(t, rec.Email, got.Email)
	assert.Equal(t, rec.PasswordHash, got.PasswordHash)
	assert.Equal(t, rec.Code, got.Code)
	assert.True(t, rec.IssuedAt.Equal(got.IssuedAt))
}

func TestGetRegistrationMissingToken(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)

	_, err := store.GetRegistration(context.Background(), NewToken())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDeleteRegistrationConsumesRecord(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	token := NewToken()
	require.NoError(t, store.SaveRegistration(ctx, token, &PendingRegistration{Email: "a@b.com"}))
	require.NoError(t, store.DeleteRegistration(ctx, token))

	_, err := store.GetRegistration(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRegistrationExpiresWithTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	token := NewToken()
	require.NoError(t, store.SaveRegistration(ctx, token, &PendingRegistration{Email: "a@b.com"}))

	mr.FastForward(2 * time.Minute)

	_, err := store.GetRegistration(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSaveRegistrationResetsTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	token := NewToken()
	rec := &PendingRegistration{Email: "a@b.com", Code: "111111"}
	require.NoError(t, store.SaveRegistration(ctx, token, rec))

	mr.FastForward(45 * time.Second)
	rec.Code = "222222"
	require.NoError(t, store.SaveRegistration(ctx, token, rec))

	mr.FastForward(45 * time.Second)
	got, err := store.GetRegistration(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)
}

func TestResetRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	token := NewToken()
	require.NoError(t, store.SaveReset(ctx, token, &PasswordReset{
		UserID: 7,
		Email:  "bob@example.com",
		Code:   "654321",
	}))

	got, err := store.GetReset(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.UserID)
	assert.Equal(t, "654321", got.Code)

	require.NoError(t, store.DeleteReset(ctx, token))
	_, err = store.GetReset(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestRegistrationAndResetKeysAreDistinct(t *testing.T) {
	store, _ := newTestStore(t, time.Minute)
	ctx := context.Background()

	token := NewToken()
	require.NoError(t, store.SaveRegistration(ctx, token, &PendingRegistration{Email: "a@b.com"}))

	_, err := store.GetReset(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNewTokenIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := NewToken()
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}
