package service

import (
	"context"
	"strings"
	"testing"

	"tweetapp/internal/models"
	"tweetapp/internal/repository"
	"tweetapp/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T) (*UserService, *storage.Memory, *models.User) {
	t.Helper()
	db := newTestDB(t)
	store := storage.NewMemory()
	user := createUser(t, db, "alice", "alice@example.com", "hunter2abc")
	return NewUserService(repository.NewUserRepository(db), store), store, user
}

func TestUpdateProfileBio(t *testing.T) {
	svc, _, user := newTestUserService(t)
	ctx := context.Background()

	profile, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Bio: strPtr("  hello there  ")})
	require.NoError(t, err)
	assert.Equal(t, "hello there", profile.Bio)

	got, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello there", got.Bio)
}

func TestUpdateProfileBioTooLong(t *testing.T) {
	svc, _, user := newTestUserService(t)

	_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileInput{
		Bio: strPtr(strings.Repeat("a", maxBioLength+1)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestUpdateProfilePictureReclaimsOldFile(t *testing.T) {
	svc, store, user := newTestUserService(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "profile_pics/old.jpg", []byte("old")))
	require.NoError(t, store.Save(ctx, "profile_pics/new.jpg", []byte("new")))

	_, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Picture: strPtr("profile_pics/old.jpg")})
	require.NoError(t, err)

	profile, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Picture: strPtr("profile_pics/new.jpg")})
	require.NoError(t, err)
	assert.Equal(t, "profile_pics/new.jpg", profile.Picture)

	_, err = store.Open(ctx, "profile_pics/old.jpg")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.Open(ctx, "profile_pics/new.jpg")
	assert.NoError(t, err)
}

func TestUpdateProfilePartialEditKeepsOtherFields(t *testing.T) {
	svc, store, user := newTestUserService(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "profile_pics/pic.jpg", []byte("pic")))
	_, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{
		Bio:     strPtr("original bio"),
		Picture: strPtr("profile_pics/pic.jpg"),
	})
	require.NoError(t, err)

	profile, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Bio: strPtr("edited bio")})
	require.NoError(t, err)
	assert.Equal(t, "edited bio", profile.Bio)
	assert.Equal(t, "profile_pics/pic.jpg", profile.Picture)

	_, err = store.Open(ctx, "profile_pics/pic.jpg")
	assert.NoError(t, err)
}

func TestGetUserIncludesProfile(t *testing.T) {
	svc, _, user := newTestUserService(t)
	ctx := context.Background()

	_, err := svc.UpdateProfile(ctx, user.ID, ProfileInput{Bio: strPtr("bio text")})
	require.NoError(t, err)

	got, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "bio text", got.Profile.Bio)
}
