package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"tweetapp/internal/middleware"
	"tweetapp/internal/models"
	"tweetapp/internal/repository"
	"tweetapp/internal/storage"
)

const maxBioLength = 500

// UserService covers profile viewing and editing. Profile pictures follow
// the same lifecycle as tweet photos: replacing or clearing one reclaims
// the previous file after the database write.
type UserService struct {
	users repository.UserRepository
	store storage.Storage
}

func NewUserService(users repository.UserRepository, store storage.Storage) *UserService {
	return &UserService{users: users, store: store}
}

// ProfileInput carries a profile edit. Nil pointers leave the field
// untouched; an empty Picture string removes the current picture.
type ProfileInput struct {
	Bio     *string `json:"bio"`
	Picture *string `json:"picture"`
}

// Get returns a user with their profile preloaded.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetProfile returns the profile row for a user.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.Profile, error) {
	return s.users.GetProfile(ctx, userID)
}

// UpdateProfile applies a profile edit for the given user.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.Profile, error) {
	profile, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldPicture := profile.Picture
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if utf8.RuneCountInString(bio) > maxBioLength {
			return nil, models.NewValidationError("Bio must be 500 characters or fewer")
		}
		profile.Bio = bio
	}
	if in.Picture != nil {
		profile.Picture = *in.Picture
	}

	if err := s.users.UpdateProfile(ctx, profile); err != nil {
		return nil, err
	}

	if oldPicture != "" && profile.Picture != oldPicture {
		if err := s.store.Delete(ctx, oldPicture); err != nil {
			middleware.MediaDeletes.WithLabelValues("error").Inc()
			middleware.Logger.WarnContext(ctx, "failed to delete profile picture",
				slog.String("ref", oldPicture),
				slog.String("error", err.Error()))
		} else {
			middleware.MediaDeletes.WithLabelValues("ok").Inc()
		}
	}
	return profile, nil
}
