package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"tweetapp/internal/cache"
	"tweetapp/internal/middleware"
	"tweetapp/internal/models"
	"tweetapp/internal/repository"
	"tweetapp/internal/storage"
)

// TweetService implements tweet CRUD, the like toggle, and search. It owns
// the photo lifecycle: when a tweet's photo reference changes or the tweet
// is deleted, the orphaned file is removed from storage after the database
// write commits.
type TweetService struct {
	tweets repository.TweetRepository
	store  storage.Storage
}

func NewTweetService(tweets repository.TweetRepository, store storage.Storage) *TweetService {
	return &TweetService{tweets: tweets, store: store}
}

// CreateInput carries the fields for a new tweet. Photo is an opaque
// storage reference previously returned by the media upload endpoint, or
// empty for a text-only tweet.
type CreateInput struct {
	Text  string `json:"text"`
	Photo string `json:"photo"`
}

// UpdateInput carries a tweet edit. Nil pointers leave the corresponding
// field untouched; an empty Photo string removes the attached photo.
type UpdateInput struct {
	Text  *string `json:"text"`
	Photo *string `json:"photo"`
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return models.NewValidationError("Tweet text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxTweetLength {
		return models.NewValidationError("Tweet text must be 280 characters or fewer")
	}
	return nil
}

// Create stores a new tweet for the given author and returns it with like
// details populated.
func (s *TweetService) Create(ctx context.Context, userID uint, in CreateInput) (*models.Tweet, error) {
	if err := validateText(in.Text); err != nil {
		return nil, err
	}

	tweet := &models.Tweet{
		Text:   in.Text,
		Photo:  in.Photo,
		UserID: userID,
	}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}
	return s.tweets.GetByID(ctx, tweet.ID, userID)
}

// Get returns a single tweet with like count and the viewer's liked flag.
func (s *TweetService) Get(ctx context.Context, id, currentUserID uint) (*models.Tweet, error) {
	return s.tweets.GetByID(ctx, id, currentUserID)
}

// List returns recent tweets, newest first. The first page is served from a
// short-lived cache shared across viewers; the per-viewer liked flags are
// re-applied on top of the cached rows.
func (s *TweetService) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Tweet, error) {
	if offset != 0 {
		return s.tweets.List(ctx, limit, offset, currentUserID)
	}

	var cached []*models.Tweet
	if found, err := cache.GetJSON(ctx, cache.TweetListKey, &cached); err == nil && found && len(cached) >= limit {
		page := cached[:limit]
		if err := s.applyLikedFlags(ctx, page, currentUserID); err != nil {
			return nil, err
		}
		return page, nil
	}

	tweets, err := s.tweets.List(ctx, limit, offset, currentUserID)
	if err != nil {
		return nil, err
	}

	// Cache a viewer-neutral copy; liked flags are recomputed per request.
	neutral := make([]*models.Tweet, len(tweets))
	for i, t := range tweets {
		cp := *t
		cp.Liked = false
		neutral[i] = &cp
	}
	_ = cache.SetJSON(ctx, cache.TweetListKey, neutral, cache.TweetListTTL)

	return tweets, nil
}

func (s *TweetService) applyLikedFlags(ctx context.Context, tweets []*models.Tweet, userID uint) error {
	if len(tweets) == 0 {
		return nil
	}
	ids := make([]uint, len(tweets))
	for i, t := range tweets {
		ids[i] = t.ID
	}
	likedIDs, err := s.tweets.GetLikedTweetIDs(ctx, userID, ids)
	if err != nil {
		return err
	}
	liked := make(map[uint]bool, len(likedIDs))
	for _, id := range likedIDs {
		liked[id] = true
	}
	for _, t := range tweets {
		t.Liked = liked[t.ID]
	}
	return nil
}

// ListByUser returns a single author's tweets, newest first.
func (s *TweetService) ListByUser(ctx context.Context, authorID uint, limit, offset int, currentUserID uint) ([]*models.Tweet, error) {
	return s.tweets.GetByUserID(ctx, authorID, limit, offset, currentUserID)
}

// Update edits a tweet the caller owns. If the edit replaces or removes the
// photo, the previous file is deleted from storage only after the database
// update succeeds, so a failed update never loses the original photo.
func (s *TweetService) Update(ctx context.Context, userID, tweetID uint, in UpdateInput) (*models.Tweet, error) {
	tweet, err := s.tweets.GetByID(ctx, tweetID, userID)
	if err != nil {
		return nil, err
	}
	if tweet.UserID != userID {
		return nil, models.NewUnauthorizedError("You can only edit your own tweets")
	}

	oldPhoto := tweet.Photo
	if in.Text != nil {
		if err := validateText(*in.Text); err != nil {
			return nil, err
		}
		tweet.Text = *in.Text
	}
	if in.Photo != nil {
		tweet.Photo = *in.Photo
	}

	if err := s.tweets.Update(ctx, tweet); err != nil {
		return nil, err
	}

	if oldPhoto != "" && tweet.Photo != oldPhoto {
		s.deletePhoto(ctx, oldPhoto)
	}
	return s.tweets.GetByID(ctx, tweetID, userID)
}

// Delete removes a tweet the caller owns, then reclaims its photo file.
func (s *TweetService) Delete(ctx context.Context, userID, tweetID uint) error {
	tweet, err := s.tweets.GetByID(ctx, tweetID, userID)
	if err != nil {
		return err
	}
	if tweet.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own tweets")
	}

	if err := s.tweets.Delete(ctx, tweetID); err != nil {
		return err
	}
	if tweet.Photo != "" {
		s.deletePhoto(ctx, tweet.Photo)
	}
	return nil
}

// ToggleLike flips the caller's like on a tweet and returns the resulting
// state. Liking an already-liked tweet unlikes it, so applying the
// operation twice restores the starting state.
func (s *TweetService) ToggleLike(ctx context.Context, userID, tweetID uint) (*models.Tweet, error) {
	if _, err := s.tweets.GetByID(ctx, tweetID, userID); err != nil {
		return nil, err
	}

	liked, err := s.tweets.IsLiked(ctx, userID, tweetID)
	if err != nil {
		return nil, err
	}
	if liked {
		err = s.tweets.Unlike(ctx, userID, tweetID)
	} else {
		err = s.tweets.Like(ctx, userID, tweetID)
	}
	if err != nil {
		return nil, err
	}
	return s.tweets.GetByID(ctx, tweetID, userID)
}

// Search returns tweets whose text contains the query, case-insensitively,
// newest first. A blank query is a validation error rather than a full
// listing.
func (s *TweetService) Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Tweet, error) {
	if strings.TrimSpace(query) == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.tweets.Search(ctx, query, limit, offset, currentUserID)
}

// deletePhoto removes a photo file from storage. Failures are logged and
// counted but never surfaced: the database row is already gone or updated,
// and an orphaned file is preferable to a failed request.
func (s *TweetService) deletePhoto(ctx context.Context, ref string) {
	if err := s.store.Delete(ctx, ref); err != nil {
		middleware.MediaDeletes.WithLabelValues("error").Inc()
		middleware.Logger.WarnContext(ctx, "failed to delete photo from storage",
			slog.String("ref", ref),
			slog.String("error", err.Error()))
		return
	}
	middleware.MediaDeletes.WithLabelValues("ok").Inc()
}
