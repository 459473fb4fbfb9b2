package repository

import (
	"context"
	"errors"

	"tweetapp/internal/cache"
	"tweetapp/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TweetRepository defines the interface for tweet data operations
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Tweet, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Tweet, error)
	List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Tweet, error)
	Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Tweet, error)
	Update(ctx context.Context, tweet *models.Tweet) error
	Delete(ctx context.Context, id uint) error
	IsLiked(ctx context.Context, userID, tweetID uint) (bool, error)
	GetLikedTweetIDs(ctx context.Context, userID uint, tweetIDs []uint) ([]uint, error)
	Like(ctx context.Context, userID, tweetID uint) error
	Unlike(ctx context.Context, userID, tweetID uint) error
}

type tweetRepository struct {
	db *gorm.DB
}

// NewTweetRepository creates a new tweet repository
func NewTweetRepository(db *gorm.DB) TweetRepository {
	return &tweetRepository{db: db}
}

func (r *tweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	err := r.db.WithContext(ctx).Create(tweet).Error
	if err == nil {
		cache.InvalidateTweetList(ctx)
	}
	return err
}

func (r *tweetRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Tweet, error) {
	// Cached copies are viewer-neutral. The liked flag is recomputed per
	// viewer below so a shared cache entry never leaks another viewer's
	// like state.
	var tweet models.Tweet
	err := cache.Aside(ctx, cache.TweetKey(id), &tweet, cache.TweetTTL, func() error {
		return r.applyTweetDetails(r.db.WithContext(ctx), 0).
			Preload("User").
			First(&tweet, id).Error
	})
	if err != nil {
		return nil, err
	}

	if currentUserID != 0 {
		liked, err := r.IsLiked(ctx, currentUserID, id)
		if err != nil {
			return nil, err
		}
		tweet.Liked = liked
	}
	return &tweet, nil
}

func (r *tweetRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int, currentUserID uint) ([]*models.Tweet, error) {
	var tweets []*models.Tweet
	err := r.applyTweetDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tweets).Error
	return tweets, err
}

func (r *tweetRepository) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Tweet, error) {
	var tweets []*models.Tweet
	err := r.applyTweetDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tweets).Error
	return tweets, err
}

func (r *tweetRepository) Search(ctx context.Context, query string, limit, offset int, currentUserID uint) ([]*models.Tweet, error) {
	var tweets []*models.Tweet
	like := "%" + query + "%"
	err := r.applyTweetDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Where("LOWER(text) LIKE LOWER(?)", like).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tweets).Error
	return tweets, err
}

// applyTweetDetails adds subqueries to fetch the like count and liked status
// in a single query.
func (r *tweetRepository) applyTweetDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "tweets.*, " +
		"(SELECT COUNT(*) FROM likes WHERE likes.tweet_id = tweets.id) as likes_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM likes WHERE likes.tweet_id = tweets.id AND likes.user_id = ?) as liked", currentUserID)
	}

	return db.Select(selectQuery)
}

func (r *tweetRepository) Update(ctx context.Context, tweet *models.Tweet) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(tweet).Error; err != nil {
		return err
	}
	cache.InvalidateTweet(ctx, tweet.ID)
	cache.InvalidateTweetList(ctx)
	return nil
}

func (r *tweetRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Tweet{}, id).Error; err != nil {
		return err
	}
	cache.InvalidateTweet(ctx, id)
	cache.InvalidateTweetList(ctx)
	return nil
}

func (r *tweetRepository) IsLiked(ctx context.Context, userID, tweetID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *tweetRepository) GetLikedTweetIDs(ctx context.Context, userID uint, tweetIDs []uint) ([]uint, error) {
	if len(tweetIDs) == 0 {
		return nil, nil
	}
	var likedTweetIDs []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND tweet_id IN ?", userID, tweetIDs).
		Pluck("tweet_id", &likedTweetIDs).Error
	return likedTweetIDs, err
}

func (r *tweetRepository) Like(ctx context.Context, userID, tweetID uint) error {
	// ON CONFLICT DO NOTHING keeps concurrent double-clicks from failing
	// on the unique (user_id, tweet_id) index.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Like{UserID: userID, TweetID: tweetID}).Error
	if err == nil {
		cache.InvalidateTweet(ctx, tweetID)
		cache.InvalidateTweetList(ctx)
	}
	return err
}

func (r *tweetRepository) Unlike(ctx context.Context, userID, tweetID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND tweet_id = ?", userID, tweetID).
		Delete(&models.Like{}).Error
	if err == nil {
		cache.InvalidateTweet(ctx, tweetID)
		cache.InvalidateTweetList(ctx)
	}
	return err
}

// IsNotFound reports whether err is a gorm record-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
