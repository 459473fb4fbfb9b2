// Package seed populates a development database with plausible fake data.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"tweetapp/internal/middleware"
	"tweetapp/internal/models"
	"tweetapp/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls the volume of generated data.
type Options struct {
	Users         int
	TweetsPerUser int
	LikeRatio     float64
	Password      string
}

// DefaultOptions seeds a small but usable development dataset. Every seeded
// account shares the same password so any of them can be used to log in.
func DefaultOptions() Options {
	return Options{
		Users:         10,
		TweetsPerUser: 8,
		LikeRatio:     0.2,
		Password:      "seedpass123",
	}
}

// Run generates users with profiles, tweets, and likes.
func Run(ctx context.Context, db *gorm.DB, opts Options) error {
	userRepo := repository.NewUserRepository(db)
	tweetRepo := repository.NewTweetRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user := &models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(10, 99)),
			Email:    gofakeit.Email(),
			Password: string(hash),
		}
		if err := userRepo.CreateWithProfile(ctx, user); err != nil {
			return fmt.Errorf("creating user %q: %w", user.Username, err)
		}

		profile, err := userRepo.GetProfile(ctx, user.ID)
		if err != nil {
			return err
		}
		profile.Bio = gofakeit.Sentence(12)
		if err := userRepo.UpdateProfile(ctx, profile); err != nil {
			return err
		}
		users = append(users, user)
	}

	var tweets []*models.Tweet
	for _, user := range users {
		for i := 0; i < opts.TweetsPerUser; i++ {
			tweet := &models.Tweet{
				Text:   gofakeit.SentenceSimple(),
				UserID: user.ID,
			}
			if err := tweetRepo.Create(ctx, tweet); err != nil {
				return fmt.Errorf("creating tweet for %q: %w", user.Username, err)
			}
			tweets = append(tweets, tweet)
		}
	}

	likes := 0
	for _, user := range users {
		for _, tweet := range tweets {
			if tweet.UserID == user.ID {
				continue
			}
			if gofakeit.Float64() < opts.LikeRatio {
				if err := tweetRepo.Like(ctx, user.ID, tweet.ID); err != nil {
					return err
				}
				likes++
			}
		}
	}

	middleware.Logger.Info("seed complete",
		slog.Int("users", len(users)),
		slog.Int("tweets", len(tweets)),
		slog.Int("likes", likes))
	return nil
}
