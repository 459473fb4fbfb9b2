package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix  = "user:%d"
	TweetKeyPrefix = "tweet:%d"
	TweetListKey   = "tweets:recent"
)

const (
	UserTTL      = 5 * time.Minute
	TweetTTL     = 10 * time.Minute
	TweetListTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func TweetKey(tweetID uint) string {
	return fmt.Sprintf(TweetKeyPrefix, tweetID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateTweet(ctx context.Context, tweetID uint) {
	Invalidate(ctx, TweetKey(tweetID))
}

func InvalidateTweetList(ctx context.Context) {
	Invalidate(ctx, TweetListKey)
}
