package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"tweetapp/internal/cache"
	"tweetapp/internal/config"
	"tweetapp/internal/database"
	"tweetapp/internal/seed"
)

func main() {
	users := flag.Int("users", 10, "number of users to create")
	tweets := flag.Int("tweets", 8, "tweets per user")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.Env == "production" || cfg.Env == "prod" {
		slog.Error("refusing to seed a production database")
		os.Exit(1)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache.InitRedis(cfg.RedisURL)

	opts := seed.DefaultOptions()
	opts.Users = *users
	opts.TweetsPerUser = *tweets

	if err := seed.Run(context.Background(), db, opts); err != nil {
		slog.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
