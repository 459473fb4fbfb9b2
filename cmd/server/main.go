package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tweetapp/internal/cache"
	"tweetapp/internal/config"
	"tweetapp/internal/database"
	"tweetapp/internal/mailer"
	"tweetapp/internal/middleware"
	"tweetapp/internal/observability"
	"tweetapp/internal/server"
	"tweetapp/internal/session"
	"tweetapp/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:  "tweetapp",
			Environment:  cfg.Env,
			Enabled:      true,
			Exporter:     cfg.TracingExporter,
			OTLPEndpoint: cfg.OTLPEndpoint,
			SamplerRatio: cfg.TraceSampleRate,
		})
		if err != nil {
			slog.Error("failed to initialize tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Error("tracing shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache.InitRedis(cfg.RedisURL)

	sessions := session.NewStore(cache.GetClient(),
		time.Duration(cfg.RegistrationTTLMinutes)*time.Minute)

	mail, err := mailer.FromConfig(cfg)
	if err != nil {
		slog.Error("failed to configure mailer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	store := storage.NewDisk(cfg.MediaDir)

	srv := server.NewServer(cfg, db, server.Deps{
		Sessions: sessions,
		Mail:     mail,
		Store:    store,
	})

	go func() {
		middleware.Logger.Info("starting server", slog.String("port", cfg.Port))
		if err := srv.Listen(); err != nil {
			slog.Error("server stopped", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	middleware.Logger.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		slog.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
