package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/greenbuddy/greenbuddy-backend/internal/media/consumer"
	"github.com/greenbuddy/greenbuddy-backend/pkg/config"
	"github.com/greenbuddy/greenbuddy-backend/pkg/logger"
	"github.com/greenbuddy/greenbuddy-backend/pkg/pubsub"
	"github.com/greenbuddy/greenbuddy-backend/pkg/storage/cloudinary"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "media-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "media-worker"

	logg = logger.New(logger.Options{
		ServiceName: "media-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	cloudinaryClient, err := cloudinary.NewClient(context.Background(), cfg.Cloudinary, logg)
	requireResource(ctx, logg, "cloudinary", err)

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	deletionConsumer, err := consumer.NewDeletionConsumer(
		cloudinaryClient,
		pubsubClient.MediaDeletionSubscription(),
		logg,
	)
	requireResource(ctx, logg, "media deletion consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "media worker ready")

	if err := deletionConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "media worker not working", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
