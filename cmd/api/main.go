package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/greenbuddy/greenbuddy-backend/api/controllers"
	"github.com/greenbuddy/greenbuddy-backend/api/routes"
	"github.com/greenbuddy/greenbuddy-backend/internal/ads"
	"github.com/greenbuddy/greenbuddy-backend/internal/auth"
	"github.com/greenbuddy/greenbuddy-backend/internal/media"
	"github.com/greenbuddy/greenbuddy-backend/internal/users"
	"github.com/greenbuddy/greenbuddy-backend/pkg/auth/session"
	"github.com/greenbuddy/greenbuddy-backend/pkg/config"
	"github.com/greenbuddy/greenbuddy-backend/pkg/db"
	"github.com/greenbuddy/greenbuddy-backend/pkg/logger"
	"github.com/greenbuddy/greenbuddy-backend/pkg/metrics"
	"github.com/greenbuddy/greenbuddy-backend/pkg/migrate"
	"github.com/greenbuddy/greenbuddy-backend/pkg/pubsub"
	"github.com/greenbuddy/greenbuddy-backend/pkg/redis"
	"github.com/greenbuddy/greenbuddy-backend/pkg/storage/cloudinary"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	cloudinaryClient, err := cloudinary.NewClient(context.Background(), cfg.Cloudinary, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloudinary", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{
		"database":   dbClient,
		"redis":      redisClient,
		"cloudinary": cloudinaryClient,
	}

	cleanerParams := media.CleanerParams{Direct: cloudinaryClient, Logger: logg}
	if cfg.PubSub.Enabled() {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer pubsubClient.Close()
		cleanerParams.Publisher = pubsubClient.MediaDeletionPublisher()
		pingers["pubsub"] = pubsubClient
	}
	cleaner, err := media.NewCleaner(cleanerParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create media cleaner", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	adRepo := ads.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(users.ServiceParams{
		UserRepo:       userRepo,
		AdRepo:         adRepo,
		TxRunner:       dbClient,
		Uploader:       cloudinaryClient,
		Cleaner:        cleaner,
		Sessions:       sessionManager,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	adService, err := ads.NewService(ads.ServiceParams{
		AdRepo:   adRepo,
		Uploader: cloudinaryClient,
		Cleaner:  cleaner,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create ad service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			Sessions:    sessionManager,
			AuthService: authService,
			UserService: userService,
			AdService:   adService,
			HTTPMetrics: httpMetrics,
			Registry:    registry,
			Pingers:     pingers,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
