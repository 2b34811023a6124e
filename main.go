package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"civictrack-be/config"
	"civictrack-be/events"
	"civictrack-be/metrics"
	"civictrack-be/models"
	"civictrack-be/repositories"
	"civictrack-be/routes"
	"civictrack-be/services"
	"civictrack-be/storage"
	"civictrack-be/validation"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}
	cfg := config.Load()
	logger := config.NewLogger(cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	logger.WithFields(logrus.Fields{
		"port":         cfg.Port,
		"store_driver": cfg.StoreDriver,
		"gin_mode":     cfg.GinMode,
	}).Info("Starting CivicTrack API")

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	userStore, issueStore := openStores(ctx, cfg, logger)

	rdb, err := config.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, issue rate limit disabled")
	} else if rdb == nil {
		logger.Info("REDIS_ADDRESS not set, issue rate limit disabled")
	} else {
		defer rdb.Close()
	}

	images := openImageStore(ctx, cfg, logger)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		rp, err := events.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEventsQueue)
		if err != nil {
			logger.WithError(err).Warn("RabbitMQ unavailable, issue events disabled")
		} else {
			defer rp.Close()
			publisher = rp
		}
	}

	m := metrics.New()
	router := routes.SetupRouter(routes.Dependencies{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Redis:   rdb,
		Auth:    services.NewAuthService(userStore, cfg.JWTSecret, cfg.JWTTTL, m, logger),
		Issues:  services.NewIssueService(issueStore, userStore, images, publisher, m, logger),
		Users:   services.NewUserService(issueStore),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.UserStore, services.IssueStore) {
	if cfg.StoreDriver == "memory" {
		logger.Warn("Using in-memory store, data is lost on restart")
		return repositories.NewMemoryUserRepository(), repositories.NewMemoryIssueRepository()
	}

	db, err := config.ConnectDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	logger.Info("MongoDB connection established successfully!")

	users := repositories.NewUserRepository(db)
	issues := repositories.NewIssueRepository(db)
	if err := models.EnsureUserIndexes(ctx, users.Collection()); err != nil {
		logger.WithError(err).Fatal("Failed to create user indexes")
	}
	if err := models.EnsureIssueIndexes(ctx, issues.Collection()); err != nil {
		logger.WithError(err).Fatal("Failed to create issue indexes")
	}
	return users, issues
}

func openImageStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) storage.ImageStore {
	if cfg.GCSBucket != "" {
		client, err := storage.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create GCS client")
		}
		return storage.NewGCSImageStore(client, cfg.GCSBucket)
	}

	local, err := storage.NewLocalImageStore(cfg.UploadDir, "/uploads")
	if err != nil {
		logger.WithError(err).Fatal("Failed to prepare upload directory")
	}
	return local
}
