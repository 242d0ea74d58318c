package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/adapter/httpapi"
	"github.com/Abdurahmanit/merchsy/internal/adapter/messaging/nats"
	"github.com/Abdurahmanit/merchsy/internal/adapter/repository/cache"
	"github.com/Abdurahmanit/merchsy/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/merchsy/internal/adapter/repository/mongodb"
	"github.com/Abdurahmanit/merchsy/internal/adapter/security"
	"github.com/Abdurahmanit/merchsy/internal/adapter/storage/s3"
	"github.com/Abdurahmanit/merchsy/internal/config"
	"github.com/Abdurahmanit/merchsy/internal/mailer"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/usecase"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
	"github.com/Abdurahmanit/merchsy/internal/platform/metrics"
	"github.com/Abdurahmanit/merchsy/internal/platform/tracer"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const serviceName = "merchsy"

type repositories struct {
	items    domain.ItemRepository
	users    domain.UserRepository
	comments domain.CommentRepository
}

func main() {
	configPath := "config.yaml"
	if cp := os.Getenv("CONFIG_PATH"); cp != "" {
		configPath = cp
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(logger.NewConfig(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputFile))
	defer func() { _ = appLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracer.Init(ctx, serviceName, cfg.Tracing.OTLPEndpoint)
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			appLogger.Error("Failed to shut down tracer", zap.Error(err))
		}
	}()

	metricsManager := metrics.NewMetricsManager(serviceName)
	checks := map[string]httpapi.HealthCheck{}

	var repos repositories
	if cfg.Mongo.URI == "" {
		appLogger.Warn("mongo.uri is empty, using in-memory repositories")
		repos = repositories{
			items:    memory.NewItemRepository(),
			users:    memory.NewUserRepository(),
			comments: memory.NewCommentRepository(),
		}
	} else {
		mongoClient, err := mongodb.NewMongoDBConnection(ctx, &cfg.Mongo)
		if err != nil {
			appLogger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				appLogger.Error("Failed to disconnect MongoDB", zap.Error(err))
			} else {
				appLogger.Info("MongoDB connection closed.")
			}
		}()
		appLogger.Info("Successfully connected to MongoDB!", zap.String("database", cfg.Mongo.Database))

		db := mongoClient.Database(cfg.Mongo.Database)
		repos = repositories{
			items:    mongodb.NewItemRepository(ctx, db, appLogger),
			users:    mongodb.NewUserRepository(ctx, db, appLogger),
			comments: mongodb.NewCommentRepository(ctx, db, appLogger),
		}
		checks["mongo"] = func(ctx context.Context) error { return mongoClient.Ping(ctx, readpref.Primary()) }
	}

	var urlCache domain.URLCache
	if cfg.Redis.Address != "" {
		redisClient, err := cache.NewRedisClient(ctx, &cfg.Redis, appLogger)
		if err != nil {
			appLogger.Warn("Signed URL cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			urlCache = cache.NewURLCache(redisClient, appLogger)
			checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	store, err := s3.NewS3Storage(ctx, &cfg.MinIO, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	var events domain.EventPublisher
	if cfg.NATS.URL != "" {
		publisher, err := nats.NewPublisher(cfg.NATS.URL, cfg.NATS.ConnectTimeout, serviceName, appLogger, metricsManager)
		if err != nil {
			appLogger.Warn("Event publishing disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			events = publisher
			checks["nats"] = publisher.Check
		}
	}

	var welcome domain.Mailer
	if cfg.SMTP.Host != "" {
		welcome = mailer.NewSMTPMailer(&cfg.SMTP, appLogger)
	}

	auth := security.NewService(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	signer := usecase.NewImageSigner(store, urlCache, usecase.SignerOptions{
		URLTTL:      cfg.Feed.SignedURLTTL,
		Timeout:     cfg.Feed.SignTimeout,
		Placeholder: cfg.Feed.PlaceholderImage,
	}, metricsManager, appLogger)
	presenter := usecase.NewPresenter(repos.users, signer)

	feedUC := usecase.NewFeedUsecase(repos.items, repos.users, presenter, query.PageSize, metricsManager, appLogger)
	itemUC := usecase.NewItemUsecase(repos.items, repos.users, store, presenter, events, appLogger)
	commentUC := usecase.NewCommentUsecase(repos.comments, repos.items, presenter, events, query.PageSize, appLogger)
	accountUC := usecase.NewAccountUsecase(repos.users, auth, presenter, welcome, events, query.PageSize, appLogger)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Feeds:          httpapi.NewFeedHandler(feedUC, appLogger),
		Items:          httpapi.NewItemHandler(itemUC, appLogger),
		Comments:       httpapi.NewCommentHandler(commentUC, appLogger),
		Accounts:       httpapi.NewAccountHandler(accountUC, appLogger),
		Auth:           auth,
		Metrics:        metricsManager,
		Logger:         appLogger,
		AllowedOrigins: strings.Split(cfg.HTTP.AllowedOrigin, ","),
		Checks:         checks,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			appLogger.Error("HTTP server failed", zap.Error(err))
		}
	case <-ctx.Done():
		appLogger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
