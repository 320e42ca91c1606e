package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todoapp/internal/cache"
	"todoapp/internal/config"
	"todoapp/internal/controller"
	"todoapp/internal/database"
	"todoapp/internal/notify"
	"todoapp/internal/oauth"
	"todoapp/internal/queue"
	"todoapp/internal/repository"
	"todoapp/internal/routes"
	"todoapp/internal/service"
	"todoapp/internal/token"
	"todoapp/internal/worker"
	"todoapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error(ctx, "Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)
	if cfg.UsesDefaultSecret() {
		logger.Warn(ctx, "JWT_SECRET is not set; using the development default")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Database not available; exiting", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)
	if err := database.Migrate(ctx, db); err != nil {
		logger.Error(ctx, "Schema migration failed", "error", err)
		os.Exit(1)
	}

	redisClient, err := cache.NewClient(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "Redis configuration invalid", "error", err)
		os.Exit(1)
	}
	stats := cache.NewStatsCache(redisClient, cfg.StatsCacheTTL)

	// Mail goes out from the local pool; with Kafka configured, requests
	// publish to the topic and this process consumes it into the pool.
	pool := worker.NewPool(notify.NewSender(cfg.Mail), cfg.WorkerPoolSize, cfg.NotifyQueueSize)
	var notifier service.Notifier = pool
	var publisher *queue.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		queue.EnsureTopic(ctx, cfg)
		publisher = queue.NewPublisher(ctx, cfg)
		notifier = publisher
	}

	store := repository.New(db)
	issuer := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, nil)
	authSvc := service.NewAuth(store, issuer, oauth.NewGoogleVerifier(cfg.GoogleClientID), notifier)
	todoSvc := service.NewTodos(store, stats, notifier)

	server := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: routes.Handler(routes.Deps{
			Issuer:      issuer,
			Auth:        authSvc,
			Todos:       todoSvc,
			Health:      controller.NewHealthHandler(store, stats, cfg.Environment),
			CORSOrigins: cfg.CORSOrigins,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if publisher != nil {
		g.Go(func() error {
			if err := worker.Consume(gctx, worker.NewReader(cfg), pool); err != nil {
				logger.Error(ctx, "Notification consumer stopped", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "Server error", "error", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error(ctx, "Kafka writer close failed", "error", err)
		}
	}
	pool.Close()
	sent, failed, dropped := pool.Stats()
	logger.Info(ctx, "Notification pool drained", "sent", sent, "failed", failed, "dropped", dropped)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info(ctx, "Server stopped")
}
