package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"goodboy-intake/internal/catalog"
	"goodboy-intake/internal/common/config"
	"goodboy-intake/internal/common/database"
	"goodboy-intake/internal/common/logger"
	"goodboy-intake/internal/form"
	"goodboy-intake/internal/monday"
	"goodboy-intake/internal/notify"
	"goodboy-intake/internal/server"
	"goodboy-intake/internal/submission"
)

// retryWithBackoff attempts an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting intake server",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err))
	}
	zapLog.Info("catalog loaded",
		zap.Int("products", len(cat.Products)),
		zap.Int("projectTypes", len(cat.ProjectTypes)),
	)

	// Durable draft storage. When Redis is unreachable after retries the
	// server still starts on in-memory storage; drafts then live only as
	// long as the process.
	var storage form.Storage
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Storage.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Warn("redis unavailable, drafts will not survive restarts", zap.Error(err))
		storage = form.NewMemoryStorage()
	} else {
		zapLog.Info("redis connected", zap.String("address", cfg.Storage.Redis.Address))
		defer redisClient.Close()
		storage = form.NewRedisStorage(redisClient, time.Duration(cfg.Storage.DraftTTL)*time.Hour)
	}

	mondayClient := monday.New(cfg.Monday, log)
	if user, err := mondayClient.TestConnection(ctx); err != nil {
		zapLog.Warn("monday connection check failed", zap.Error(err))
	} else {
		zapLog.Info("monday connection ok", zap.String("user", user.Name))
	}

	notifier, err := notify.NewEmailNotifier(ctx, cfg.Notifications, log)
	if err != nil {
		zapLog.Warn("email notifier unavailable", zap.Error(err))
	}

	submitter := submission.New(mondayClient, cat, log)
	srv := server.New(*cfg, cat, storage, submitter, notifier, log)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: srv.Handler(),
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, mux); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	go func() {
		zapLog.Info("http server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("shutdown failed", zap.Error(err))
	}
	zapLog.Info("stopped")
}
