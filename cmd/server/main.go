package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/rewardshub/internal/bootstrap"
	"anoa.com/rewardshub/internal/config"
	"anoa.com/rewardshub/internal/jobs"
	"anoa.com/rewardshub/internal/server"
	"anoa.com/rewardshub/pkg/database"
	"anoa.com/rewardshub/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.Setup(logger.Options{
		Service: "rewards-hub",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(database.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		fatal("failed to connect database", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		fatal("migration failed", err)
	}
	if err := seed(db, cfg); err != nil {
		fatal("seeding failed", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := connectRedis(ctx, cfg.RedisURL)

	objectStorage, err := server.NewObjectStorage(ctx, cfg.Storage)
	if err != nil {
		fatal("failed to initialize evidence storage", err)
	}

	srv := server.NewServer(cfg, db, redisClient, objectStorage)

	scheduler, err := jobs.NewScheduler(cfg.Jobs, srv.Sweeper(), srv.Auditor())
	if err != nil {
		fatal("failed to create scheduler", err)
	}
	scheduler.Start()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv, "storage", cfg.Storage.Driver)
		errCh <- srv.Run(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			slog.Error("server exited with error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
	if err := scheduler.Shutdown(); err != nil {
		slog.Error("scheduler shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func seed(db *gorm.DB, cfg *config.Config) error {
	if err := bootstrap.SeedRoles(db); err != nil {
		return err
	}
	if err := bootstrap.SeedSpotlight(db, cfg.Rewards.DefaultSpotlightReward); err != nil {
		return err
	}

	if cfg.AppEnv != "production" && cfg.AdminUserID != "" {
		adminID, err := uuid.Parse(cfg.AdminUserID)
		if err != nil {
			return errors.New("ADMIN_USER_ID must be a uuid")
		}
		return bootstrap.SeedAdminUser(db, adminID, cfg.AdminEmail)
	}
	return nil
}

// connectRedis returns nil when redis is not configured or unreachable; caching,
// throttling and live updates are then skipped.
func connectRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		slog.Warn("REDIS_URL not set, running without redis")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		slog.Error("invalid REDIS_URL, running without redis", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Error("redis unreachable, running without redis", "error", err)
		_ = client.Close()
		return nil
	}

	slog.Info("connected to redis", "addr", opts.Addr)
	return client
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
