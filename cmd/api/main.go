package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ride-backend/internal/application/scheduler"
	"ride-backend/internal/config"
	"ride-backend/internal/infrastructure/database"
	"ride-backend/internal/infrastructure/logger"
	"ride-backend/internal/interfaces/router"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load")
	}
	logger.Setup(cfg.Env, cfg.LogLevel)

	a, err := router.CreateApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	sqlDB, err := a.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	cancel()
	if err := database.AutoMigrate(a.DB); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	closer := scheduler.New(a.Redis, a.Rides, cfg.RideCloserSchedule)
	if err := closer.Start(); err != nil {
		log.Fatal().Err(err).Msg("scheduler start")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server listening")
		if err := a.Fiber.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	closer.Stop()
	if err := a.Fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	_ = a.Redis.Close()
	if sqlDB != nil {
		_ = sqlDB.Close()
	}
}
