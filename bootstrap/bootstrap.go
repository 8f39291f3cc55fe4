package bootstrap

import (
	"ride-backend/internal/config"
	"ride-backend/internal/infrastructure/logger"
	"ride-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless hosts (the api handler imports this package, not internal).
// The ride closer does not run here; the long-lived cmd/api process owns it.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg.Env, cfg.LogLevel)
	a, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	return a.Fiber, nil
}
