package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/deusflow/newscorpus/internal/app"
	"github.com/deusflow/newscorpus/internal/config"
	"github.com/deusflow/newscorpus/internal/logger"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Harvest(ctx, cfg); err != nil {
		logger.Error("Harvest failed", "error", err)
		stop()
		os.Exit(1)
	}
}
