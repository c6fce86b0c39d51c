package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/config"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/infra/logger"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/jobs/sweeper"
	pgrepo "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/repo/postgres"
	redrepo "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/repo/redis"
	sessionsvc "github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/services/session"
)

// The sweeper times out idle sessions store-side. The API process sweeps
// its own in-process liveness cache; this binary only owns the database
// half of the job.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sweeper:", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", defaultConfigPath(), "path to the yaml config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	defer pool.Close()

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() {
		_ = redisClient.Close()
	}()

	sessionRepo := pgrepo.NewSessionRepo(pool)
	terminator := sessionsvc.NewTerminator(sessionRepo, redrepo.NewTerminationBroker(redisClient), log)

	job := sweeper.New(sessionRepo, terminator, nil, cfg.Session.IdleTimeout, log)

	log.Info("sweeper started")
	job.RunEvery(ctx, cfg.Sweeper.Interval)
	log.Info("sweeper stopped")
	return nil
}

func defaultConfigPath() string {
	if v := os.Getenv("APP_CONFIG"); v != "" {
		return v
	}
	return "configs/config.yaml"
}
