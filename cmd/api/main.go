package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/app/apiapp"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/config"
	"github.com/BoneTheDeveloper/Electronic-Contact-Contact-Book-sub003/internal/infra/logger"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
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

	app, err := apiapp.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("assemble api app: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- app.Run()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("APP_CONFIG"); v != "" {
		return v
	}
	return "configs/config.yaml"
}
