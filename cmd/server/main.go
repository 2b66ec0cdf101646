// cmd/server/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ping-auth-server/internal/config"
	"ping-auth-server/internal/server"
	"ping-auth-server/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("Failed to build server", zap.Error(err))
	}
	if err := srv.Start(ctx); err != nil {
		zl.Fatal("Failed to start server", zap.Error(err))
	}
}
