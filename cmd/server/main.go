package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/config"
	"github.com/GriffinCanCode/elasticbundle/internal/infrastructure/server"
	"github.com/GriffinCanCode/elasticbundle/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadOrDefault()

	// Flags override environment
	port := flag.String("port", cfg.Server.Port, "Server port")
	files := flag.String("config", strings.Join(cfg.Bundle.Paths, ","), "Comma-separated bundle config files, merged in order")
	dev := flag.Bool("dev", cfg.Logging.Development, "Development mode (console logs, debug level)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.Bundle.Paths = strings.Split(*files, ",")
	cfg.Logging.Development = *dev

	logger, err := logging.New(logging.ProcessConfig(cfg.Logging.Level, cfg.Logging.Development))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	es, err := config.LoadBundle(cfg.Bundle.Paths...)
	if err != nil {
		logger.Fatal("Failed to load bundle configuration",
			zap.Strings("paths", cfg.Bundle.Paths), zap.Error(err))
	}

	srv, err := server.New(cfg, es, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutting down gracefully...")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", zap.Error(err))
		}
	case err := <-errChan:
		logger.Fatal("Server error", zap.Error(err))
	}
}
