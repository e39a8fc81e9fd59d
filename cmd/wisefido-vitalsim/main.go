package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wisefido-vitalsim/common/logger"
	"wisefido-vitalsim/internal/config"
	"wisefido-vitalsim/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(logger.Options{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "wisefido-vitalsim",
		File:        cfg.Log.File,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting wisefido-vitalsim service",
		zap.String("version", "1.0.0"),
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Duration("update_interval", cfg.Monitor.UpdateInterval),
	)

	vitalService, err := service.NewVitalSimService(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create vitalsim service", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := vitalService.Start(ctx); err != nil {
		zapLogger.Fatal("Failed to start vitalsim service", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := vitalService.Stop(shutdownCtx); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
