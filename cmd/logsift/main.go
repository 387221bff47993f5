package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/accel"
	"github.com/logsift/logsift/internal/config"
	"github.com/logsift/logsift/internal/engine"
	"github.com/logsift/logsift/internal/logging"
	"github.com/logsift/logsift/internal/scorer"
	"github.com/logsift/logsift/internal/server"
	"github.com/logsift/logsift/internal/sources"
	"github.com/logsift/logsift/internal/storage"
)

func main() {
	// Command-line flags override the config file.
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	dataDir := flag.String("data", "", "Directory for persisted event records (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dataDir != "" {
		cfg.Persistence.Dir = *dataDir
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("logsift starting",
		zap.Int("retention_capacity", cfg.Retention.Capacity),
		zap.Int("alert_capacity", cfg.Retention.AlertCapacity))

	// Stores are created once and owned by the pipeline/service layer.
	retention := engine.NewRetentionStore(cfg.Retention.Capacity)
	alertStore := engine.NewAlertStore(cfg.Retention.AlertCapacity)
	alertService := engine.NewAlertService(alertStore, logger.Named("alerts"))

	writer, err := storage.NewEventWriter(cfg.Persistence.Dir, logger.Named("storage"))
	if err != nil {
		logger.Fatal("Failed to prepare data directory", zap.Error(err))
	}

	registry := sources.NewRegistry()
	native := accel.Load(cfg.Accelerator.Path, logger.Named("accel"))

	var anomaly engine.Scorer
	var worker *scorer.Worker
	if len(cfg.Scorer.Command) > 0 {
		worker = scorer.New(scorer.Config{
			Command:     cfg.Scorer.Command,
			Timeout:     config.Duration(cfg.Scorer.Timeout, 2*time.Second),
			MaxInFlight: cfg.Scorer.MaxInFlight,
		}, logger.Named("scorer"))
		anomaly = worker
	} else {
		logger.Warn("no anomaly scorer configured, alerts will not be derived")
	}

	pipeline := engine.NewPipeline(engine.PipelineConfig{
		AlertThreshold: cfg.Alerting.Threshold,
		HighThreshold:  cfg.Alerting.HighThreshold,
		FailClosed:     cfg.Persistence.FailClosed,
	}, retention, alertStore, writer, native, anomaly, registry, logger.Named("pipeline"))

	queryEngine := engine.NewQueryEngine(retention, cfg.Retention.DefaultQueryLimit)
	statsAggregator := engine.NewStatsAggregator(retention)

	// Background loops: persisted-record cleanup and stale-source pruning.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go writer.RunCleaner(ctx,
		config.Duration(cfg.Persistence.CleanInterval, time.Hour),
		config.Duration(cfg.Persistence.Retention, 0))
	go registry.RunPruneLoop(ctx,
		config.Duration(cfg.Sources.PruneInterval, 10*time.Minute),
		config.Duration(cfg.Sources.StaleAfter, 24*time.Hour))

	srv := server.New(pipeline, queryEngine, statsAggregator, alertService,
		registry, cfg.Server.AllowedOrigins, logger.Named("server"))
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	go func() {
		logger.Info("listening", zap.String("addr", addr))
		if err := srv.Start(addr); err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	cancel()
	if worker != nil {
		worker.Close()
	}

	logger.Info("logsift exited gracefully")
}
