package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fairtrial-bias-server/internal/api"
	"github.com/fairtrial-bias-server/internal/config"
	"github.com/fairtrial-bias-server/internal/domain"
	"github.com/fairtrial-bias-server/internal/preprocess"
	"github.com/fairtrial-bias-server/internal/repository"
	"github.com/fairtrial-bias-server/internal/service"
	"github.com/fairtrial-bias-server/internal/training"
)

func main() {
	logger := logrus.New()

	configManager, err := config.NewManager()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configManager.Validate(); err != nil {
		logger.WithError(err).Fatal("Configuration validation failed")
	}
	cfg := configManager.GetConfig()

	configureLogger(logger, cfg.Logging)
	logger.WithFields(logrus.Fields{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Starting trial bias server")

	for _, dir := range []string{cfg.Model.Dir, filepath.Dir(cfg.Database.Path)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.WithError(err).WithField("dir", dir).Fatal("Failed to create data directory")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	provider := training.NewProvider(cfg.Model, logger)
	if err := provider.Ensure(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to prepare bias model")
	}

	verdicts, err := repository.NewSQLiteVerdictStore(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open verdict store")
	}
	defer verdicts.Close()

	detector := service.NewDetector(provider, logger)

	server, err := api.NewServer(cfg, preprocess.NewCSVPreprocessor(), detector, provider, verdicts, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build HTTP server")
	}

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
	logger.Info("Server stopped")
}

func configureLogger(logger *logrus.Logger, cfg domain.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
