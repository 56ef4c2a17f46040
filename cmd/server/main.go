package main

import (
	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/vidlex/internal/api"
	"github.com/knowledge-engine/vidlex/internal/config"
	"github.com/knowledge-engine/vidlex/internal/engine"
	"github.com/knowledge-engine/vidlex/internal/storage"
)

func main() {
	// Setup Logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	entry := logger.WithField("service", "vidlex-api")

	// 1. Config
	cfg := config.Load()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		entry.WithError(err).Warn("Unknown log level, keeping info")
	}
	if err := cfg.Validate(); err != nil {
		entry.Fatalf("Invalid configuration: %v", err)
	}

	entry.Info("Starting vidlex API service")

	// 2. Metadata cache
	cache, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		entry.Fatalf("Failed to initialize storage: %v", err)
	}
	if cache != nil {
		defer cache.Close()
		entry.WithField("backend", cfg.Storage.Backend).Info("Metadata cache enabled")
	}

	// 3. Engine
	provider := engine.NewProvider(cfg, entry)
	eng, err := engine.NewEngine(cfg, entry.WithField("component", "engine"), provider, cache)
	if err != nil {
		entry.Fatalf("Failed to initialize engine: %v", err)
	}
	defer eng.Close()

	// 4. API Server
	server := api.NewServer(eng, entry.WithField("component", "api"))

	entry.WithField("provider", provider.Name()).Infof("vidlex API ready on %s", cfg.Server.Addr)
	if err := server.Start(cfg.Server.Addr); err != nil {
		entry.Fatal(err)
	}
}
