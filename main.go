package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"survivalpredict/config"
	shttp "survivalpredict/http"
	"survivalpredict/logging"
	"survivalpredict/ml"
	"survivalpredict/monitoring"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: ./config.yaml or ../config.yaml)")
	flag.Parse()

	// 1. Load config
	path := *configPath
	if path == "" {
		path = config.Find("config.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	logger.Info("config loaded", zap.String("path", path))

	// 3. Artifacts, all fatal on failure
	pre, registry, err := ml.LoadAll(cfg.Artifacts, cfg.Preprocessing.Caps)
	if err != nil {
		if ml.IsMissingArtifact(err) {
			logger.Fatal(cfg.Artifacts.MissingArtifactsHint(), zap.Error(err))
		}
		logger.Fatal("failed to load model artifacts", zap.Error(err))
	}
	logger.Info("scaler loaded", zap.String("path", cfg.Artifacts.ScalerPath()))
	models := make([]string, 0, len(registry.Kinds()))
	for _, kind := range registry.Kinds() {
		models = append(models, kind.String())
	}
	logger.Info("all models loaded", zap.Strings("models", models))

	service, err := ml.NewService(pre, registry, cfg.Cache.Size, logger)
	if err != nil {
		logger.Fatal("failed to create prediction service", zap.Error(err))
	}

	metrics := monitoring.NewMetricsCollector()
	metrics.SetModelsLoaded(len(models))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Optional artifact watcher
	if cfg.UI.WatchArtifacts {
		watcher, err := ml.NewArtifactWatcher(cfg.Artifacts, logger)
		if err != nil {
			logger.Warn("artifact watcher disabled", zap.Error(err))
		} else {
			defer watcher.Close()
			go watcher.Run(ctx)
		}
	}

	// 5. HTTP server
	server := shttp.NewServer(shttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		MaxBodyBytes:   cfg.Http.MaxBodyBytes,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, shttp.Deps{
		Predictor: service,
		Metrics:   metrics,
		Logger:    logger,
		Language:  cfg.UI.Language,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("http server failed", zap.Error(err))
		}
	}

	cancel()
	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting", zap.Duration("uptime", metrics.GetUptime()))
}
