package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"miora/internal/adapter/repo"
	"miora/internal/http/handlers"
	httpapi "miora/internal/http/httpapi"
	"miora/internal/infra"
	"miora/internal/infra/geoip"
	"miora/internal/middleware"
	"miora/internal/orchestrator"
	"miora/internal/processor"
	"miora/internal/service"
	"miora/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	procClient, err := processor.NewClient(processor.Options{
		BaseURL:       cfg.ProcessorBaseURL,
		APIKey:        cfg.ProcessorAPIKey,
		HTTPClient:    &http.Client{},
		Timeout:       cfg.ProcessorTimeout,
		HealthTimeout: cfg.ProcessorHealthTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure processor client")
	}

	jobs := repo.NewJobRepository(dbpool)
	avatars := repo.NewAvatarRepository(dbpool)
	garments := repo.NewGarmentRepository(dbpool)
	sessions := repo.NewTryOnSessionRepository(dbpool)

	orch := orchestrator.New(jobs, procClient, logger)

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	fileStore, err := storage.NewFileStore(storagePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	app := &handlers.App{
		Logger:         logger,
		Jobs:           service.NewJobService(orch),
		Avatars:        service.NewAvatarService(avatars, orch, logger),
		Garments:       service.NewGarmentService(garments, orch, logger),
		TryOn:          service.NewTryOnService(sessions, avatars, garments, orch, logger),
		Processor:      procClient,
		Files:          fileStore,
		StorageBaseURL: cfg.StorageBaseURL,
	}

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	router := httpapi.NewRouter(app, lookup)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
