package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MezriHC/Better-Ads-sub000/internal/adapter/repo"
	"github.com/MezriHC/Better-Ads-sub000/internal/http/handlers"
	httpapi "github.com/MezriHC/Better-Ads-sub000/internal/http"
	"github.com/MezriHC/Better-Ads-sub000/internal/infra"
	"github.com/MezriHC/Better-Ads-sub000/internal/infra/geoip"
	"github.com/MezriHC/Better-Ads-sub000/internal/middleware"
	"github.com/MezriHC/Better-Ads-sub000/internal/project"
	imggen "github.com/MezriHC/Better-Ads-sub000/internal/providers/image"
	videogen "github.com/MezriHC/Better-Ads-sub000/internal/providers/video"
	"github.com/MezriHC/Better-Ads-sub000/internal/storage"
	"github.com/MezriHC/Better-Ads-sub000/internal/taskclient"
	"github.com/MezriHC/Better-Ads-sub000/internal/upload"
	"github.com/MezriHC/Better-Ads-sub000/internal/wizard"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	ctx := context.Background()

	// The database is optional: without it the task audit trail is disabled
	// and the project scope comes from configuration.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
	}

	fileStore, err := storage.NewFileStore(cfg.StoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}
	uploads := upload.NewService(fileStore, cfg.StorageBaseURL)

	httpClient := &http.Client{Timeout: cfg.HTTPReadTimeout * 4}
	images := imggen.NewGeminiGenerator(imggen.Options{
		APIKey:     cfg.GeminiAPIKey,
		BaseURL:    cfg.GeminiBaseURL,
		Model:      cfg.GeminiModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("gemini api key missing, using synthetic image generation")
	}
	videos := videogen.NewVeo(videogen.Options{
		APIKey:     cfg.VeoAPIKey,
		BaseURL:    cfg.VeoBaseURL,
		Model:      cfg.VeoModel,
		HTTPClient: httpClient,
		Logger:     &logger,
	})
	if cfg.VeoAPIKey == "" {
		logger.Warn().Msg("veo api key missing, using synthetic video generation")
	}

	tasks := taskclient.New(images, videos, &logger)

	var projects wizard.ProjectContext
	if pool != nil && cfg.ProjectID == "" {
		projects = project.NewPGContext(pool)
	} else {
		projects = project.StaticContext{ProjectID: cfg.ProjectID}
	}

	var recorder wizard.TaskRecorder
	var audit handlers.TaskFinder
	if pool != nil {
		taskRepo := repo.NewTaskRepository(pool)
		recorder = taskRepo
		audit = taskRepo
	}

	sessions := wizard.NewManager(wizard.Config{
		Tasks:        tasks,
		Projects:     projects,
		Recorder:     recorder,
		Logger:       &logger,
		PollInterval: cfg.PollInterval,
		VideoTimeout: cfg.VideoTimeout,
	})

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable")
	} else if resolver != nil {
		lookup = resolver.CountryCode
	}

	app := handlers.NewApp(logger, sessions, uploads, audit, fileStore)
	router := httpapi.NewRouter(app, logger, httpapi.RouterConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   lookup,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Msgf("actor wizard API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stopCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
