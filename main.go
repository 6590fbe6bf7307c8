package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	appLogger "github.com/FACorreiaa/go-moto-shop-finder/app/logger"
	"github.com/FACorreiaa/go-moto-shop-finder/app/observability/metrics"
	"github.com/FACorreiaa/go-moto-shop-finder/app/tracer"
	"github.com/FACorreiaa/go-moto-shop-finder/config"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/api/cities"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/api/locationsearch"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/api/shops"
	"github.com/FACorreiaa/go-moto-shop-finder/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// --- Logger Setup ---
	logger := setupLogger()
	slog.SetDefault(logger)

	// --- Application Context & Shutdown ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	// --- Dependency Injection ---
	shopsRepo := shops.NewCSVRepository(cfg.Data.ShopsFile, logger)
	shopsService := shops.NewServiceImpl(shopsRepo, logger)
	shopsHandler := shops.NewShopsHandler(shopsService, logger)

	citiesRepo := cities.NewCSVRepository(cfg.Data.CitiesFile, logger)
	citiesHandler := cities.NewCitiesHandler(citiesRepo, logger)

	geocoder := locationsearch.NewNominatimClient(cfg.Search.NominatimURL, cfg.Search.UserAgent, nil, logger)
	poiClient := locationsearch.NewOverpassClient(cfg.Search.OverpassURL, cfg.Search.UserAgent, nil, logger)
	searchService := locationsearch.NewServiceImpl(geocoder, poiClient, cfg.Search.PolitenessDelay, logger)
	searchHandler := locationsearch.NewSearchHandler(searchService, cfg.Search.DefaultRadiusM, cfg.Search.DefaultLimit, logger)

	// Warm the catalog before accepting traffic; a broken catalog file is a
	// startup failure, not a per-request surprise.
	if catalog, err := shopsRepo.Load(ctx); err != nil {
		logger.Error("Failed to load shop catalog", slog.Any("error", err))
		os.Exit(1)
	} else {
		logger.Info("Shop catalog ready", slog.Int("shops", len(catalog)))
	}

	// --- Router Setup ---
	mainRouter := router.SetupRouter(&router.Config{
		ShopsHandler:  shopsHandler,
		CitiesHandler: citiesHandler,
		SearchHandler: searchHandler,
	})

	r := chi.NewMux()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(cfg.Server.Timeout))
	r.Use(middleware.Compress(5, "application/json"))
	r.Mount("/", mainRouter)

	// --- HTTP Server Setup ---
	serverAddress := fmt.Sprintf(":%s", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", serverAddress))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	// --- Graceful Shutdown ---
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" {
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
