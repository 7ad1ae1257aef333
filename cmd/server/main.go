package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"

	"bikeshare-dashboard/internal/charts"
	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/export"
	"bikeshare-dashboard/internal/handlers"
	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/internal/repository"
	"bikeshare-dashboard/internal/services"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("bikeshare-dashboard", version, logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting bike sharing dashboard server", logging.Fields{
		"version":     version,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"source_kind": cfg.Source.Kind,
		"locale":      cfg.Dashboard.Locale,
	})

	metricsCollector := metrics.NewCollector("bikeshare_dashboard")

	locale, err := models.LookupLocale(cfg.Dashboard.Locale)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Unsupported locale", logging.Fields{}, err)
	}

	// The tables are read once. A failed load still starts the server so the
	// page can show the unavailable-data warning.
	var dataset *models.Dataset
	source, loadErr := repository.NewRecordSource(cfg.Source, logger, metricsCollector)
	if loadErr != nil {
		loadErr = &repository.SourceUnavailableError{Source: cfg.Source.Kind, Err: loadErr}
	} else {
		dataset, loadErr = repository.LoadDataset(ctx, source, logger, metricsCollector)
	}
	if loadErr != nil {
		logger.Warn(ctx, "[STARTUP_DEGRADED] Serving without data", logging.Fields{
			"error": loadErr.Error(),
		})
	}

	// Initialize services
	dashboardService := services.NewDashboardService(dataset, loadErr, services.Settings{
		Locale:     locale,
		SampleSize: cfg.Dashboard.SampleSize,
		SampleSeed: cfg.Dashboard.SampleSeed,
	}, logger, metricsCollector)

	// Initialize handlers
	dashboardHandler := handlers.NewDashboardHandler(
		dashboardService,
		charts.NewRenderer(locale, logger, metricsCollector),
		export.NewExporter(locale, logger, metricsCollector),
		logger,
		metricsCollector,
	)

	router := mux.NewRouter()
	router.Use(handlers.Instrument(logger, metricsCollector))
	dashboardHandler.RegisterRoutes(router)
	router.Handle("/metrics", metricsCollector.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
