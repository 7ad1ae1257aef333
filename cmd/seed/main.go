package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/repository"
	"bikeshare-dashboard/pkg/database"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

// seed copies the cleaned CSV tables into the configured SQL database so the
// dashboard can run with source kind postgres or sqlite.
func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	hourlyPath := flag.String("hourly", "", "Hourly CSV (default: source.hourly_path)")
	dailyPath := flag.String("daily", "", "Daily CSV (default: source.daily_path)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.Source.Kind != config.SourcePostgres && cfg.Source.Kind != config.SourceSQLite {
		fmt.Fprintf(os.Stderr, "source.kind must be %s or %s to seed a database, got %q\n",
			config.SourcePostgres, config.SourceSQLite, cfg.Source.Kind)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *hourlyPath == "" {
		*hourlyPath = cfg.Source.HourlyPath
	}
	if *dailyPath == "" {
		*dailyPath = cfg.Source.DailyPath
	}

	logger := logging.NewStructuredLogger("bikeshare-seed", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	metricsCollector := metrics.NewCollector("bikeshare_seed")

	ctx := context.Background()
	logger.Info(ctx, "[SEED_START] Seeding rental tables", logging.Fields{
		"hourly_path":  *hourlyPath,
		"daily_path":   *dailyPath,
		"target_kind":  cfg.Source.Kind,
		"hourly_table": cfg.Source.HourlyTable,
		"daily_table":  cfg.Source.DailyTable,
	})

	dataset, err := repository.LoadDataset(ctx, repository.NewCSVSource(*hourlyPath, *dailyPath), logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SEED_ERROR] Failed to read CSV tables", logging.Fields{}, err)
	}

	driver := database.DriverPostgres
	if cfg.Source.Kind == config.SourceSQLite {
		driver = database.DriverSQLite
	}
	db, err := database.Open(ctx, &database.Config{
		Driver:          driver,
		Host:            cfg.Source.Database.Host,
		Port:            cfg.Source.Database.Port,
		User:            cfg.Source.Database.User,
		Password:        cfg.Source.Database.Password,
		Database:        cfg.Source.Database.Database,
		SSLMode:         cfg.Source.Database.SSLMode,
		Path:            cfg.Source.Database.Path,
		MaxOpenConns:    cfg.Source.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Source.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Source.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Source.Database.ConnMaxIdleTime,
	}, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SEED_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	writer, err := repository.NewTableWriter(db, cfg.Source.HourlyTable, cfg.Source.DailyTable, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SEED_ERROR] Invalid table names", logging.Fields{}, err)
	}

	result, err := writer.Write(ctx, dataset)
	if err != nil {
		logger.Fatal(ctx, "[SEED_ERROR] Seeding failed", logging.Fields{}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SEED COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%-14s %d rows\n", cfg.Source.HourlyTable+":", result.HourlyRows)
	fmt.Printf("%-14s %d rows\n", cfg.Source.DailyTable+":", result.DailyRows)
	fmt.Printf("%-14s %v\n", "Duration:", result.Duration)
}
