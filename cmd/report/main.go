package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bikeshare-dashboard/internal/charts"
	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/export"
	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/internal/repository"
	"bikeshare-dashboard/internal/services"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML configuration file")
	years := flag.String("years", "", "Comma separated years (default: all)")
	seasons := flag.String("seasons", "", "Comma separated seasons (default: all)")
	xlsxPath := flag.String("xlsx", "", "Write the dashboard workbook to this file")
	chartDir := flag.String("charts", "", "Write every chart as PNG into this directory")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("bikeshare-report", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	metricsCollector := metrics.NewCollector("bikeshare_report")

	ctx := context.Background()

	locale, err := models.LookupLocale(cfg.Dashboard.Locale)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Unsupported locale", logging.Fields{}, err)
	}

	source, err := repository.NewRecordSource(cfg.Source, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Invalid record source", logging.Fields{}, err)
	}
	dataset, err := repository.LoadDataset(ctx, source, logger, metricsCollector)
	if err != nil {
		fmt.Fprintln(os.Stderr, locale.Labels.DataUnavailable)
		os.Exit(1)
	}

	svc := services.NewDashboardService(dataset, nil, services.Settings{
		Locale:     locale,
		SampleSize: cfg.Dashboard.SampleSize,
		SampleSeed: cfg.Dashboard.SampleSeed,
	}, logger, metricsCollector)

	sel, err := selectionFromFlags(svc.DefaultSelection(), *years, *seasons)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid selection: %v\n", err)
		os.Exit(2)
	}

	dashboard, err := svc.Build(ctx, sel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dashboard: %v\n", err)
		os.Exit(1)
	}

	printReport(locale, dashboard)

	if *xlsxPath != "" {
		if err := writeWorkbook(ctx, *xlsxPath, export.NewExporter(locale, logger, metricsCollector), dashboard); err != nil {
			logger.Fatal(ctx, "[REPORT_ERROR] Workbook export failed", logging.Fields{"path": *xlsxPath}, err)
		}
		fmt.Printf("\nWorkbook written to %s\n", *xlsxPath)
	}

	if *chartDir != "" {
		renderer := charts.NewRenderer(locale, logger, metricsCollector)
		if err := writeCharts(ctx, *chartDir, renderer, dashboard); err != nil {
			logger.Fatal(ctx, "[REPORT_ERROR] Chart export failed", logging.Fields{"dir": *chartDir}, err)
		}
		fmt.Printf("Charts written to %s\n", *chartDir)
	}
}

// selectionFromFlags treats an unset flag as every available value
func selectionFromFlags(def models.FilterSelection, years, seasons string) (models.FilterSelection, error) {
	ys := def.Years
	if years != "" {
		parsed, err := models.ParseYearList(years)
		if err != nil {
			return models.FilterSelection{}, err
		}
		ys = parsed
	}

	ss := def.Seasons
	if seasons != "" {
		ss = models.ParseSeasonList(seasons)
	}
	return models.NewFilterSelection(ys, ss), nil
}

func printReport(locale *models.Locale, d *models.Dashboard) {
	labels := locale.Labels

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println(strings.ToUpper(labels.Title))
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("%-30s %v\n", labels.Year+":", d.Selection.Years)
	fmt.Printf("%-30s %v\n", labels.Season+":", d.Selection.Seasons)
	fmt.Printf("%-30s %d / %d\n", "Rows (hourly / daily):", d.HourlyRows, d.DailyRows)
	fmt.Println(strings.Repeat("-", 80))
	fmt.Printf("%-30s %s\n", labels.TotalRentals+":", d.KPIs.TotalRentals)
	fmt.Printf("%-30s %s\n", labels.CasualPercentage+":", d.KPIs.CasualPercentage)
	fmt.Printf("%-30s %s\n", labels.PeakMonth+":", d.KPIs.PeakMonth)
	fmt.Printf("%-30s %s\n", labels.PeakHour+":", d.KPIs.PeakHour)

	if len(d.BySeason) > 0 {
		fmt.Println(strings.Repeat("-", 80))
		fmt.Printf("%-20s %12s %12s %12s\n", labels.Season, labels.Casual, labels.Registered, labels.Total)
		for _, s := range d.BySeason {
			fmt.Printf("%-20s %12s %12s %12s\n", s.Season,
				locale.FormatCount(s.Casual), locale.FormatCount(s.Registered), locale.FormatCount(s.Total))
		}
	}
}

func writeWorkbook(ctx context.Context, path string, exporter *export.Exporter, d *models.Dashboard) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := exporter.Write(ctx, f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCharts(ctx context.Context, dir string, renderer *charts.Renderer, d *models.Dashboard) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, chart := range charts.Charts {
		f, err := os.Create(filepath.Join(dir, chart+".png"))
		if err != nil {
			return err
		}
		if err := renderer.Render(ctx, f, chart, d); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}
