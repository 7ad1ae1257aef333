package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/database"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

// RecordSource supplies the hourly and daily tables. Implementations read
// once and never write.
type RecordSource interface {
	Kind() string
	Load(ctx context.Context) (*models.Dataset, error)
}

// SourceUnavailableError reports a table that could not be located, parsed
// or validated. Callers recover by presenting the empty-data warning.
type SourceUnavailableError struct {
	Source string
	Table  string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s source unavailable: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s source unavailable (%s table): %v", e.Source, e.Table, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// IsTransient returns false: a missing file does not fix itself on retry
func (e *SourceUnavailableError) IsTransient() bool {
	return false
}

// IsSourceUnavailable reports whether err is, or wraps, a SourceUnavailableError
func IsSourceUnavailable(err error) bool {
	var target *SourceUnavailableError
	return errors.As(err, &target)
}

func unavailable(source, table string, err error) error {
	if err == nil {
		return nil
	}
	var already *SourceUnavailableError
	if errors.As(err, &already) {
		return err
	}
	return &SourceUnavailableError{Source: source, Table: table, Err: err}
}

// NewRecordSource builds the source selected by configuration
func NewRecordSource(cfg config.SourceConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (RecordSource, error) {
	switch cfg.Kind {
	case config.SourceCSV:
		return NewCSVSource(cfg.HourlyPath, cfg.DailyPath), nil
	case config.SourceXLSX:
		return NewXLSXSource(cfg.WorkbookPath, cfg.HourlySheet, cfg.DailySheet), nil
	case config.SourcePostgres, config.SourceSQLite:
		src, err := NewSQLSource(databaseConfig(cfg), cfg.HourlyTable, cfg.DailyTable, logger, metricsCollector)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", cfg.Kind)
	}
}

func databaseConfig(cfg config.SourceConfig) *database.Config {
	driver := database.DriverPostgres
	if cfg.Kind == config.SourceSQLite {
		driver = database.DriverSQLite
	}
	return &database.Config{
		Driver:          driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}
}

// LoadDataset performs the one-time load at process start. Every failure is
// returned as a *SourceUnavailableError.
func LoadDataset(ctx context.Context, src RecordSource, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*models.Dataset, error) {
	startTime := time.Now()

	logger.Info(ctx, "[SOURCE_LOAD_START] Loading rental tables", logging.Fields{
		"source_kind": src.Kind(),
	})

	dataset, err := src.Load(ctx)
	duration := time.Since(startTime)
	metricsCollector.SourceLoadDuration.Observe(duration.Seconds())

	if err != nil {
		err = unavailable(src.Kind(), "", err)
		metricsCollector.RecordSourceError(src.Kind())
		logger.Error(ctx, "[SOURCE_LOAD_ERROR] Rental tables unavailable", logging.Fields{
			"source_kind": src.Kind(),
			"duration_ms": duration.Milliseconds(),
		}, err)
		return nil, err
	}

	metricsCollector.RecordDatasetSize(dataset.Hourly.Nrow(), dataset.Daily.Nrow())

	logger.Info(ctx, "[SOURCE_LOAD_COMPLETE] Rental tables loaded", logging.Fields{
		"source_kind": src.Kind(),
		"hourly_rows": dataset.Hourly.Nrow(),
		"daily_rows":  dataset.Daily.Nrow(),
		"duration_ms": duration.Milliseconds(),
	})

	return dataset, nil
}
