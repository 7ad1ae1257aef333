package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-gota/gota/dataframe"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/database"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// SQLSource reads both tables with plain SELECTs from PostgreSQL or SQLite
type SQLSource struct {
	dbConfig    *database.Config
	db          *database.DB
	hourlyTable string
	dailyTable  string
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewSQLSource creates a source that opens its own connection on Load and
// closes it afterwards
func NewSQLSource(dbConfig *database.Config, hourlyTable, dailyTable string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*SQLSource, error) {
	for _, table := range []string{hourlyTable, dailyTable} {
		if !identifierPattern.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &SQLSource{
		dbConfig:    dbConfig,
		hourlyTable: hourlyTable,
		dailyTable:  dailyTable,
		logger:      logger,
		metrics:     metricsCollector,
	}, nil
}

// NewSQLSourceFromDB reads through an already open connection, which the
// caller keeps ownership of
func NewSQLSourceFromDB(db *database.DB, hourlyTable, dailyTable string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*SQLSource, error) {
	src, err := NewSQLSource(&database.Config{Driver: db.DB().DriverName()}, hourlyTable, dailyTable, logger, metricsCollector)
	if err != nil {
		return nil, err
	}
	src.db = db
	return src, nil
}

// Kind implements RecordSource
func (s *SQLSource) Kind() string {
	if s.dbConfig.Driver == database.DriverSQLite {
		return config.SourceSQLite
	}
	return config.SourcePostgres
}

// Load implements RecordSource
func (s *SQLSource) Load(ctx context.Context) (*models.Dataset, error) {
	db := s.db
	if db == nil {
		opened, err := database.Open(ctx, s.dbConfig, s.logger, s.metrics)
		if err != nil {
			return nil, unavailable(s.Kind(), "", err)
		}
		defer opened.Close()
		db = opened
	}

	hourly, err := s.loadHourly(ctx, db)
	if err != nil {
		return nil, unavailable(s.Kind(), "hourly", err)
	}

	daily, err := s.loadDaily(ctx, db)
	if err != nil {
		return nil, unavailable(s.Kind(), "daily", err)
	}

	return &models.Dataset{Hourly: hourly, Daily: daily}, nil
}

func (s *SQLSource) loadHourly(ctx context.Context, db *database.DB) (dataframe.DataFrame, error) {
	query := selectQuery(s.hourlyTable, models.HourlyColumns)

	var records []models.HourlyRecord
	if err := db.SelectContext(ctx, "select_hourly", &records, query); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read hourly records: %w", err)
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("hourly table %s has no rows", s.hourlyTable)
	}

	for i := range records {
		if err := records[i].Normalize(); err != nil {
			return dataframe.DataFrame{}, rowError("hourly", i, err)
		}
	}

	df := dataframe.LoadStructs(records)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to build hourly frame: %w", df.Err)
	}
	return df, nil
}

func (s *SQLSource) loadDaily(ctx context.Context, db *database.DB) (dataframe.DataFrame, error) {
	query := selectQuery(s.dailyTable, models.DailyColumns)

	var records []models.DailyRecord
	if err := db.SelectContext(ctx, "select_daily", &records, query); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to read daily records: %w", err)
	}
	if len(records) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("daily table %s has no rows", s.dailyTable)
	}

	for i := range records {
		if err := records[i].Normalize(); err != nil {
			return dataframe.DataFrame{}, rowError("daily", i, err)
		}
	}

	df := dataframe.LoadStructs(records)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to build daily frame: %w", df.Err)
	}
	return df, nil
}

func selectQuery(table string, columns []string) string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
}
