package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/database"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

// TableWriter copies a dataset into the SQL tables SQLSource reads.
// Existing rows are replaced.
type TableWriter struct {
	db          *database.DB
	hourlyTable string
	dailyTable  string
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// WriteResult counts the rows written per table
type WriteResult struct {
	HourlyRows int
	DailyRows  int
	Duration   time.Duration
}

// NewTableWriter creates a writer for the two rental tables
func NewTableWriter(db *database.DB, hourlyTable, dailyTable string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*TableWriter, error) {
	for _, table := range []string{hourlyTable, dailyTable} {
		if !identifierPattern.MatchString(table) {
			return nil, fmt.Errorf("invalid table name %q", table)
		}
	}
	return &TableWriter{
		db:          db,
		hourlyTable: hourlyTable,
		dailyTable:  dailyTable,
		logger:      logger,
		metrics:     metricsCollector,
	}, nil
}

// Write creates both tables when missing and replaces their contents, one
// transaction per table
func (w *TableWriter) Write(ctx context.Context, ds *models.Dataset) (*WriteResult, error) {
	startTime := time.Now()
	result := &WriteResult{}

	hourlyCols := append(append([]string{}, models.HourlyColumns...), models.ColCasualRatio)
	dailyCols := append(append([]string{}, models.DailyColumns...), models.ColCasualRatio)

	n, err := w.writeTable(ctx, w.hourlyTable, ds.Hourly, hourlyCols)
	if err != nil {
		return nil, err
	}
	result.HourlyRows = n

	n, err = w.writeTable(ctx, w.dailyTable, ds.Daily, dailyCols)
	if err != nil {
		return nil, err
	}
	result.DailyRows = n
	result.Duration = time.Since(startTime)

	w.logger.Info(ctx, "[TABLE_WRITE_COMPLETE] Rental tables written", logging.Fields{
		"hourly_table": w.hourlyTable,
		"daily_table":  w.dailyTable,
		"hourly_rows":  result.HourlyRows,
		"daily_rows":   result.DailyRows,
		"duration_ms":  result.Duration.Milliseconds(),
	})
	return result, nil
}

func (w *TableWriter) writeTable(ctx context.Context, table string, df dataframe.DataFrame, columns []string) (int, error) {
	if df.Err != nil {
		return 0, df.Err
	}
	projected := df.Select(columns)
	if projected.Err != nil {
		return 0, fmt.Errorf("%s: %w", table, projected.Err)
	}

	if _, err := w.db.ExecContext(ctx, "create_table", createTableSQL(table, projected)); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", table, err)
	}

	tx, err := w.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PreparexContext(ctx, w.db.Rebind(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders,
	)))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	values, err := columnValues(projected)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", table, err)
	}

	log := w.logger.WithFields(logging.Fields{"table": table, "columns": len(columns)})
	rows := projected.Nrow()
	args := make([]interface{}, len(columns))
	for i := 0; i < rows; i++ {
		for j := range values {
			args[j] = values[j](i)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			w.metrics.RecordDBError("insert_error")
			log.Error(ctx, "[TABLE_WRITE_ERROR] Insert failed", logging.Fields{"row": i + 1}, err)
			return 0, fmt.Errorf("failed to insert %s row %d: %w", table, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Debug(ctx, "[TABLE_WRITE] Table replaced", logging.Fields{"rows": rows})
	return rows, nil
}

// columnValues returns one typed accessor per column so floats reach the
// driver at full precision instead of through Records' fixed formatting
func columnValues(df dataframe.DataFrame) ([]func(int) interface{}, error) {
	types := df.Types()
	values := make([]func(int) interface{}, df.Ncol())
	for j, name := range df.Names() {
		col := df.Col(name)
		switch types[j] {
		case series.Int:
			ints, err := col.Int()
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
			values[j] = func(i int) interface{} { return int64(ints[i]) }
		case series.Float:
			floats := col.Float()
			values[j] = func(i int) interface{} { return floats[i] }
		default:
			labels := col.Records()
			values[j] = func(i int) interface{} { return labels[i] }
		}
	}
	return values, nil
}

func createTableSQL(table string, df dataframe.DataFrame) string {
	defs := make([]string, 0, df.Ncol())
	for i, name := range df.Names() {
		sqlType := "TEXT"
		switch df.Types()[i] {
		case series.Int:
			sqlType = "INTEGER"
		case series.Float:
			sqlType = "DOUBLE PRECISION"
		}
		defs = append(defs, name+" "+sqlType+" NOT NULL")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
}
