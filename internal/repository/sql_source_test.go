package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/database"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

const hourlySchema = `CREATE TABLE hourly_rentals (
	hr INTEGER, year INTEGER, mnth INTEGER, weekday INTEGER,
	season_desc TEXT, weather_desc TEXT,
	temp_actual REAL, hum_actual REAL, windspeed_actual REAL,
	casual INTEGER, registered INTEGER, cnt INTEGER
)`

const dailySchema = `CREATE TABLE daily_rentals (
	year INTEGER, mnth INTEGER, weekday INTEGER,
	season_desc TEXT, weather_desc TEXT,
	temp_actual REAL, hum_actual REAL, windspeed_actual REAL,
	casual INTEGER, registered INTEGER, cnt INTEGER,
	casual_ratio REAL
)`

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := sqlx.Open(database.DriverSQLite, ":memory:")
	require.NoError(t, err)
	// one connection, otherwise every connection sees its own empty database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return database.Wrap(db, logging.NewDiscardLogger(), metrics.NewCollector("test"))
}

func seedTable(t *testing.T, db *database.DB, schema, table string, columns []string, rows []string) {
	t.Helper()
	_, err := db.DB().Exec(schema)
	require.NoError(t, err)

	for _, row := range rows {
		values := strings.Split(row, ",")
		placeholders := make([]string, len(values))
		args := make([]interface{}, len(values))
		for i, v := range values {
			placeholders[i] = "?"
			args[i] = v
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
		_, err := db.DB().Exec(query, args...)
		require.NoError(t, err)
	}
}

func TestSQLSource_Load(t *testing.T) {
	db := newTestDB(t)
	seedTable(t, db, hourlySchema, "hourly_rentals", models.HourlyColumns, hourlyRows)
	seedTable(t, db, dailySchema, "daily_rentals", models.DailyColumns, dailyRows)

	src, err := NewSQLSourceFromDB(db, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
	require.NoError(t, err)
	assert.Equal(t, config.SourceSQLite, src.Kind())

	dataset, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(hourlyRows), dataset.Hourly.Nrow())
	assert.Equal(t, len(dailyRows), dataset.Daily.Nrow())

	totals, err := dataset.Daily.Col(models.ColTotal).Int()
	require.NoError(t, err)
	assert.Equal(t, []int{985, 801, 6000}, totals)

	assert.Equal(t, []string{"Spring", "Spring", "Fall", "Winter"}, dataset.Hourly.Col(models.ColSeason).Records())
	assert.InDelta(t, 1000.0/6000.0, dataset.Daily.Col(models.ColCasualRatio).Float()[2], 1e-12)

	for _, col := range models.HourlyColumns {
		assert.Contains(t, dataset.Hourly.Names(), col)
	}
}

func TestSQLSource_Unavailable(t *testing.T) {
	t.Run("missing table", func(t *testing.T) {
		db := newTestDB(t)
		seedTable(t, db, hourlySchema, "hourly_rentals", models.HourlyColumns, hourlyRows)

		src, err := NewSQLSourceFromDB(db, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
		require.NoError(t, err)

		_, err = src.Load(context.Background())
		var srcErr *SourceUnavailableError
		require.ErrorAs(t, err, &srcErr)
		assert.Equal(t, "daily", srcErr.Table)
	})

	t.Run("empty table", func(t *testing.T) {
		db := newTestDB(t)
		seedTable(t, db, hourlySchema, "hourly_rentals", models.HourlyColumns, nil)

		src, err := NewSQLSourceFromDB(db, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
		require.NoError(t, err)

		_, err = src.Load(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no rows")
	})

	t.Run("inconsistent counts", func(t *testing.T) {
		db := newTestDB(t)
		seedTable(t, db, hourlySchema, "hourly_rentals", models.HourlyColumns, []string{"5,2011,1,6,Spring,Clear,9.84,81,0,3,13,99"})

		src, err := NewSQLSourceFromDB(db, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
		require.NoError(t, err)

		_, err = src.Load(context.Background())
		require.Error(t, err)
		assert.True(t, IsSourceUnavailable(err))
		assert.Contains(t, err.Error(), "hourly table row 1")
	})

	t.Run("unreachable database", func(t *testing.T) {
		cfg := &database.Config{Driver: database.DriverSQLite, Path: "file:/nonexistent/dir/rentals.db?mode=ro"}
		src, err := NewSQLSource(cfg, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
		require.NoError(t, err)

		_, err = src.Load(context.Background())
		require.Error(t, err)
		assert.True(t, IsSourceUnavailable(err))
	})
}

func TestNewSQLSource_RejectsTableNames(t *testing.T) {
	cfg := &database.Config{Driver: database.DriverPostgres}
	for _, table := range []string{"", "1hourly", "hourly; DROP TABLE daily", "a.b.c", `"quoted"`} {
		_, err := NewSQLSource(cfg, table, "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
		assert.Error(t, err, table)
	}

	src, err := NewSQLSource(cfg, "public.hourly", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
	require.NoError(t, err)
	assert.Equal(t, config.SourcePostgres, src.Kind())
}
