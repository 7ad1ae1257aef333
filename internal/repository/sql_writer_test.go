package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

func TestTableWriter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	hourlyPath, dailyPath := writeCSVFixtures(t)

	dataset, err := NewCSVSource(hourlyPath, dailyPath).Load(ctx)
	require.NoError(t, err)

	db := newTestDB(t)
	writer, err := NewTableWriter(db, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
	require.NoError(t, err)

	// writing twice replaces instead of appending
	for i := 0; i < 2; i++ {
		result, err := writer.Write(ctx, dataset)
		require.NoError(t, err)
		assert.Equal(t, len(hourlyRows), result.HourlyRows)
		assert.Equal(t, len(dailyRows), result.DailyRows)
	}

	src, err := NewSQLSourceFromDB(db, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
	require.NoError(t, err)

	loaded, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, dataset.Hourly.Nrow(), loaded.Hourly.Nrow())
	assert.Equal(t, dataset.Daily.Nrow(), loaded.Daily.Nrow())

	want, err := dataset.Daily.Col(models.ColTotal).Int()
	require.NoError(t, err)
	got, err := loaded.Daily.Col(models.ColTotal).Int()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, dataset.Hourly.Col(models.ColWeather).Records(), loaded.Hourly.Col(models.ColWeather).Records())
	assert.InDeltaSlice(t, dataset.Hourly.Col(models.ColTemperature).Float(), loaded.Hourly.Col(models.ColTemperature).Float(), 1e-6)
}

func TestNewTableWriter_RejectsTableNames(t *testing.T) {
	db := newTestDB(t)
	_, err := NewTableWriter(db, "hourly; DROP TABLE x", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
	assert.Error(t, err)
}

func TestTableWriter_KeepsFloatPrecision(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	hourlyPath := writeFixture(t, dir, "hourly.csv", hourlyHeader,
		"8,2011,1,6,Spring,Clear,9.8412345678,81.123456789,6.0032123456,3,13,16")
	dailyPath := writeFixture(t, dir, "daily.csv", dailyHeader,
		"2011,1,6,Spring,Mist,14.110847457,80.5833333333,10.749882499,331,654,985")

	dataset, err := NewCSVSource(hourlyPath, dailyPath).Load(ctx)
	require.NoError(t, err)

	db := newTestDB(t)
	writer, err := NewTableWriter(db, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
	require.NoError(t, err)
	_, err = writer.Write(ctx, dataset)
	require.NoError(t, err)

	src, err := NewSQLSourceFromDB(db, "hourly_rentals", "daily_rentals", logging.NewDiscardLogger(), metrics.NewCollector("test"))
	require.NoError(t, err)
	loaded, err := src.Load(ctx)
	require.NoError(t, err)

	tests := []struct {
		name  string
		table func(*models.Dataset) []float64
		want  []float64
	}{
		{"hourly temperature", func(ds *models.Dataset) []float64 { return ds.Hourly.Col(models.ColTemperature).Float() }, []float64{9.8412345678}},
		{"hourly humidity", func(ds *models.Dataset) []float64 { return ds.Hourly.Col(models.ColHumidity).Float() }, []float64{81.123456789}},
		{"daily windspeed", func(ds *models.Dataset) []float64 { return ds.Daily.Col(models.ColWindspeed).Float() }, []float64{10.749882499}},
		{"hourly casual ratio", func(ds *models.Dataset) []float64 { return ds.Hourly.Col(models.ColCasualRatio).Float() }, []float64{3.0 / 16.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, tt.table(loaded), 1e-12)
		})
	}
}
