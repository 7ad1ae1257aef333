package repository

import (
	"context"
	"os"

	"github.com/go-gota/gota/dataframe"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/models"
)

// CSVSource reads the two cleaned CSV exports from explicit paths
type CSVSource struct {
	hourlyPath string
	dailyPath  string
}

// NewCSVSource creates a CSV record source
func NewCSVSource(hourlyPath, dailyPath string) *CSVSource {
	return &CSVSource{
		hourlyPath: hourlyPath,
		dailyPath:  dailyPath,
	}
}

// Kind implements RecordSource
func (s *CSVSource) Kind() string {
	return config.SourceCSV
}

// Load implements RecordSource
func (s *CSVSource) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hourly, err := readCSVTable(s.hourlyPath, "hourly", models.HourlyColumns)
	if err != nil {
		return nil, err
	}

	daily, err := readCSVTable(s.dailyPath, "daily", models.DailyColumns)
	if err != nil {
		return nil, err
	}

	return &models.Dataset{Hourly: hourly, Daily: daily}, nil
}

func readCSVTable(path, table string, required []string) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, unavailable(config.SourceCSV, table, err)
	}
	defer file.Close()

	df := dataframe.ReadCSV(file, dataframe.WithTypes(columnTypes))

	df, err = normalizeFrame(df, table, required)
	if err != nil {
		return dataframe.DataFrame{}, unavailable(config.SourceCSV, table, err)
	}
	return df, nil
}
