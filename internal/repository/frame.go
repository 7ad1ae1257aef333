package repository

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"bikeshare-dashboard/internal/models"
)

// columnTypes pins every known column to a gota type so labels never get
// detected as numbers and counts never as floats
var columnTypes = map[string]series.Type{
	models.ColYear:        series.Int,
	models.ColMonth:       series.Int,
	models.ColWeekday:     series.Int,
	models.ColHour:        series.Int,
	models.ColSeason:      series.String,
	models.ColWeather:     series.String,
	models.ColTemperature: series.Float,
	models.ColHumidity:    series.Float,
	models.ColWindspeed:   series.Float,
	models.ColCasual:      series.Int,
	models.ColRegistered:  series.Int,
	models.ColTotal:       series.Int,
	models.ColCasualRatio: series.Float,
}

func columnType(name string) series.Type {
	if t, ok := columnTypes[name]; ok {
		return t
	}
	return series.String
}

// frameFromColumns builds a typed frame from raw string cells
func frameFromColumns(headers []string, columns [][]string) dataframe.DataFrame {
	seriesList := make([]series.Series, len(headers))
	for i, name := range headers {
		seriesList[i] = series.New(columns[i], columnType(name), name)
	}
	return dataframe.New(seriesList...)
}

// normalizeFrame validates a loaded table and rewrites casual_ratio from the
// counts, so casual_ratio == casual / cnt holds for every row.
func normalizeFrame(df dataframe.DataFrame, table string, required []string) (dataframe.DataFrame, error) {
	if df.Err != nil {
		return df, fmt.Errorf("failed to parse %s table: %w", table, df.Err)
	}
	if df.Nrow() == 0 {
		return df, fmt.Errorf("%s table has no rows", table)
	}

	present := make(map[string]struct{}, df.Ncol())
	for _, name := range df.Names() {
		present[name] = struct{}{}
	}
	for _, col := range required {
		if _, ok := present[col]; !ok {
			return df, &models.ValidationError{
				Field:   col,
				Message: fmt.Sprintf("%s table is missing column %q", table, col),
			}
		}
	}

	intCols := []string{models.ColYear, models.ColMonth, models.ColWeekday, models.ColCasual, models.ColRegistered, models.ColTotal}
	_, hourly := present[models.ColHour]
	if hourly {
		intCols = append(intCols, models.ColHour)
	}

	values := make(map[string][]int, len(intCols))
	for _, col := range intCols {
		vals, err := df.Col(col).Int()
		if err != nil {
			return df, &models.ValidationError{
				Field:   col,
				Message: fmt.Sprintf("%s table column %q holds a non-integer value: %v", table, col, err),
			}
		}
		values[col] = vals
	}

	// gota reads "NA" and "NaN" label cells as missing elements, which break
	// grouping later on
	for _, col := range []string{models.ColSeason, models.ColWeather} {
		labels := df.Col(col)
		missing := labels.IsNaN()
		for i, label := range labels.Records() {
			if label == "" || missing[i] {
				return df, &models.ValidationError{
					Field:   col,
					Message: fmt.Sprintf("%s table row %d has a missing %s", table, i+1, col),
				}
			}
		}
	}

	ratios := make([]float64, df.Nrow())
	for i := range ratios {
		rec := models.DailyRecord{
			Month:      values[models.ColMonth][i],
			Weekday:    values[models.ColWeekday][i],
			Casual:     values[models.ColCasual][i],
			Registered: values[models.ColRegistered][i],
			Total:      values[models.ColTotal][i],
		}
		if err := rec.Normalize(); err != nil {
			return df, rowError(table, i, err)
		}
		if hourly {
			if hr := values[models.ColHour][i]; hr < 0 || hr > 23 {
				return df, rowError(table, i, &models.ValidationError{
					Field:   models.ColHour,
					Value:   fmt.Sprint(hr),
					Message: "hour must be between 0 and 23",
				})
			}
		}
		ratios[i] = rec.CasualRatio
	}

	df = df.Mutate(series.New(ratios, series.Float, models.ColCasualRatio))
	if df.Err != nil {
		return df, fmt.Errorf("failed to derive %s: %w", models.ColCasualRatio, df.Err)
	}
	return df, nil
}

func rowError(table string, row int, err error) error {
	if vErr, ok := err.(*models.ValidationError); ok {
		return &models.ValidationError{
			Field:   vErr.Field,
			Value:   vErr.Value,
			Message: fmt.Sprintf("%s table row %d: %s", table, row+1, vErr.Message),
		}
	}
	return fmt.Errorf("%s table row %d: %w", table, row+1, err)
}
