package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/tealeg/xlsx"

	"bikeshare-dashboard/internal/config"
	"bikeshare-dashboard/internal/models"
)

// XLSXSource reads both tables from one workbook, one sheet per table,
// header in the first row
type XLSXSource struct {
	path        string
	hourlySheet string
	dailySheet  string
}

// NewXLSXSource creates a workbook record source
func NewXLSXSource(path, hourlySheet, dailySheet string) *XLSXSource {
	return &XLSXSource{
		path:        path,
		hourlySheet: hourlySheet,
		dailySheet:  dailySheet,
	}
}

// Kind implements RecordSource
func (s *XLSXSource) Kind() string {
	return config.SourceXLSX
}

// Load implements RecordSource
func (s *XLSXSource) Load(ctx context.Context) (*models.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	xlFile, err := xlsx.OpenFile(s.path)
	if err != nil {
		return nil, unavailable(config.SourceXLSX, "", fmt.Errorf("failed to open workbook: %w", err))
	}

	hourly, err := sheetTable(xlFile, s.hourlySheet, "hourly", models.HourlyColumns)
	if err != nil {
		return nil, err
	}

	daily, err := sheetTable(xlFile, s.dailySheet, "daily", models.DailyColumns)
	if err != nil {
		return nil, err
	}

	return &models.Dataset{Hourly: hourly, Daily: daily}, nil
}

func sheetTable(xlFile *xlsx.File, sheetName, table string, required []string) (dataframe.DataFrame, error) {
	sheet, ok := xlFile.Sheet[sheetName]
	if !ok {
		return dataframe.DataFrame{}, unavailable(config.SourceXLSX, table, fmt.Errorf("sheet %q not found", sheetName))
	}

	df, err := normalizeFrame(convertSheetToDataFrame(sheet), table, required)
	if err != nil {
		return dataframe.DataFrame{}, unavailable(config.SourceXLSX, table, err)
	}
	return df, nil
}

// convertSheetToDataFrame maps a sheet with a header row onto a typed frame.
// Blank rows are skipped and short rows padded.
func convertSheetToDataFrame(sheet *xlsx.Sheet) dataframe.DataFrame {
	if len(sheet.Rows) == 0 {
		return dataframe.New()
	}

	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, strings.TrimSpace(cell.Value))
	}
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	if len(headers) == 0 {
		return dataframe.New()
	}

	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	for _, row := range sheet.Rows[1:] {
		if row == nil || rowIsBlank(row) {
			continue
		}
		for i := range headers {
			value := ""
			if i < len(row.Cells) {
				value = strings.TrimSpace(row.Cells[i].Value)
			}
			columns[i] = append(columns[i], value)
		}
	}

	if len(columns[0]) == 0 {
		return dataframe.New()
	}
	return frameFromColumns(headers, columns)
}

func rowIsBlank(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if strings.TrimSpace(cell.Value) != "" {
			return false
		}
	}
	return true
}
