// Package export writes a computed dashboard to an XLSX workbook
package export

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

// Sheet names, in workbook order
const (
	SheetKPI           = "kpi"
	SheetHourly        = "hourly"
	SheetWeekday       = "weekday"
	SheetMonthly       = "monthly"
	SheetSeason        = "season"
	SheetWeather       = "weather"
	SheetSeasonWeather = "season-weather"
	SheetCorrelation   = "correlation"
	SheetSample        = "sample"
)

// Sheets lists every sheet the exporter writes
var Sheets = []string{
	SheetKPI, SheetHourly, SheetWeekday, SheetMonthly, SheetSeason,
	SheetWeather, SheetSeasonWeather, SheetCorrelation, SheetSample,
}

// ContentType is the MIME type of the produced workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Exporter turns dashboards into workbooks
type Exporter struct {
	locale  *models.Locale
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewExporter creates an exporter labelling KPI rows in locale
func NewExporter(locale *models.Locale, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Exporter {
	if locale == nil {
		locale = models.DefaultLocale()
	}
	return &Exporter{
		locale:  locale,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Write encodes d as a workbook onto w
func (e *Exporter) Write(ctx context.Context, w io.Writer, d *models.Dashboard) error {
	timer := e.metrics.NewTimer(e.metrics.ExportDuration)
	defer timer.ObserveDuration()

	f, err := e.Workbook(d)
	if err != nil {
		e.logger.Error(ctx, "[EXPORT_ERROR] Failed to build workbook", logging.Fields{}, err)
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug(ctx, "[EXPORT_COMPLETE] Workbook written", logging.Fields{
		"hourly_rows": d.HourlyRows,
		"daily_rows":  d.DailyRows,
	})
	return nil
}

// Workbook builds the in-memory workbook. The caller closes it.
func (e *Exporter) Workbook(d *models.Dashboard) (*excelize.File, error) {
	if d == nil {
		return nil, fmt.Errorf("no dashboard to export")
	}

	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, err
	}
	b := &sheetBuilder{file: f, header: header}

	if err := f.SetSheetName("Sheet1", SheetKPI); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range Sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	e.writeKPIs(b, d)
	writeHourly(b, d.ByHour)
	writeWeekday(b, d.ByWeekday)
	writeMonthly(b, d.ByMonth)
	writeSeason(b, d.BySeason)
	writeWeather(b, d.ByWeather)
	writeSeasonWeather(b, d.SeasonWeatherRatio)
	writeCorrelation(b, d.Correlation)
	writeSample(b, d.Sample)

	if b.err != nil {
		f.Close()
		return nil, b.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// sheetBuilder appends rows and keeps the first error
type sheetBuilder struct {
	file   *excelize.File
	header int
	err    error
}

func (b *sheetBuilder) table(sheet string, header []interface{}, rows [][]interface{}) {
	if b.err != nil {
		return
	}
	b.row(sheet, 1, header)
	if b.err == nil {
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			b.err = err
			return
		}
		b.err = b.file.SetCellStyle(sheet, "A1", last, b.header)
	}
	if b.err == nil {
		b.err = b.file.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}
	for i, r := range rows {
		b.row(sheet, i+2, r)
	}
}

func (b *sheetBuilder) row(sheet string, n int, values []interface{}) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		b.err = err
		return
	}
	if err := b.file.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("failed to write %s row %d: %w", sheet, n, err)
	}
}

// nullable leaves undefined values as blank cells
func nullable(v models.NullableFloat) interface{} {
	if !v.Valid() {
		return nil
	}
	return float64(v)
}

func usageHeader(key ...interface{}) []interface{} {
	return append(key, "casual", "registered", "cnt")
}

func (e *Exporter) writeKPIs(b *sheetBuilder, d *models.Dashboard) {
	labels := e.locale.Labels

	var peakMonth, peakHour interface{}
	if d.Metrics.PeakMonth != nil {
		peakMonth = int(*d.Metrics.PeakMonth)
	}
	if d.Metrics.PeakHour != nil {
		peakHour = *d.Metrics.PeakHour
	}

	b.table(SheetKPI, []interface{}{"metric", "value", "display"}, [][]interface{}{
		{labels.TotalRentals, d.Metrics.TotalRentals, d.KPIs.TotalRentals},
		{labels.CasualPercentage, nullable(d.Metrics.CasualPercentage), d.KPIs.CasualPercentage},
		{labels.PeakMonth, peakMonth, d.KPIs.PeakMonth},
		{labels.PeakHour, peakHour, d.KPIs.PeakHour},
		{"years", joinInts(d.Selection.Years), nil},
		{"seasons", joinStrings(d.Selection.Seasons), nil},
	})
}

func writeHourly(b *sheetBuilder, rows []models.HourUsage) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{r.Hour, r.Casual, r.Registered, r.Total}
	}
	b.table(SheetHourly, usageHeader("hr"), out)
}

func writeWeekday(b *sheetBuilder, rows []models.WeekdayUsage) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{int(r.Weekday), r.DayName, r.Casual, r.Registered, r.Total}
	}
	b.table(SheetWeekday, usageHeader("weekday", "day_name"), out)
}

func writeMonthly(b *sheetBuilder, rows []models.MonthUsage) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{int(r.Month), r.MonthName, r.Casual, r.Registered, r.Total}
	}
	b.table(SheetMonthly, usageHeader("mnth", "month_name"), out)
}

func writeSeason(b *sheetBuilder, rows []models.SeasonUsage) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{r.Season, r.Casual, r.Registered, r.Total}
	}
	b.table(SheetSeason, usageHeader("season_desc"), out)
}

func writeWeather(b *sheetBuilder, rows []models.WeatherUsage) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{r.Weather, r.Casual, r.Registered, r.Total, nullable(r.CasualRatio)}
	}
	b.table(SheetWeather, append(usageHeader("weather_desc"), "casual_ratio"), out)
}

func writeSeasonWeather(b *sheetBuilder, m models.RatioMatrix) {
	header := []interface{}{"season_desc"}
	for _, w := range m.Weathers {
		header = append(header, w)
	}
	out := make([][]interface{}, len(m.Seasons))
	for i, season := range m.Seasons {
		row := []interface{}{season}
		for _, v := range m.Values[i] {
			row = append(row, nullable(v))
		}
		out[i] = row
	}
	b.table(SheetSeasonWeather, header, out)
}

func writeCorrelation(b *sheetBuilder, m models.CorrelationMatrix) {
	header := []interface{}{""}
	for _, c := range m.Columns {
		header = append(header, c)
	}
	out := make([][]interface{}, len(m.Columns))
	for i, name := range m.Columns {
		row := []interface{}{name}
		for _, v := range m.Values[i] {
			row = append(row, nullable(v))
		}
		out[i] = row
	}
	b.table(SheetCorrelation, header, out)
}

func writeSample(b *sheetBuilder, rows []models.SamplePoint) {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = []interface{}{r.Temperature, r.Casual, r.Registered}
	}
	b.table(SheetSample, []interface{}{"temp_actual", "casual", "registered"}, out)
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func joinStrings(values []string) string {
	return strings.Join(values, ",")
}
