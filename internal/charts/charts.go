// Package charts renders dashboard views as PNG images with gonum/plot.
package charts

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

// Chart names accepted by Render
const (
	ChartHourly        = "hourly"
	ChartWeekday       = "weekday"
	ChartMonthly       = "monthly"
	ChartSeason        = "season"
	ChartWeather       = "weather"
	ChartCasualRatio   = "casual-ratio"
	ChartCorrelation   = "correlation"
	ChartTemperature   = "temperature"
	ChartSeasonWeather = "season-weather"
)

// Charts lists every chart in page order
var Charts = []string{
	ChartHourly, ChartWeekday, ChartMonthly, ChartSeason, ChartWeather,
	ChartCasualRatio, ChartCorrelation, ChartTemperature, ChartSeasonWeather,
}

// ErrUnknownChart is returned for a chart name outside Charts
var ErrUnknownChart = errors.New("unknown chart")

// Default image size
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 4.5 * vg.Inch
)

var (
	colorTotal      = color.RGBA{R: 0x00, G: 0x88, B: 0xFE, A: 0xFF}
	colorRegistered = color.RGBA{R: 0x00, G: 0xC4, B: 0x9F, A: 0xFF}
	colorCasual     = color.RGBA{R: 0xFF, G: 0xBB, B: 0x28, A: 0xFF}
	colorMissing    = color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}
)

var barWidth = vg.Points(20)

// Renderer draws charts for one locale
type Renderer struct {
	locale  *models.Locale
	width   vg.Length
	height  vg.Length
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRenderer creates a chart renderer with the default image size
func NewRenderer(locale *models.Locale, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Renderer {
	if locale == nil {
		locale = models.DefaultLocale()
	}
	return &Renderer{
		locale:  locale,
		width:   DefaultWidth,
		height:  DefaultHeight,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Known reports whether chart names a renderable chart
func Known(chart string) bool {
	for _, c := range Charts {
		if c == chart {
			return true
		}
	}
	return false
}

// Render writes the named chart of d to w as a PNG image
func (r *Renderer) Render(ctx context.Context, w io.Writer, chart string, d *models.Dashboard) error {
	if !Known(chart) {
		return fmt.Errorf("%w: %s", ErrUnknownChart, chart)
	}
	if d == nil {
		return fmt.Errorf("no dashboard to render %s", chart)
	}

	timer := r.metrics.NewTimer(r.metrics.ChartRenderDuration.WithLabelValues(chart))
	defer timer.ObserveDuration()

	p, err := r.Plot(chart, d)
	if err != nil {
		r.logger.Error(ctx, "[CHART_RENDER_ERROR] Failed to build chart", logging.Fields{
			"chart": chart,
		}, err)
		return err
	}

	wt, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return fmt.Errorf("failed to encode %s chart: %w", chart, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s chart: %w", chart, err)
	}
	return nil
}

// Plot builds the plot for a chart without encoding it
func (r *Renderer) Plot(chart string, d *models.Dashboard) (*plot.Plot, error) {
	switch chart {
	case ChartHourly:
		return r.hourly(d.ByHour)
	case ChartWeekday:
		return r.weekday(d.ByWeekday)
	case ChartMonthly:
		return r.monthly(d.ByMonth)
	case ChartSeason:
		return r.season(d.BySeason)
	case ChartWeather:
		return r.weather(d.ByWeather)
	case ChartCasualRatio:
		return r.casualRatio(d.ByWeather)
	case ChartCorrelation:
		return r.correlation(d.Correlation)
	case ChartTemperature:
		return r.temperature(d.Sample)
	case ChartSeasonWeather:
		return r.seasonWeather(d.SeasonWeatherRatio)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownChart, chart)
	}
}

func (r *Renderer) newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	return p
}

// placeholder is drawn for views with no rows
func (r *Renderer) placeholder(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.HideAxes()
	return p
}

func (r *Renderer) hourly(rows []models.HourUsage) (*plot.Plot, error) {
	labels := r.locale.Labels
	title := labels.Rentals + " / " + labels.Hour
	if len(rows) == 0 {
		return r.placeholder(title), nil
	}

	p := r.newPlot(title, labels.Hour, labels.Rentals)
	p.Add(plotter.NewGrid())

	series := []struct {
		name  string
		color color.Color
		value func(models.UsageTotals) int64
	}{
		{labels.Total, colorTotal, func(u models.UsageTotals) int64 { return u.Total }},
		{labels.Registered, colorRegistered, func(u models.UsageTotals) int64 { return u.Registered }},
		{labels.Casual, colorCasual, func(u models.UsageTotals) int64 { return u.Casual }},
	}
	for _, s := range series {
		pts := make(plotter.XYs, len(rows))
		for i, row := range rows {
			pts[i].X = float64(row.Hour)
			pts[i].Y = float64(s.value(row.UsageTotals))
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = s.color
		line.Width = vg.Points(2)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	return p, nil
}

func (r *Renderer) monthly(rows []models.MonthUsage) (*plot.Plot, error) {
	labels := r.locale.Labels
	title := labels.Rentals + " / " + labels.Month
	if len(rows) == 0 {
		return r.placeholder(title), nil
	}

	p := r.newPlot(title, labels.Month, labels.Rentals)
	p.Add(plotter.NewGrid())

	names := make([]string, len(rows))
	total := make(plotter.XYs, len(rows))
	registered := make(plotter.XYs, len(rows))
	casual := make(plotter.XYs, len(rows))
	for i, row := range rows {
		names[i] = row.MonthName
		x := float64(i)
		total[i] = plotter.XY{X: x, Y: float64(row.Total)}
		registered[i] = plotter.XY{X: x, Y: float64(row.Registered)}
		casual[i] = plotter.XY{X: x, Y: float64(row.Casual)}
	}

	for _, s := range []struct {
		name  string
		color color.Color
		pts   plotter.XYs
	}{
		{labels.Total, colorTotal, total},
		{labels.Registered, colorRegistered, registered},
		{labels.Casual, colorCasual, casual},
	} {
		line, points, err := plotter.NewLinePoints(s.pts)
		if err != nil {
			return nil, err
		}
		line.Color = s.color
		line.Width = vg.Points(2)
		points.Color = s.color
		points.Shape = draw.CircleGlyph{}
		p.Add(line, points)
		p.Legend.Add(s.name, line, points)
	}
	p.NominalX(names...)
	return p, nil
}

// stacked draws registered bars with casual stacked on top
func (r *Renderer) stacked(title, xLabel string, names []string, registered, casual plotter.Values) (*plot.Plot, error) {
	if len(names) == 0 {
		return r.placeholder(title), nil
	}

	p := r.newPlot(title, xLabel, r.locale.Labels.Rentals)

	regBars, err := plotter.NewBarChart(registered, barWidth)
	if err != nil {
		return nil, err
	}
	regBars.Color = colorRegistered
	regBars.LineStyle.Width = vg.Length(0)

	casBars, err := plotter.NewBarChart(casual, barWidth)
	if err != nil {
		return nil, err
	}
	casBars.Color = colorCasual
	casBars.LineStyle.Width = vg.Length(0)
	casBars.StackOn(regBars)

	p.Add(plotter.NewGrid(), regBars, casBars)
	p.Legend.Add(r.locale.Labels.Registered, regBars)
	p.Legend.Add(r.locale.Labels.Casual, casBars)
	p.NominalX(names...)
	return p, nil
}

func (r *Renderer) weekday(rows []models.WeekdayUsage) (*plot.Plot, error) {
	names := make([]string, len(rows))
	registered := make(plotter.Values, len(rows))
	casual := make(plotter.Values, len(rows))
	for i, row := range rows {
		names[i] = row.DayName
		registered[i] = float64(row.Registered)
		casual[i] = float64(row.Casual)
	}
	labels := r.locale.Labels
	return r.stacked(labels.Rentals+" / "+labels.Day, labels.Day, names, registered, casual)
}

func (r *Renderer) season(rows []models.SeasonUsage) (*plot.Plot, error) {
	names := make([]string, len(rows))
	registered := make(plotter.Values, len(rows))
	casual := make(plotter.Values, len(rows))
	for i, row := range rows {
		names[i] = row.Season
		registered[i] = float64(row.Registered)
		casual[i] = float64(row.Casual)
	}
	labels := r.locale.Labels
	return r.stacked(labels.Rentals+" / "+labels.Season, labels.Season, names, registered, casual)
}

func (r *Renderer) weather(rows []models.WeatherUsage) (*plot.Plot, error) {
	names := make([]string, len(rows))
	registered := make(plotter.Values, len(rows))
	casual := make(plotter.Values, len(rows))
	for i, row := range rows {
		names[i] = row.Weather
		registered[i] = float64(row.Registered)
		casual[i] = float64(row.Casual)
	}
	labels := r.locale.Labels
	return r.stacked(labels.Rentals+" / "+labels.Weather, labels.Weather, names, registered, casual)
}

func (r *Renderer) casualRatio(rows []models.WeatherUsage) (*plot.Plot, error) {
	labels := r.locale.Labels
	title := labels.CasualRatio + " / " + labels.Weather
	if len(rows) == 0 {
		return r.placeholder(title), nil
	}

	names := make([]string, len(rows))
	ratios := make(plotter.Values, len(rows))
	for i, row := range rows {
		names[i] = row.Weather
		if row.CasualRatio.Valid() {
			ratios[i] = float64(row.CasualRatio)
		}
	}

	p := r.newPlot(title, labels.Weather, labels.CasualRatio)
	bars, err := plotter.NewBarChart(ratios, barWidth)
	if err != nil {
		return nil, err
	}
	bars.Color = colorCasual
	bars.LineStyle.Width = vg.Length(0)

	p.Add(plotter.NewGrid(), bars)
	p.NominalX(names...)
	return p, nil
}

func (r *Renderer) temperature(sample []models.SamplePoint) (*plot.Plot, error) {
	labels := r.locale.Labels
	title := labels.Rentals + " / " + labels.Temperature
	if len(sample) == 0 {
		return r.placeholder(title), nil
	}

	p := r.newPlot(title, labels.Temperature, labels.Rentals)
	p.Add(plotter.NewGrid())

	casual := make(plotter.XYs, len(sample))
	registered := make(plotter.XYs, len(sample))
	for i, pt := range sample {
		casual[i] = plotter.XY{X: pt.Temperature, Y: float64(pt.Casual)}
		registered[i] = plotter.XY{X: pt.Temperature, Y: float64(pt.Registered)}
	}

	for _, s := range []struct {
		name  string
		color color.Color
		pts   plotter.XYs
	}{
		{labels.Registered, colorRegistered, registered},
		{labels.Casual, colorCasual, casual},
	} {
		scatter, err := plotter.NewScatter(s.pts)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = s.color
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add(s.name, scatter)
	}
	return p, nil
}

func (r *Renderer) correlation(m models.CorrelationMatrix) (*plot.Plot, error) {
	title := r.locale.Labels.Correlation
	if len(m.Columns) == 0 {
		return r.placeholder(title), nil
	}

	p := r.newPlot(title, "", "")
	pal := moreland.SmoothBlueRed().Palette(255)
	if err := addMatrix(p, m.Values, pal, -1, 1); err != nil {
		return nil, err
	}
	p.NominalX(m.Columns...)
	p.NominalY(m.Columns...)
	return p, nil
}

func (r *Renderer) seasonWeather(m models.RatioMatrix) (*plot.Plot, error) {
	labels := r.locale.Labels
	title := labels.CasualRatio + ": " + labels.Season + " × " + labels.Weather
	if len(m.Seasons) == 0 || len(m.Weathers) == 0 {
		return r.placeholder(title), nil
	}

	p := r.newPlot(title, labels.Weather, labels.Season)
	if err := addMatrix(p, m.Values, palette.Heat(12, 1), 0, 1); err != nil {
		return nil, err
	}
	p.NominalX(m.Weathers...)
	p.NominalY(m.Seasons...)
	return p, nil
}

// addMatrix draws values as a heat map over a fixed colour range and prints
// each defined cell with three decimals
func addMatrix(p *plot.Plot, values [][]models.NullableFloat, pal palette.Palette, lo, hi float64) error {
	grid := matrixGrid(values)
	heat := plotter.NewHeatMap(grid, pal)
	heat.Min = lo
	heat.Max = hi
	heat.NaN = colorMissing
	p.Add(heat)

	var cells plotter.XYLabels
	for i, row := range values {
		for j, v := range row {
			if !v.Valid() {
				continue
			}
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(j), Y: float64(i)})
			cells.Labels = append(cells.Labels, fmt.Sprintf("%.3f", float64(v)))
		}
	}
	if len(cells.XYs) == 0 {
		return nil
	}

	text, err := plotter.NewLabels(cells)
	if err != nil {
		return err
	}
	for i := range text.TextStyle {
		text.TextStyle[i].XAlign = draw.XCenter
		text.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(text)
	return nil
}

// matrixGrid adapts a row-major matrix to plotter.GridXYZ. Rows map to Y and
// columns to X, both at integer positions so nominal tick labels line up.
type matrixGrid [][]models.NullableFloat

func (g matrixGrid) Dims() (c, r int) {
	if len(g) == 0 {
		return 0, 0
	}
	return len(g[0]), len(g)
}

func (g matrixGrid) Z(c, r int) float64 { return float64(g[r][c]) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }
