package charts

import (
	"bytes"
	"context"
	"image/png"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

func fullDashboard() *models.Dashboard {
	nan := models.Undefined()
	return &models.Dashboard{
		ByHour: []models.HourUsage{
			{Hour: 0, UsageTotals: models.UsageTotals{Casual: 3, Registered: 13, Total: 16}},
			{Hour: 8, UsageTotals: models.UsageTotals{Casual: 10, Registered: 300, Total: 310}},
			{Hour: 17, UsageTotals: models.UsageTotals{Casual: 150, Registered: 1150, Total: 1300}},
		},
		ByWeekday: []models.WeekdayUsage{
			{Weekday: models.Monday, DayName: "Senin", UsageTotals: models.UsageTotals{Casual: 60, Registered: 540, Total: 600}},
			{Weekday: models.Sunday, DayName: "Minggu", UsageTotals: models.UsageTotals{Casual: 90, Registered: 610, Total: 700}},
		},
		ByMonth: []models.MonthUsage{
			{Month: models.January, MonthName: "Jan", UsageTotals: models.UsageTotals{Casual: 331, Registered: 654, Total: 985}},
			{Month: models.July, MonthName: "Jul", UsageTotals: models.UsageTotals{Casual: 2200, Registered: 10800, Total: 13000}},
		},
		BySeason: []models.SeasonUsage{
			{Season: "Fall", UsageTotals: models.UsageTotals{Casual: 2200, Registered: 10800, Total: 13000}},
			{Season: "Spring", UsageTotals: models.UsageTotals{Casual: 331, Registered: 654, Total: 985}},
		},
		ByWeather: []models.WeatherUsage{
			{Weather: "Clear", UsageTotals: models.UsageTotals{Casual: 101, Registered: 655, Total: 756}, CasualRatio: 0.17},
			{Weather: "Mist", UsageTotals: models.UsageTotals{Casual: 60, Registered: 540, Total: 600}, CasualRatio: 0.1},
		},
		SeasonWeatherRatio: models.RatioMatrix{
			Seasons:  []string{"Fall", "Spring"},
			Weathers: []string{"Clear", "Mist"},
			Values: [][]models.NullableFloat{
				{0.13, 0.1},
				{0.19, nan},
			},
		},
		Correlation: models.CorrelationMatrix{
			Columns: []string{"temp_actual", "cnt"},
			Values: [][]models.NullableFloat{
				{1, 0.62},
				{0.62, 1},
			},
		},
		Sample: []models.SamplePoint{
			{Temperature: 9.8, Casual: 3, Registered: 13},
			{Temperature: 30.5, Casual: 60, Registered: 540},
		},
	}
}

func emptyDashboard() *models.Dashboard {
	return &models.Dashboard{
		ByHour:    []models.HourUsage{},
		ByWeekday: []models.WeekdayUsage{},
		ByMonth:   []models.MonthUsage{},
		BySeason:  []models.SeasonUsage{},
		ByWeather: []models.WeatherUsage{},
		Sample:    []models.SamplePoint{},
	}
}

func TestRenderer_Render(t *testing.T) {
	tests := []struct {
		name      string
		dashboard *models.Dashboard
	}{
		{name: "populated views", dashboard: fullDashboard()},
		{name: "empty selection", dashboard: emptyDashboard()},
	}

	for _, tt := range tests {
		for _, chart := range Charts {
			t.Run(tt.name+"/"+chart, func(t *testing.T) {
				collector := metrics.NewCollector("test")
				renderer := NewRenderer(models.DefaultLocale(), logging.NewDiscardLogger(), collector)

				var buf bytes.Buffer
				require.NoError(t, renderer.Render(context.Background(), &buf, chart, tt.dashboard))

				img, err := png.Decode(bytes.NewReader(buf.Bytes()))
				require.NoError(t, err)
				assert.Greater(t, img.Bounds().Dx(), 0)
				assert.Equal(t, 1, testutil.CollectAndCount(collector.ChartRenderDuration))
			})
		}
	}
}

func TestRenderer_UndefinedCorrelation(t *testing.T) {
	nan := models.Undefined()
	d := &models.Dashboard{
		Correlation: models.CorrelationMatrix{
			Columns: []string{"temp_actual", "cnt"},
			Values:  [][]models.NullableFloat{{nan, nan}, {nan, nan}},
		},
	}
	renderer := NewRenderer(nil, logging.NewDiscardLogger(), metrics.NewCollector("test"))

	var buf bytes.Buffer
	require.NoError(t, renderer.Render(context.Background(), &buf, ChartCorrelation, d))
	assert.NotZero(t, buf.Len())
}

func TestRenderer_Errors(t *testing.T) {
	renderer := NewRenderer(models.DefaultLocale(), logging.NewDiscardLogger(), metrics.NewCollector("test"))

	var buf bytes.Buffer
	err := renderer.Render(context.Background(), &buf, "pie", fullDashboard())
	assert.ErrorIs(t, err, ErrUnknownChart)

	err = renderer.Render(context.Background(), &buf, ChartHourly, nil)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(ChartSeasonWeather))
	assert.False(t, Known("histogram"))
}

func TestPlot_Titles(t *testing.T) {
	renderer := NewRenderer(models.DefaultLocale(), logging.NewDiscardLogger(), metrics.NewCollector("test"))

	p, err := renderer.Plot(ChartHourly, fullDashboard())
	require.NoError(t, err)
	assert.Equal(t, "Jumlah Penyewaan / Jam", p.Title.Text)
	assert.Equal(t, "Jam", p.X.Label.Text)

	p, err = renderer.Plot(ChartCorrelation, fullDashboard())
	require.NoError(t, err)
	assert.Equal(t, "Korelasi", p.Title.Text)
}
