package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bikeshare-dashboard/internal/analysis"
	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/internal/repository"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

// View names accepted by BuildView
const (
	ViewHourly        = "hourly"
	ViewWeekday       = "weekday"
	ViewMonthly       = "monthly"
	ViewSeason        = "season"
	ViewWeather       = "weather"
	ViewSeasonWeather = "season-weather"
	ViewCorrelation   = "correlation"
	ViewSample        = "sample"
)

// Views lists every view name in dashboard order
var Views = []string{
	ViewHourly, ViewWeekday, ViewMonthly, ViewSeason,
	ViewWeather, ViewSeasonWeather, ViewCorrelation, ViewSample,
}

// ErrUnknownView is returned for a view name outside Views
var ErrUnknownView = errors.New("unknown view")

// Settings tune presentation details of the dashboard
type Settings struct {
	Locale     *models.Locale
	SampleSize int
	SampleSeed int64
}

// DashboardService computes dashboards from the dataset loaded at startup.
// The dataset is never modified, so one service serves concurrent requests.
type DashboardService struct {
	dataset  *models.Dataset
	loadErr  error
	options  models.FilterOptions
	settings Settings
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewDashboardService wraps the result of the startup load. When loadErr is
// set, or dataset is nil, every computation reports the source as unavailable.
func NewDashboardService(dataset *models.Dataset, loadErr error, settings Settings, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	if settings.Locale == nil {
		settings.Locale = models.DefaultLocale()
	}
	if settings.SampleSize <= 0 {
		settings.SampleSize = analysis.DefaultSampleSize
	}

	s := &DashboardService{
		dataset:  dataset,
		loadErr:  loadErr,
		settings: settings,
		logger:   logger,
		metrics:  metricsCollector,
	}

	if s.loadErr == nil && s.dataset == nil {
		s.loadErr = &repository.SourceUnavailableError{Source: "none", Err: errors.New("no dataset loaded")}
	}
	if s.loadErr == nil {
		opts, err := analysis.Options(dataset)
		if err != nil {
			s.loadErr = &repository.SourceUnavailableError{Source: "dataset", Err: err}
		} else {
			s.options = opts
		}
	}

	return s
}

// Available returns nil when data is loaded, otherwise the load error
func (s *DashboardService) Available() error {
	return s.loadErr
}

// Locale returns the display locale
func (s *DashboardService) Locale() *models.Locale {
	return s.settings.Locale
}

// FilterOptions lists the years and seasons a selection may draw from
func (s *DashboardService) FilterOptions(ctx context.Context) (models.FilterOptions, error) {
	if s.loadErr != nil {
		return models.FilterOptions{}, s.loadErr
	}
	return s.options, nil
}

// DefaultSelection selects every available year and season
func (s *DashboardService) DefaultSelection() models.FilterSelection {
	return s.options.Default()
}

// Build runs the filter, all eight aggregations and the metric stage for one
// selection
func (s *DashboardService) Build(ctx context.Context, sel models.FilterSelection) (*models.Dashboard, error) {
	startTime := time.Now()

	filtered, err := s.filter(ctx, sel)
	if err != nil {
		s.recordOutcome(err)
		return nil, err
	}

	dashboard, err := s.computeViews(ctx, filtered, sel, Views)
	if err != nil {
		s.recordOutcome(err)
		return nil, err
	}

	dashboard.Metrics, err = s.computeMetrics(filtered)
	if err != nil {
		s.recordOutcome(err)
		s.logger.Error(ctx, "[DASHBOARD_BUILD_ERROR] Metric stage failed", logging.Fields{}, err)
		return nil, err
	}
	dashboard.KPIs = s.FormatKPIs(dashboard.Metrics)

	s.recordOutcome(nil)
	s.logger.Debug(ctx, "[DASHBOARD_BUILD_COMPLETE] Dashboard computed", logging.Fields{
		"years":       sel.Years,
		"seasons":     sel.Seasons,
		"hourly_rows": dashboard.HourlyRows,
		"daily_rows":  dashboard.DailyRows,
		"duration_ms": time.Since(startTime).Milliseconds(),
	})

	return dashboard, nil
}

// BuildViews computes only the named views on an otherwise empty dashboard.
// Metrics and KPIs are left zero. Chart requests use it so one image does
// not pay for the whole dashboard.
func (s *DashboardService) BuildViews(ctx context.Context, sel models.FilterSelection, views ...string) (*models.Dashboard, error) {
	for _, view := range views {
		if !knownView(view) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownView, view)
		}
	}

	filtered, err := s.filter(ctx, sel)
	if err != nil {
		return nil, err
	}
	return s.computeViews(ctx, filtered, sel, views)
}

// BuildView computes a single view. The returned value is the view's row
// slice or matrix as stored on models.Dashboard.
func (s *DashboardService) BuildView(ctx context.Context, sel models.FilterSelection, view string) (interface{}, error) {
	if !knownView(view) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, view)
	}

	filtered, err := s.filter(ctx, sel)
	if err != nil {
		return nil, err
	}

	var dashboard models.Dashboard
	if err := s.computeView(filtered, view, &dashboard); err != nil {
		s.logger.Error(ctx, "[VIEW_BUILD_ERROR] Aggregation failed", logging.Fields{
			"view": view,
		}, err)
		return nil, err
	}

	switch view {
	case ViewHourly:
		return dashboard.ByHour, nil
	case ViewWeekday:
		return dashboard.ByWeekday, nil
	case ViewMonthly:
		return dashboard.ByMonth, nil
	case ViewSeason:
		return dashboard.BySeason, nil
	case ViewWeather:
		return dashboard.ByWeather, nil
	case ViewSeasonWeather:
		return dashboard.SeasonWeatherRatio, nil
	case ViewCorrelation:
		return dashboard.Correlation, nil
	default:
		return dashboard.Sample, nil
	}
}

// Summary runs only the metric stage
func (s *DashboardService) Summary(ctx context.Context, sel models.FilterSelection) (models.Metrics, models.KPIs, error) {
	filtered, err := s.filter(ctx, sel)
	if err != nil {
		return models.Metrics{}, models.KPIs{}, err
	}

	m, err := s.computeMetrics(filtered)
	if err != nil {
		return models.Metrics{}, models.KPIs{}, err
	}
	return m, s.FormatKPIs(m), nil
}

// FormatKPIs renders metrics for display. Undefined values show as "-".
func (s *DashboardService) FormatKPIs(m models.Metrics) models.KPIs {
	loc := s.settings.Locale
	kpis := models.KPIs{
		TotalRentals:     loc.FormatCount(m.TotalRentals),
		CasualPercentage: loc.FormatPercent(m.CasualPercentage),
		PeakMonth:        "-",
		PeakHour:         "-",
	}
	if m.PeakMonth != nil {
		kpis.PeakMonth = m.PeakMonth.LongName(loc)
	}
	if m.PeakHour != nil {
		kpis.PeakHour = fmt.Sprintf("%d:00", *m.PeakHour)
	}
	return kpis
}

func (s *DashboardService) filter(ctx context.Context, sel models.FilterSelection) (*models.Dataset, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.options.Validate(sel); err != nil {
		return nil, err
	}

	timer := s.metrics.StageTimer("filter")
	filtered := analysis.FilterDataset(s.dataset, sel)
	timer.ObserveDuration()

	if filtered.Hourly.Err != nil {
		return nil, fmt.Errorf("failed to filter hourly table: %w", filtered.Hourly.Err)
	}
	if filtered.Daily.Err != nil {
		return nil, fmt.Errorf("failed to filter daily table: %w", filtered.Daily.Err)
	}

	s.metrics.RecordFilteredRows(filtered.Hourly.Nrow(), filtered.Daily.Nrow())
	if sel.SelectsNothing() {
		s.logger.Debug(ctx, "[FILTER_EMPTY] Selection matches no rows", logging.Fields{
			"years":   len(sel.Years),
			"seasons": len(sel.Seasons),
		})
	}
	return filtered, nil
}

func (s *DashboardService) computeViews(ctx context.Context, filtered *models.Dataset, sel models.FilterSelection, views []string) (*models.Dashboard, error) {
	dashboard := &models.Dashboard{
		Selection:  sel,
		HourlyRows: filtered.Hourly.Nrow(),
		DailyRows:  filtered.Daily.Nrow(),
	}
	for _, view := range views {
		if err := s.computeView(filtered, view, dashboard); err != nil {
			s.logger.Error(ctx, "[DASHBOARD_BUILD_ERROR] Aggregation failed", logging.Fields{
				"view": view,
			}, err)
			return nil, err
		}
	}
	return dashboard, nil
}

func (s *DashboardService) computeView(filtered *models.Dataset, view string, d *models.Dashboard) error {
	timer := s.metrics.StageTimer(view)
	defer timer.ObserveDuration()

	var err error
	switch view {
	case ViewHourly:
		d.ByHour, err = analysis.ByHour(filtered.Hourly)
	case ViewWeekday:
		d.ByWeekday, err = analysis.ByWeekday(filtered.Hourly, s.settings.Locale)
	case ViewMonthly:
		d.ByMonth, err = analysis.ByMonth(filtered.Daily, s.settings.Locale)
	case ViewSeason:
		d.BySeason, err = analysis.BySeason(filtered.Daily)
	case ViewWeather:
		d.ByWeather, err = analysis.ByWeather(filtered.Hourly)
	case ViewSeasonWeather:
		d.SeasonWeatherRatio, err = analysis.SeasonWeatherRatio(filtered.Hourly)
	case ViewCorrelation:
		d.Correlation, err = analysis.Correlation(filtered.Hourly)
	case ViewSample:
		d.Sample, err = analysis.Sample(filtered.Hourly, s.settings.SampleSize, s.settings.SampleSeed)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownView, view)
	}
	if err != nil {
		return fmt.Errorf("failed to compute %s view: %w", view, err)
	}
	return nil
}

func (s *DashboardService) computeMetrics(filtered *models.Dataset) (models.Metrics, error) {
	timer := s.metrics.StageTimer("metrics")
	defer timer.ObserveDuration()

	m, err := analysis.ComputeMetrics(filtered.Daily, filtered.Hourly)
	if err != nil {
		return models.Metrics{}, fmt.Errorf("failed to compute metrics: %w", err)
	}
	return m, nil
}

func (s *DashboardService) recordOutcome(err error) {
	outcome := "success"
	var vErr *models.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &vErr):
		outcome = "invalid_selection"
	case repository.IsSourceUnavailable(err):
		outcome = "unavailable"
	default:
		outcome = "error"
	}
	s.metrics.DashboardBuildTotal.WithLabelValues(outcome).Inc()
}

func knownView(view string) bool {
	for _, v := range Views {
		if v == view {
			return true
		}
	}
	return false
}
