package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"bikeshare-dashboard/internal/charts"
	"bikeshare-dashboard/internal/export"
	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/internal/repository"
	"bikeshare-dashboard/internal/services"
	"bikeshare-dashboard/pkg/logging"
	"bikeshare-dashboard/pkg/metrics"
)

// Query parameters carrying the selection
const (
	ParamYears   = "years"
	ParamSeasons = "seasons"
)

// DashboardHandler handles dashboard API endpoints
type DashboardHandler struct {
	service  *services.DashboardService
	renderer *charts.Renderer
	exporter *export.Exporter
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service *services.DashboardService,
	renderer *charts.Renderer,
	exporter *export.Exporter,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		renderer: renderer,
		exporter: exporter,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// FiltersResponse lists the selectable values and the default selection
type FiltersResponse struct {
	Options models.FilterOptions   `json:"options"`
	Default models.FilterSelection `json:"default"`
}

// SummaryResponse carries the metric stage alone
type SummaryResponse struct {
	Selection models.FilterSelection `json:"selection"`
	Metrics   models.Metrics         `json:"metrics"`
	KPIs      models.KPIs            `json:"kpis"`
}

// ViewResponse wraps a single view
type ViewResponse struct {
	View      string                 `json:"view"`
	Selection models.FilterSelection `json:"selection"`
	Data      interface{}            `json:"data"`
}

// HealthResponse reports whether data is being served
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message,omitempty"`
}

// GetFilters handles GET /api/filters
func (h *DashboardHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := h.service.FilterOptions(r.Context())
	if err != nil {
		h.handleError(w, r, "/api/filters", err)
		return
	}
	h.sendJSON(w, FiltersResponse{Options: opts, Default: opts.Default()}, http.StatusOK)
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sel, err := h.selection(ctx, r.URL.Query())
	if err != nil {
		h.handleError(w, r, "/api/dashboard", err)
		return
	}

	dashboard, err := h.service.Build(ctx, sel)
	if err != nil {
		h.handleError(w, r, "/api/dashboard", err)
		return
	}
	h.sendJSON(w, dashboard, http.StatusOK)
}

// GetView handles GET /api/views/{view}
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	view := mux.Vars(r)["view"]

	sel, err := h.selection(ctx, r.URL.Query())
	if err != nil {
		h.handleError(w, r, "/api/views", err)
		return
	}

	data, err := h.service.BuildView(ctx, sel, view)
	if err != nil {
		h.handleError(w, r, "/api/views", err)
		return
	}
	h.sendJSON(w, ViewResponse{View: view, Selection: sel, Data: data}, http.StatusOK)
}

// GetSummary handles GET /api/metrics/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sel, err := h.selection(ctx, r.URL.Query())
	if err != nil {
		h.handleError(w, r, "/api/metrics/summary", err)
		return
	}

	m, kpis, err := h.service.Summary(ctx, sel)
	if err != nil {
		h.handleError(w, r, "/api/metrics/summary", err)
		return
	}
	h.sendJSON(w, SummaryResponse{Selection: sel, Metrics: m, KPIs: kpis}, http.StatusOK)
}

// chartViews names the view each chart is drawn from
var chartViews = map[string]string{
	charts.ChartHourly:        services.ViewHourly,
	charts.ChartWeekday:       services.ViewWeekday,
	charts.ChartMonthly:       services.ViewMonthly,
	charts.ChartSeason:        services.ViewSeason,
	charts.ChartWeather:       services.ViewWeather,
	charts.ChartCasualRatio:   services.ViewWeather,
	charts.ChartCorrelation:   services.ViewCorrelation,
	charts.ChartTemperature:   services.ViewSample,
	charts.ChartSeasonWeather: services.ViewSeasonWeather,
}

// GetChart handles GET /api/charts/{chart}.png
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	chart := mux.Vars(r)["chart"]

	if !charts.Known(chart) {
		h.handleError(w, r, "/api/charts", charts.ErrUnknownChart)
		return
	}

	sel, err := h.selection(ctx, r.URL.Query())
	if err != nil {
		h.handleError(w, r, "/api/charts", err)
		return
	}

	dashboard, err := h.service.BuildViews(ctx, sel, chartViews[chart])
	if err != nil {
		h.handleError(w, r, "/api/charts", err)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(ctx, &buf, chart, dashboard); err != nil {
		h.handleError(w, r, "/api/charts", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// ExportWorkbook handles GET /api/export.xlsx
func (h *DashboardHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sel, err := h.selection(ctx, r.URL.Query())
	if err != nil {
		h.handleError(w, r, "/api/export.xlsx", err)
		return
	}

	dashboard, err := h.service.Build(ctx, sel)
	if err != nil {
		h.handleError(w, r, "/api/export.xlsx", err)
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Write(ctx, &buf, dashboard); err != nil {
		h.handleError(w, r, "/api/export.xlsx", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bike-sharing-dashboard.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// HealthCheck handles GET /health. A server whose data failed to load keeps
// answering but reports itself degraded.
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := h.service.Available(); err != nil {
		status.Status = "degraded"
		status.Message = err.Error()
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{
		"status": status.Status,
	})
	h.sendJSON(w, status, http.StatusOK)
}

// selection reads the years and seasons parameters. An absent parameter
// selects every available value, a present but empty one selects nothing.
func (h *DashboardHandler) selection(ctx context.Context, q url.Values) (models.FilterSelection, error) {
	if err := h.service.Available(); err != nil {
		return models.FilterSelection{}, err
	}
	def := h.service.DefaultSelection()

	years := def.Years
	if raw, ok := q[ParamYears]; ok {
		parsed, err := models.ParseYearList(strings.Join(raw, ","))
		if err != nil {
			return models.FilterSelection{}, err
		}
		years = parsed
	}

	seasons := def.Seasons
	if raw, ok := q[ParamSeasons]; ok {
		seasons = models.ParseSeasonValues(raw)
	}

	sel := models.NewFilterSelection(years, seasons)
	h.logger.Debug(ctx, "[SELECTION] Parsed selection", logging.Fields{
		"years":   sel.Years,
		"seasons": sel.Seasons,
	})
	return sel, nil
}

// SelectionQuery encodes a selection as query parameters accepted by the API
func SelectionQuery(sel models.FilterSelection) url.Values {
	years := make([]string, len(sel.Years))
	for i, y := range sel.Years {
		years[i] = strconv.Itoa(y)
	}
	// Seasons go out as repeated values. A lone label holding a comma gets a
	// blank companion so it is not read back as a list.
	seasons := append([]string{}, sel.Seasons...)
	switch {
	case len(seasons) == 0:
		seasons = []string{""}
	case len(seasons) == 1 && strings.Contains(seasons[0], ","):
		seasons = append(seasons, "")
	}
	return url.Values{
		ParamYears:   {strings.Join(years, ",")},
		ParamSeasons: seasons,
	}
}

// handleError maps service errors to status codes
func (h *DashboardHandler) handleError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	ctx := r.Context()

	var vErr *models.ValidationError
	switch {
	case errors.As(err, &vErr):
		h.metrics.RecordAPIError("invalid_selection", endpoint)
		h.sendError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrUnknownView), errors.Is(err, charts.ErrUnknownChart):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, err.Error(), http.StatusNotFound)
	case repository.IsSourceUnavailable(err):
		h.metrics.RecordAPIError("source_unavailable", endpoint)
		h.sendError(w, h.service.Locale().Labels.DataUnavailable, http.StatusServiceUnavailable)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.metrics.RecordAPIError("cancelled", endpoint)
		h.sendError(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		h.logger.Error(ctx, "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
			"query":    r.URL.RawQuery,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, "failed to compute dashboard", http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}
	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all dashboard routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.Index).Methods("GET")
	router.HandleFunc("/api/filters", h.GetFilters).Methods("GET")
	router.HandleFunc("/api/dashboard", h.GetDashboard).Methods("GET")
	router.HandleFunc("/api/views/{view}", h.GetView).Methods("GET")
	router.HandleFunc("/api/metrics/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/api/charts/{chart}.png", h.GetChart).Methods("GET")
	router.HandleFunc("/api/export.xlsx", h.ExportWorkbook).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
