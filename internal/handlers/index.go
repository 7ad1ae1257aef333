package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"

	"bikeshare-dashboard/internal/charts"
	"bikeshare-dashboard/internal/models"
	"bikeshare-dashboard/pkg/logging"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="UTF-8">
    <title>{{.Labels.Title}}</title>
    <style>
        body { font-family: sans-serif; margin: 0; padding: 0 2rem 2rem; background: #fafafa; }
        h1 { margin: 1rem 0; }
        form { display: flex; gap: 2rem; align-items: flex-end; margin-bottom: 1rem; }
        fieldset { border: 1px solid #ddd; }
        .warning { background: #fff3cd; border: 1px solid #ffbb28; padding: 1rem; }
        .kpis { display: grid; grid-template-columns: repeat(4, 1fr); gap: 1rem; margin-bottom: 1rem; }
        .kpi { background: #fff; border: 1px solid #ddd; padding: 1rem; }
        .kpi span { display: block; color: #666; font-size: 0.9rem; }
        .kpi strong { font-size: 1.6rem; }
        .charts { display: grid; grid-template-columns: repeat(2, 1fr); gap: 1rem; }
        .charts img { width: 100%; background: #fff; border: 1px solid #ddd; }
    </style>
</head>
<body>
    <h1>{{.Labels.Title}}</h1>
{{if .Unavailable}}
    <p class="warning">{{.Unavailable}}</p>
{{else}}
    <form method="get" action="/">
        <fieldset>
            <legend>{{.Labels.Year}}</legend>
            <input type="hidden" name="years" value="">
{{range .Years}}
            <label><input type="checkbox" name="years" value="{{.Value}}"{{if .Checked}} checked{{end}}> {{.Value}}</label>
{{end}}
        </fieldset>
        <fieldset>
            <legend>{{.Labels.Season}}</legend>
            <input type="hidden" name="seasons" value="">
{{range .Seasons}}
            <label><input type="checkbox" name="seasons" value="{{.Value}}"{{if .Checked}} checked{{end}}> {{.Value}}</label>
{{end}}
        </fieldset>
        <button type="submit">OK</button>
        <a href="/api/export.xlsx?{{.Query}}">XLSX</a>
    </form>
    <div class="kpis">
        <div class="kpi"><span>{{.Labels.TotalRentals}}</span><strong>{{.KPIs.TotalRentals}}</strong></div>
        <div class="kpi"><span>{{.Labels.CasualPercentage}}</span><strong>{{.KPIs.CasualPercentage}}</strong></div>
        <div class="kpi"><span>{{.Labels.PeakMonth}}</span><strong>{{.KPIs.PeakMonth}}</strong></div>
        <div class="kpi"><span>{{.Labels.PeakHour}}</span><strong>{{.KPIs.PeakHour}}</strong></div>
    </div>
    <div class="charts">
{{range .Charts}}
        <img src="/api/charts/{{.}}.png?{{$.Query}}" alt="{{.}}">
{{end}}
    </div>
{{end}}
</body>
</html>`))

type checkOption struct {
	Value   string
	Checked bool
}

type indexPage struct {
	Lang        string
	Labels      models.Labels
	Unavailable string
	Years       []checkOption
	Seasons     []checkOption
	KPIs        models.KPIs
	Charts      []string
	Query       template.URL
}

// Index handles GET /, the dashboard page. The chart images and the export
// link carry the same selection as the page.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locale := h.service.Locale()

	page := indexPage{
		Lang:   locale.Tag.String(),
		Labels: locale.Labels,
		Charts: charts.Charts,
	}

	status := http.StatusOK
	if err := h.service.Available(); err != nil {
		h.logger.Warn(ctx, "[INDEX_UNAVAILABLE] Serving page without data", logging.Fields{
			"error": err.Error(),
		})
		page.Unavailable = locale.Labels.DataUnavailable
		status = http.StatusServiceUnavailable
	} else {
		sel, err := h.selection(ctx, r.URL.Query())
		if err != nil {
			h.handleError(w, r, "/", err)
			return
		}
		_, kpis, err := h.service.Summary(ctx, sel)
		if err != nil {
			h.handleError(w, r, "/", err)
			return
		}
		opts, err := h.service.FilterOptions(ctx)
		if err != nil {
			h.handleError(w, r, "/", err)
			return
		}

		page.KPIs = kpis
		page.Query = template.URL(SelectionQuery(sel).Encode())
		page.Years = yearOptions(opts.Years, sel.YearSet())
		page.Seasons = seasonOptions(opts.Seasons, sel.SeasonSet())
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, page); err != nil {
		h.logger.Error(ctx, "[INDEX_ERROR] Failed to render page", logging.Fields{}, err)
		h.sendError(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func yearOptions(years []int, selected map[int]struct{}) []checkOption {
	out := make([]checkOption, len(years))
	for i, y := range years {
		_, ok := selected[y]
		out[i] = checkOption{Value: strconv.Itoa(y), Checked: ok}
	}
	return out
}

func seasonOptions(seasons []string, selected map[string]struct{}) []checkOption {
	out := make([]checkOption, len(seasons))
	for i, s := range seasons {
		_, ok := selected[s]
		out[i] = checkOption{Value: s, Checked: ok}
	}
	return out
}
