package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewCollector_Independent(t *testing.T) {
	// Two collectors with the same namespace must not collide.
	a := NewCollector("dashboard_test")
	b := NewCollector("dashboard_test")

	a.RecordAPIRequest("/api/dashboard", "GET", "200")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.APIRequestsTotal.WithLabelValues("/api/dashboard", "GET", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.APIRequestsTotal.WithLabelValues("/api/dashboard", "GET", "200")))
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector("dashboard_test")

	c.RecordDatasetSize(17379, 731)
	c.RecordFilteredRows(100, 5)
	c.RecordSourceError("csv")

	assert.Equal(t, 17379.0, testutil.ToFloat64(c.SourceRowsLoaded.WithLabelValues("hourly")))
	assert.Equal(t, 731.0, testutil.ToFloat64(c.SourceRowsLoaded.WithLabelValues("daily")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.FilteredRows.WithLabelValues("daily")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.SourceErrorsTotal.WithLabelValues("csv")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("dashboard_test")
	c.StageTimer("filter").ObserveDuration()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard_test_pipeline_stage_duration_seconds")
}
