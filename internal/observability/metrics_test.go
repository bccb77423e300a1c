package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(nil, nil)
		NewMetrics(nil, nil)
	})
}

func TestCounters(t *testing.T) {
	m := NewMetrics(func() float64 { return 3 }, func() float64 { return 5 })
	m.IncrUpload("ok")
	m.IncrUpload("ok")
	m.IncrUpload("schema")
	m.IncrRender("year")
	m.IncrCacheHit("artifacts")
	m.IncrCacheMiss("artifacts")
	m.IncrRateLimited()
	m.RecordExport("png", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.uploads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("schema")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renders.WithLabelValues("year")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessions))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.artifacts))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["sportsposter_export_duration_seconds"])
	assert.True(t, names["sportsposter_active_sessions"])
	assert.True(t, names["sportsposter_artifact_cache_entries"])
}

func TestRequestLoggerRecordsRoutePattern(t *testing.T) {
	m := NewMetrics(nil, nil)
	r := chi.NewRouter()
	r.Use(RequestLogger(m))
	r.Get("/download/{format}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration, "sportsposter_http_request_duration_seconds"))
}
