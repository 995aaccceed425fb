package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestTrackingMiddleware(t *testing.T) {
	m := NewMetrics()

	r := chi.NewRouter()
	r.Use(m.RequestTrackingMiddleware)
	r.Get("/api/session/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/session/{id}", "404")))
}

func TestBusinessMetrics(t *testing.T) {
	m := NewMetrics()

	m.RecordGeoIPLookup("cache")
	m.RecordGeoIPLookup("cache")
	m.RecordGeoIPLookup("api")
	m.ObserveAnalysis(120 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.GeoIPLookups.WithLabelValues("cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GeoIPLookups.WithLabelValues("api")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AnalysisDuration))
}

func TestHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordGeoIPLookup("static")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `honeydash_geoip_lookups_total{result="static"} 1`)
}

func TestWatchGeoIPCache(t *testing.T) {
	m := NewMetrics()
	entries := 7
	m.WatchGeoIPCache(func() int { return entries })

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "honeydash_geoip_cache_entries 7")
}
