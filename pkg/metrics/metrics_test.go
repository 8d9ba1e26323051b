package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(cacheLookups.WithLabelValues("cohorts", "hit"))
	RecordCacheLookup("cohorts", true)
	RecordCacheLookup("cohorts", false)
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("cohorts", "hit")); got != before+1 {
		t.Fatalf("hit counter = %v, want %v", got, before+1)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordOrdersFetched("timeseries", 3)
	RecordCompute("timeseries", 20*time.Millisecond)
	done := RequestStarted(http.MethodGet, "/api/v1/analytics/timeseries")
	done(http.StatusOK)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, name := range []string{
		"ltv_analytics_http_requests_total",
		"ltv_analytics_repository_orders_fetched_total",
		"ltv_analytics_compute_duration_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metric %s missing from exposition", name)
		}
	}
}
