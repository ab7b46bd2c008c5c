package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	RecordDefaultedRows("metrics_test_query", 0)
	RecordDefaultedRows("metrics_test_query", 3)
	assert.Equal(t, 3.0, testutil.ToFloat64(defaultedRows.WithLabelValues("metrics_test_query")))

	RecordCacheLookup("metrics_test", "hit")
	assert.Equal(t, 1.0, testutil.ToFloat64(cacheLookups.WithLabelValues("metrics_test", "hit")))

	RecordWarmupRun("metrics_test_job", nil)
	RecordWarmupRun("metrics_test_job", errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(warmupRuns.WithLabelValues("metrics_test_job", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(warmupRuns.WithLabelValues("metrics_test_job", "error")))

	ObserveHTTPRequest("GET", "", 404, time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandlerServesRegistry(t *testing.T) {
	ObserveAnalysis("metrics_test_dataset", nil, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `dialfa_analytics_analysis_duration_seconds_count{dataset="metrics_test_dataset",status="success"} 1`)
}
