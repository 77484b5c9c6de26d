package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(reg)
	require.NoError(t, err)

	m.ObserveExtraction("none", 2*time.Second)
	m.ObserveExtraction("envelope", time.Second)
	m.ObserveExtraction("none", time.Second)
	m.AddRecords("AUTO_APPROVED", 3)
	m.AddRecords("PENDING_REVIEW", 0)
	m.ObserveReview("approve")

	assert.InDelta(t, 2, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues("envelope")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.RecordsTotal.WithLabelValues("AUTO_APPROVED")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReviewsTotal.WithLabelValues("approve")), 0)

	_, err = NewPipelineMetrics(reg)
	assert.Error(t, err, "double registration fails")
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.ObserveExtraction("none", time.Second)
		m.AddRecords("APPROVED", 1)
		m.ObserveReview("approve")
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(reg)
	require.NoError(t, err)
	m.ObserveReview("reject")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `pricetracker_reviews_total{action="reject"} 1`)
}
