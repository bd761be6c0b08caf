package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewHTTPMetrics(registry)

	m.ObserveRequest("GET", "/api/v1/bundles/{bundleID}", 200, 25*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/bundles/{bundleID}", 200, 40*time.Millisecond)
	m.ObserveRequest("POST", "", 422, time.Millisecond)

	families, err := registry.Gather()
	require.NoError(t, err)

	byName := map[string]*dto.MetricFamily{}
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}

	requests := byName["http_requests_total"]
	require.NotNil(t, requests)
	require.Len(t, requests.GetMetric(), 2)
	for _, metric := range requests.GetMetric() {
		labels := map[string]string{}
		for _, pair := range metric.GetLabel() {
			labels[pair.GetName()] = pair.GetValue()
		}
		switch labels["method"] {
		case "GET":
			assert.Equal(t, "/api/v1/bundles/{bundleID}", labels["route"])
			assert.Equal(t, "200", labels["status"])
			assert.Equal(t, float64(2), metric.GetCounter().GetValue())
		case "POST":
			// Empty route patterns collapse into a stable label.
			assert.Equal(t, "unknown", labels["route"])
			assert.Equal(t, "422", labels["status"])
			assert.Equal(t, float64(1), metric.GetCounter().GetValue())
		default:
			t.Fatalf("unexpected method label %q", labels["method"])
		}
	}

	duration := byName["http_request_duration_seconds"]
	require.NotNil(t, duration)
	var sampled uint64
	for _, metric := range duration.GetMetric() {
		sampled += metric.GetHistogram().GetSampleCount()
	}
	assert.Equal(t, uint64(3), sampled)
}

func TestObserveRequestWithoutRegistry(t *testing.T) {
	var m *HTTPMetrics
	m.ObserveRequest("GET", "/", 200, time.Millisecond)

	m = NewHTTPMetrics(nil)
	m.ObserveRequest("GET", "/", 200, time.Millisecond)
}
