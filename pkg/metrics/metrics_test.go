package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"nlnotes/pkg/metrics"
)

func TestObserveResolverAction(t *testing.T) {
	before := testutil.ToFloat64(metrics.ResolverActionsTotal.WithLabelValues("create", "success"))

	metrics.ObserveResolverAction("create", "success")
	metrics.ObserveResolverAction("create", "success")

	after := testutil.ToFloat64(metrics.ResolverActionsTotal.WithLabelValues("create", "success"))
	assert.InDelta(t, 2, after-before, 0.0001)
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/notes", "200"))

	metrics.ObserveHTTP("GET", "/api/v1/notes", 200, 15*time.Millisecond)

	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/notes", "200"))
	assert.InDelta(t, 1, after-before, 0.0001)
}

func TestObserveParser(t *testing.T) {
	before := testutil.ToFloat64(metrics.ParserRequestsTotal.WithLabelValues("cache", "hit"))
	metrics.ObserveParser("cache", "hit")
	after := testutil.ToFloat64(metrics.ParserRequestsTotal.WithLabelValues("cache", "hit"))
	assert.InDelta(t, 1, after-before, 0.0001)
}
