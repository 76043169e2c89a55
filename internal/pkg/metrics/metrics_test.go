package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ShareCreated("public")
	m.ShareCreated("public")
	m.ShareCreated("user_specific")
	m.ShareResolved(OutcomeExpired)
	m.SharesPurged(3)
	m.SharesPurged(0)
	m.ObserveRequest(http.MethodGet, "/ping", http.StatusOK, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.sharesCreated.WithLabelValues("public")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sharesCreated.WithLabelValues("user_specific")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.shareResolutions.WithLabelValues(OutcomeExpired)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sharesPurged))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/ping", "200")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ShareCreated("public")
		m.ShareResolved(OutcomeOK)
		m.SharesPurged(1)
		m.ObserveRequest("GET", "/", 200, time.Second)
	})
}
