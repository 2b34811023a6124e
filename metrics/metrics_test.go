package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New()
	m.UserSignedUp("authority")
	m.UserSignedUp("authority")
	m.IssueCreated("Traffic")
	m.StatusUpdated("Resolved")
	m.RateLimited()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UsersSignedUp.WithLabelValues("authority")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssuesCreated.WithLabelValues("Traffic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusUpdates.WithLabelValues("Resolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitHits))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.UserSignedUp("citizen")
		m.IssueCreated("Other")
		m.StatusUpdated("Closed")
		m.RateLimited()
		m.EventPublishFailed()
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.IssueCreated("Water Supply")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `civictrack_issues_created_total{category="Water Supply"} 1`)
}
