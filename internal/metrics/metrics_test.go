package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncSessionsStarted()
	m.IncRegistrationsSaved()
	m.IncRegistrationsSaved()
	m.IncValidationRejection("EMAIL", "email_format")
	m.ObserveNotification("admin", nil)
	m.ObserveNotification("admin", errors.New("blocked"))
	m.SetSessionsActive(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsStarted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistrationsSaved))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ValidationRejections.WithLabelValues("EMAIL", "email_format")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationDelivered.WithLabelValues("admin", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationDelivered.WithLabelValues("admin", "error")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncSessionsStarted()
		m.IncSessionsExpired()
		m.SetSessionsActive(1)
		m.IncValidationRejection("x", "y")
		m.IncRegistrationsSaved()
		m.IncRegistrationFailures()
		m.ObserveNotification("admin", nil)
	})
}
