package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the bot
type Metrics struct {
	SessionsStarted       prometheus.Counter
	SessionsExpired       prometheus.Counter
	SessionsActive        prometheus.Gauge
	ValidationRejections  *prometheus.CounterVec
	RegistrationsSaved    prometheus.Counter
	RegistrationFailures  prometheus.Counter
	NotificationDelivered *prometheus.CounterVec
}

// New creates the metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "forum_bot_sessions_started_total",
			Help: "Registration dialogs started",
		}),
		SessionsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "forum_bot_sessions_expired_total",
			Help: "Registration dialogs dropped after the idle timeout",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "forum_bot_sessions_active",
			Help: "Registration dialogs currently in progress",
		}),
		ValidationRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_bot_validation_rejections_total",
			Help: "Inputs rejected by a field validator",
		}, []string{"state", "reason"}),
		RegistrationsSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "forum_bot_registrations_saved_total",
			Help: "Registrations committed to the store",
		}),
		RegistrationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "forum_bot_registration_failures_total",
			Help: "Registration commits that failed to persist",
		}),
		NotificationDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "forum_bot_notifications_total",
			Help: "Notification deliveries by recipient kind and result",
		}, []string{"kind", "result"}),
	}
}

func (m *Metrics) IncSessionsStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

func (m *Metrics) IncSessionsExpired() {
	if m == nil {
		return
	}
	m.SessionsExpired.Inc()
}

func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

func (m *Metrics) IncValidationRejection(state, reason string) {
	if m == nil {
		return
	}
	m.ValidationRejections.WithLabelValues(state, reason).Inc()
}

func (m *Metrics) IncRegistrationsSaved() {
	if m == nil {
		return
	}
	m.RegistrationsSaved.Inc()
}

func (m *Metrics) IncRegistrationFailures() {
	if m == nil {
		return
	}
	m.RegistrationFailures.Inc()
}

func (m *Metrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.NotificationDelivered.WithLabelValues(kind, result).Inc()
}
