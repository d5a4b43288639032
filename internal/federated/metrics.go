package federated

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mff-uk/dataspecer-sub018/internal/memstore"
)

// Metrics counts federation activity. A nil *Metrics records nothing.
type Metrics struct {
	applied       *prometheus.CounterVec
	failed        *prometheus.CounterVec
	notifications prometheus.Counter
	subscribed    prometheus.Gauge
}

// NewMetrics creates the federation metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specstore_operations_applied_total",
			Help: "Operations applied, by kind",
		}, []string{"kind"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "specstore_operations_failed_total",
			Help: "Operations refused by an executor, by kind and failure code",
		}, []string{"kind", "code"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "specstore_notifications_total",
			Help: "Subscriber callbacks invoked",
		}),
		subscribed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "specstore_subscribed_iris",
			Help: "Resource IRIs with at least one subscriber",
		}),
	}
	reg.MustRegister(m.applied, m.failed, m.notifications, m.subscribed)
	return m
}

func (m *Metrics) observe(c *memstore.Change) {
	if m == nil {
		return
	}
	kind := c.Operation.Kind().String()
	if c.OK() {
		m.applied.WithLabelValues(kind).Inc()
		return
	}
	m.failed.WithLabelValues(kind, string(c.Failure.Code)).Inc()
}

func (m *Metrics) notified() {
	if m != nil {
		m.notifications.Inc()
	}
}

func (m *Metrics) setSubscribed(n int) {
	if m != nil {
		m.subscribed.Set(float64(n))
	}
}
