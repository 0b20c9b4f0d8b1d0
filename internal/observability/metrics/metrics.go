package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics exposes counters/histograms for IPN processing.
type WebhookMetrics struct {
	ipnTotal    *prometheus.CounterVec
	ipnDuration *prometheus.HistogramVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		ipnTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "paytech",
			Subsystem: "webhook",
			Name:      "ipn_total",
			Help:      "Total IPN deliveries by event type and outcome",
		}, []string{"event_type", "outcome"}),
		ipnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "paytech",
			Subsystem: "webhook",
			Name:      "ipn_duration_seconds",
			Help:      "Latency of IPN processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.ipnTotal, m.ipnDuration)
	return m
}

func (m *WebhookMetrics) ObserveIPN(eventType, outcome string) {
	if m == nil {
		return
	}
	m.ipnTotal.WithLabelValues(eventType, outcome).Inc()
}

func (m *WebhookMetrics) ObserveDuration(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.ipnDuration.WithLabelValues(outcome).Observe(seconds)
}
