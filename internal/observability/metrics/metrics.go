package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	upstreamTotal   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	submitTotal     *prometheus.CounterVec
	activeForms     prometheus.Gauge
	staleDiscards   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		upstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_gateway",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total hospital API calls",
		}, []string{"operation", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "booking_gateway",
			Subsystem: "upstream",
			Name:      "request_latency_seconds",
			Help:      "Latency of hospital API calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		submitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_gateway",
			Subsystem: "forms",
			Name:      "submit_total",
			Help:      "Total appointment submissions",
		}, []string{"action", "status"}),
		activeForms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "booking_gateway",
			Subsystem: "forms",
			Name:      "active",
			Help:      "Booking forms currently open",
		}),
		staleDiscards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_gateway",
			Subsystem: "forms",
			Name:      "stale_fetch_discards_total",
			Help:      "Fetch results discarded because the form moved on",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.upstreamTotal, m.upstreamLatency, m.submitTotal, m.activeForms, m.staleDiscards)
	return m
}

func (m *BookingMetrics) ObserveUpstream(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamTotal.WithLabelValues(operation, status).Inc()
	m.upstreamLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *BookingMetrics) ObserveSubmit(action, status string) {
	if m == nil {
		return
	}
	m.submitTotal.WithLabelValues(action, status).Inc()
}

func (m *BookingMetrics) FormOpened() {
	if m == nil {
		return
	}
	m.activeForms.Inc()
}

func (m *BookingMetrics) FormClosed() {
	if m == nil {
		return
	}
	m.activeForms.Dec()
}

func (m *BookingMetrics) ObserveStaleDiscard(kind string) {
	if m == nil {
		return
	}
	m.staleDiscards.WithLabelValues(kind).Inc()
}
