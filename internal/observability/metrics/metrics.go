package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the intake and notification flows.
type BookingMetrics struct {
	bookingsCreated    prometheus.Counter
	duplicateSuppress  prometheus.Counter
	notificationsTotal *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transport",
			Subsystem: "bookings",
			Name:      "created_total",
			Help:      "Total bookings persisted",
		}),
		duplicateSuppress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "transport",
			Subsystem: "bookings",
			Name:      "duplicates_suppressed_total",
			Help:      "Submissions answered from the duplicate guard",
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "transport",
			Subsystem: "notify",
			Name:      "dispatch_total",
			Help:      "Notification attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsCreated, m.duplicateSuppress, m.notificationsTotal)
	return m
}

func (m *BookingMetrics) ObserveBookingCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.Inc()
}

func (m *BookingMetrics) ObserveDuplicateSuppressed() {
	if m == nil {
		return
	}
	m.duplicateSuppress.Inc()
}

func (m *BookingMetrics) ObserveNotification(channel, outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(channel, outcome).Inc()
}
