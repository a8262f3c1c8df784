package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Bookings             *prometheus.CounterVec
	PaymentOrders        *prometheus.CounterVec
	PaymentVerifications *prometheus.CounterVec
	OTPSent              prometheus.Counter
	OTPVerifications     *prometheus.CounterVec
	HoldsReleased        prometheus.Counter
	LogsPurged           prometheus.Counter
	NotificationsPushed  *prometheus.CounterVec
}

// NewMetrics registers all domain metrics on reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Bookings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Appointment booking attempts by payment method and result",
		}, []string{"method", "result"}),
		PaymentOrders: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_orders_total",
			Help:      "Payment order requests by result",
		}, []string{"result"}),
		PaymentVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_verifications_total",
			Help:      "Payment signature verifications by result",
		}, []string{"result"}),
		OTPSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_sent_total",
			Help:      "One-time passcodes issued",
		}),
		OTPVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "One-time passcode checks by result",
		}, []string{"result"}),
		HoldsReleased: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_holds_released_total",
			Help:      "Expired slot holds returned to AVAILABLE",
		}),
		LogsPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logs_purged_total",
			Help:      "Audit and access log rows removed by retention",
		}),
		NotificationsPushed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Realtime notification publishes by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) Booking(method, result string) {
	if m == nil {
		return
	}
	m.Bookings.WithLabelValues(method, result).Inc()
}

func (m *Metrics) PaymentOrder(result string) {
	if m == nil {
		return
	}
	m.PaymentOrders.WithLabelValues(result).Inc()
}

func (m *Metrics) PaymentVerification(result string) {
	if m == nil {
		return
	}
	m.PaymentVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) OTPIssued() {
	if m == nil {
		return
	}
	m.OTPSent.Inc()
}

func (m *Metrics) OTPVerification(result string) {
	if m == nil {
		return
	}
	m.OTPVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) HoldReleased() {
	if m == nil {
		return
	}
	m.HoldsReleased.Inc()
}

func (m *Metrics) Purged(n int64) {
	if m == nil {
		return
	}
	m.LogsPurged.Add(float64(n))
}

func (m *Metrics) NotificationPublished(result string) {
	if m == nil {
		return
	}
	m.NotificationsPushed.WithLabelValues(result).Inc()
}
