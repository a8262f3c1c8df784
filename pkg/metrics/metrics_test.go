package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "quickclinic")

	m.Booking("ONLINE", "held")
	m.Booking("ONLINE", "held")
	m.PaymentVerification("success")
	m.Purged(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Bookings.WithLabelValues("ONLINE", "held")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PaymentVerifications.WithLabelValues("success")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LogsPurged))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Booking("CASH", "booked")
		m.PaymentOrder("created")
		m.OTPIssued()
		m.HoldReleased()
		m.NotificationPublished("ok")
	})
}
