package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for the booking pipeline.
type Metrics struct {
	// Checkout session initiations (status: created, rejected, error).
	CheckoutSessionsTotal *prometheus.CounterVec

	// Webhook deliveries by reconciliation result (confirmed, duplicate,
	// rejected, ignored, invalid_signature, parse_error, error).
	WebhookEventsTotal *prometheus.CounterVec

	// User-initiated booking cancellations.
	CancellationsTotal prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on the given registry; tests use
// a throwaway one.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutSessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_sessions_total",
				Help: "Total number of checkout session initiations",
			},
			[]string{"status"},
		),
		WebhookEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhook_events_total",
				Help: "Total number of payment webhook deliveries by result",
			},
			[]string{"result"},
		),
		CancellationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "booking_cancellations_total",
				Help: "Total number of booking cancellations",
			},
		),
	}

	reg.MustRegister(m.CheckoutSessionsTotal, m.WebhookEventsTotal, m.CancellationsTotal)
	return m
}
