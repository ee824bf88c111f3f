package metrics

import "github.com/prometheus/client_golang/prometheus"

// PaymentMetrics tracks webhook intake and payment state transitions.
type PaymentMetrics struct {
	webhookEvents *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	gatewayCalls  *prometheus.HistogramVec
}

// NewPaymentMetrics registers the payment counters on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook deliveries received, by provider and outcome.",
	}, []string{"provider", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transitions_total",
		Help: "Payment status transitions applied to orders.",
	}, []string{"from", "to"})
	gatewayCalls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of outbound payment gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider", "operation"})
	reg.MustRegister(webhookEvents, transitions, gatewayCalls)
	return &PaymentMetrics{
		webhookEvents: webhookEvents,
		transitions:   transitions,
		gatewayCalls:  gatewayCalls,
	}
}

// IncWebhookEvent counts one webhook delivery for the provider.
func (m *PaymentMetrics) IncWebhookEvent(provider, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// IncTransition counts one applied payment status transition.
func (m *PaymentMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// ObserveGatewayCall records the latency of an outbound gateway request.
func (m *PaymentMetrics) ObserveGatewayCall(provider, operation string, seconds float64) {
	if m == nil || m.gatewayCalls == nil {
		return
	}
	m.gatewayCalls.WithLabelValues(normalizeLabel(provider), normalizeLabel(operation)).Observe(seconds)
}
