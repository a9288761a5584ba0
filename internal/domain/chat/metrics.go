package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ingestion outcomes for the /metrics endpoint.
type Metrics struct {
	ingests         *prometheus.CounterVec
	expensesCreated prometheus.Counter
	itemsSkipped    prometheus.Counter
	gatewaySeconds  prometheus.Histogram
}

// Ingestion outcome label values.
const (
	outcomeOK              = "ok"
	outcomeNotConfigured   = "not_configured"
	outcomeUnavailable     = "unavailable"
	outcomeInvalidResponse = "invalid_response"
	outcomeNoExpenses      = "no_expenses"
	outcomeError           = "error"
)

// NewMetrics registers the chat metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ingests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_ingest_requests_total",
			Help: "Chat ingestion requests by outcome.",
		}, []string{"outcome"}),
		expensesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_expenses_created_total",
			Help: "Expenses created from chat input.",
		}),
		itemsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "chat_items_skipped_total",
			Help: "AI line items skipped for invalid amount or description.",
		}),
		gatewaySeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_gateway_duration_seconds",
			Help:    "Duration of Gemini generateContent calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) recordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ingests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordBatch(created, skipped int) {
	if m == nil {
		return
	}
	m.expensesCreated.Add(float64(created))
	m.itemsSkipped.Add(float64(skipped))
}

func (m *Metrics) observeGateway(seconds float64) {
	if m == nil {
		return
	}
	m.gatewaySeconds.Observe(seconds)
}
