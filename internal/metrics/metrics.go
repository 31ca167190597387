package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"event-tickets/internal/ledger"
)

// Metrics counts ledger calls and the value they move.
type Metrics struct {
	registry  *prometheus.Registry
	calls     *prometheus.CounterVec
	sold      prometheus.Counter
	refunded  prometheus.Counter
	withdrawn prometheus.Counter
}

// New registers the ledger collectors plus the Go and process collectors on a
// fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tickets_calls_total",
			Help: "Ledger calls by operation and result code.",
		}, []string{"op", "result"}),
		sold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickets_sold_total",
			Help: "Tickets sold.",
		}),
		refunded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickets_refunded_units_total",
			Help: "Overpayment refunded to buyers, in base units.",
		}),
		withdrawn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tickets_withdrawn_units_total",
			Help: "Collected balance paid out to owners, in base units.",
		}),
	}
	m.registry.MustRegister(
		m.calls, m.sold, m.refunded, m.withdrawn,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCall counts one call of op with the ledger code of err.
func (m *Metrics) ObserveCall(op string, err error) {
	m.calls.WithLabelValues(op, ledger.Code(err)).Inc()
}

func (m *Metrics) ObservePurchase(p ledger.Purchase) {
	m.sold.Add(float64(p.Quantity))
	m.refunded.Add(float64(p.Refund))
}

func (m *Metrics) ObserveWithdrawal(amount uint64) {
	m.withdrawn.Add(float64(amount))
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
