package mockhttp

import "github.com/prometheus/client_golang/prometheus"

// Results reported by Metrics.Calls.
const (
	resultFulfilled  = "fulfilled"
	resultRejected   = "rejected"
	resultNoMatch    = "no_match"
	resultEmptyQueue = "empty_queue"
	resultInvalid    = "invalid"
)

// Metrics counts handled requests. A nil *Metrics records nothing.
type Metrics struct {
	// Calls counts handled requests by result.
	Calls *prometheus.CounterVec

	// Pending tracks the number of registered expectations not yet matched.
	Pending prometheus.Gauge
}

// NewMetrics creates the metrics and registers them with reg. If reg is nil
// the metrics are not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mockhttp_calls_total",
				Help: "Handled requests",
			},
			[]string{"result"},
		),
		Pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mockhttp_pending_expectations",
				Help: "Registered expectations not yet matched",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Calls, m.Pending)
	}
	return m
}

func (m *Metrics) call(result string) {
	if m == nil {
		return
	}
	m.Calls.WithLabelValues(result).Inc()
}

func (m *Metrics) pending(n int) {
	if m == nil {
		return
	}
	m.Pending.Set(float64(n))
}
