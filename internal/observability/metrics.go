package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fluscreen"

// Report outcomes recorded by Metrics.ReportGenerated.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics groups the service collectors. The zero value is not usable;
// construct with NewMetrics.
type Metrics struct {
	registry    *prometheus.Registry
	assessments *prometheus.CounterVec
	reports     *prometheus.CounterVec
	inputErrors *prometheus.CounterVec
}

// NewMetrics registers the service collectors, plus Go runtime and process
// collectors, on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Risk assessments computed, by risk level.",
		}, []string{"risk_level"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "PDF reports rendered, by outcome.",
		}, []string{"outcome"}),
		inputErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "input_errors_total",
			Help:      "Rejected submissions, by route.",
		}, []string{"route"}),
	}
	reg.MustRegister(
		m.assessments,
		m.reports,
		m.inputErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) AssessmentRecorded(level string) {
	m.assessments.WithLabelValues(level).Inc()
}

func (m *Metrics) ReportGenerated(outcome string) {
	m.reports.WithLabelValues(outcome).Inc()
}

func (m *Metrics) InputRejected(route string) {
	m.inputErrors.WithLabelValues(route).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
