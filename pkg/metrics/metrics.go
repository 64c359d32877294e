package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome es el resultado de una operación, como etiqueta de métrica.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeInvalid     Outcome = "invalid"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeConflict    Outcome = "conflict"
	OutcomeStoreFailed Outcome = "store_failure"
)

// Metrics agrupa los contadores del servicio sobre un registro propio.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	pageSize   prometheus.Histogram
}

// New registra los colectores en un registro nuevo. namespace prefija todas las series.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Group operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		pageSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_page_size",
			Help:      "Number of groups returned per list call.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}

	reg.MustRegister(
		m.operations,
		m.pageSize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Observe cuenta una operación. Es seguro con un receptor nil.
func (m *Metrics) Observe(operation string, outcome Outcome) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, string(outcome)).Inc()
}

// ObservePageSize registra el tamaño de una página devuelta.
func (m *Metrics) ObservePageSize(size int) {
	if m == nil {
		return
	}
	m.pageSize.Observe(float64(size))
}

// Registry expone el registro, útil en tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler sirve el endpoint /metrics.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
