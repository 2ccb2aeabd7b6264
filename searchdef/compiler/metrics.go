package compiler

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names
const (
	MetricSchemasCompiledTotal = "rankc_schemas_compiled_total"
	MetricProfilesDerivedTotal = "rankc_profiles_derived_total"
	MetricCompileErrorsTotal   = "rankc_compile_errors_total"
	MetricCompileDuration      = "rankc_compile_duration_seconds"
)

// Metrics holds the compiler's Prometheus collectors. The collectors are
// not registered until Register is called.
type Metrics struct {
	schemasCompiled prometheus.Counter
	profilesDerived prometheus.Counter
	compileErrors   *prometheus.CounterVec
	compileDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		schemasCompiled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSchemasCompiledTotal,
			Help: "Total number of schemas compiled successfully",
		}),
		profilesDerived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricProfilesDerivedTotal,
			Help: "Total number of rank profiles derived into property lists",
		}),
		compileErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCompileErrorsTotal,
				Help: "Total number of failed schema compiles by error kind",
			},
			[]string{"kind"},
		),
		compileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCompileDuration,
			Help:    "Histogram of per-schema compile duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

// Register registers all collectors with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.schemasCompiled,
		m.profilesDerived,
		m.compileErrors,
		m.compileDuration,
	}
}

func (m *Metrics) observeSuccess(profiles int, seconds float64) {
	if m == nil {
		return
	}
	m.schemasCompiled.Inc()
	m.profilesDerived.Add(float64(profiles))
	m.compileDuration.Observe(seconds)
}

func (m *Metrics) observeError(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.compileErrors.WithLabelValues(kind).Inc()
}
