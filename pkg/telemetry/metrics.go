package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for osmoflow.
type Metrics struct {
	config MetricsConfig

	// Solve metrics
	solvesStarted   *prometheus.CounterVec
	solvesCompleted *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	solveIterations *prometheus.HistogramVec

	// Build metrics
	buildsCompleted *prometheus.CounterVec
	unitsBuilt      *prometheus.GaugeVec
	degreesOfFreedom *prometheus.GaugeVec

	// Costing metrics
	costingsCompleted *prometheus.CounterVec
	lcow              *prometheus.GaugeVec

	// Error metrics
	errorsByClass *prometheus.CounterVec
	errorsByCode  *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DefaultHistogramBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		solvesStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_started_total",
				Help:      "Total number of solves started",
			},
			[]string{"case"},
		),
		solvesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "solves_completed_total",
				Help:      "Total number of solves completed",
			},
			[]string{"status"},
		),
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_duration_seconds",
				Help:      "Duration of flowsheet solves in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		solveIterations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "solve_iterations",
				Help:      "Number of sweeps per solve",
				Buckets:   []float64{1, 2, 3, 5, 10, 25, 50},
			},
			[]string{"status"},
		),

		buildsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_completed_total",
				Help:      "Total number of network builds completed",
			},
			[]string{"nf_type", "status"},
		),
		unitsBuilt: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "units_built",
				Help:      "Number of unit blocks on the last built flowsheet",
			},
			[]string{"case"},
		),
		degreesOfFreedom: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "degrees_of_freedom",
				Help:      "Degrees of freedom of the last built flowsheet",
			},
			[]string{"case"},
		),

		costingsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "costings_completed_total",
				Help:      "Total number of costing runs completed",
			},
			[]string{"status"},
		),
		lcow: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "lcow_dollars_per_m3",
				Help:      "Levelized cost of water of the last costed flowsheet",
			},
			[]string{"case"},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of errors by error class",
			},
			[]string{"class"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),
	}

	registry.MustRegister(
		m.solvesStarted,
		m.solvesCompleted,
		m.solveDuration,
		m.solveIterations,
		m.buildsCompleted,
		m.unitsBuilt,
		m.degreesOfFreedom,
		m.costingsCompleted,
		m.lcow,
		m.errorsByClass,
		m.errorsByCode,
	)

	return m, nil
}

// Solve Metrics

// RecordSolveStarted increments the counter for started solves.
func (m *Metrics) RecordSolveStarted(caseName string) {
	if m.solvesStarted == nil {
		return
	}
	m.solvesStarted.WithLabelValues(caseName).Inc()
}

// RecordSolveCompleted records a completed solve with its status,
// duration, and sweep count.
func (m *Metrics) RecordSolveCompleted(status string, duration time.Duration, iterations int) {
	if m.solvesCompleted == nil {
		return
	}
	m.solvesCompleted.WithLabelValues(status).Inc()
	m.solveDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.solveIterations.WithLabelValues(status).Observe(float64(iterations))
}

// Build Metrics

// RecordBuildCompleted records a completed network build.
func (m *Metrics) RecordBuildCompleted(nfType, status string) {
	if m.buildsCompleted == nil {
		return
	}
	m.buildsCompleted.WithLabelValues(nfType, status).Inc()
}

// SetUnitsBuilt sets the unit count of the last built flowsheet.
func (m *Metrics) SetUnitsBuilt(caseName string, count float64) {
	if m.unitsBuilt == nil {
		return
	}
	m.unitsBuilt.WithLabelValues(caseName).Set(count)
}

// SetDegreesOfFreedom sets the DOF of the last built flowsheet.
func (m *Metrics) SetDegreesOfFreedom(caseName string, dof float64) {
	if m.degreesOfFreedom == nil {
		return
	}
	m.degreesOfFreedom.WithLabelValues(caseName).Set(dof)
}

// Costing Metrics

// RecordCostingCompleted records a completed costing run.
func (m *Metrics) RecordCostingCompleted(status string) {
	if m.costingsCompleted == nil {
		return
	}
	m.costingsCompleted.WithLabelValues(status).Inc()
}

// SetLCOW sets the levelized cost of water of the last costed flowsheet.
func (m *Metrics) SetLCOW(caseName string, lcow float64) {
	if m.lcow == nil {
		return
	}
	m.lcow.WithLabelValues(caseName).Set(lcow)
}

// Error Metrics

// RecordError records an error by class and optionally by code.
func (m *Metrics) RecordError(errorClass, errorCode string) {
	if m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
	if errorCode != "" && m.errorsByCode != nil {
		m.errorsByCode.WithLabelValues(errorCode).Inc()
	}
}

// Timer provides a convenient way to time operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration is a helper to time an operation and record it.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics.
func (m *Metrics) StartMetricsServer() error {
	if !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			// Log error but don't fail the application
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()

	return nil
}
