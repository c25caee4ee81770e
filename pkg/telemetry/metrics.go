package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Metrics provides Prometheus metrics for variant resolution.
type Metrics struct {
	config MetricsConfig

	// Resolution metrics
	variantsResolved   *prometheus.CounterVec
	variantsFiltered   *prometheus.CounterVec
	componentsResolved *prometheus.CounterVec
	resolutionDuration *prometheus.HistogramVec
	spaceSize          *prometheus.GaugeVec

	// Policy metrics
	policyViolations *prometheus.CounterVec

	// Error metrics
	errorsByCode *prometheus.CounterVec

	// Watch metrics
	declarationReloads *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
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

		variantsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "variants_resolved_total",
				Help:      "Total number of build variants kept after filtering",
			},
			[]string{"component"},
		),
		variantsFiltered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "variants_filtered_total",
				Help:      "Total number of build variants rejected by filters",
			},
			[]string{"component"},
		),
		componentsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "components_resolved_total",
				Help:      "Total number of components resolved",
			},
			[]string{"status"},
		),
		resolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Duration of workspace resolution in seconds",
				Buckets:   buckets,
			},
			[]string{"status"},
		),
		spaceSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "space_size",
				Help:      "Number of tuples in the last generated coordinate space",
			},
			[]string{"component"},
		),

		policyViolations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_violations_total",
				Help:      "Total number of policy violations",
			},
			[]string{"severity"},
		),

		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of errors by error code",
			},
			[]string{"code"},
		),

		declarationReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "declaration_reloads_total",
				Help:      "Total number of declaration reloads triggered by file changes",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		m.variantsResolved,
		m.variantsFiltered,
		m.componentsResolved,
		m.resolutionDuration,
		m.spaceSize,
		m.policyViolations,
		m.errorsByCode,
		m.declarationReloads,
	)

	return m, nil
}

// RecordComponentResolved records the outcome of resolving one component.
func (m *Metrics) RecordComponentResolved(component string, space, kept, excluded int) {
	if m == nil || m.variantsResolved == nil {
		return
	}
	m.componentsResolved.WithLabelValues("success").Inc()
	m.variantsResolved.WithLabelValues(component).Add(float64(kept))
	m.variantsFiltered.WithLabelValues(component).Add(float64(excluded))
	m.spaceSize.WithLabelValues(component).Set(float64(space))
}

// RecordComponentFailed records a component rejected by configuration errors.
func (m *Metrics) RecordComponentFailed(code string) {
	if m == nil || m.componentsResolved == nil {
		return
	}
	m.componentsResolved.WithLabelValues("failure").Inc()
	m.RecordError(code)
}

// RecordResolution records a workspace resolution with its status and duration.
func (m *Metrics) RecordResolution(status string, duration time.Duration) {
	if m == nil || m.resolutionDuration == nil {
		return
	}
	m.resolutionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordPolicyViolation records a policy violation.
func (m *Metrics) RecordPolicyViolation(severity string) {
	if m == nil || m.policyViolations == nil {
		return
	}
	m.policyViolations.WithLabelValues(severity).Inc()
}

// RecordError records an error by code.
func (m *Metrics) RecordError(code string) {
	if m == nil || m.errorsByCode == nil || code == "" {
		return
	}
	m.errorsByCode.WithLabelValues(code).Inc()
}

// RecordReload records a declaration reload.
func (m *Metrics) RecordReload(status string) {
	if m == nil || m.declarationReloads == nil {
		return
	}
	m.declarationReloads.WithLabelValues(status).Inc()
}

// Registry returns the underlying registry, or nil when metrics are disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
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

// ObserveDuration records the elapsed time on observer.
func (t *Timer) ObserveDuration(observer prometheus.Observer) {
	observer.Observe(t.Duration().Seconds())
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Serve exposes the metrics endpoint on addr until ctx is cancelled. An
// empty addr uses the configured listen address.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	if m == nil || !m.config.Enabled {
		return nil
	}
	if addr == "" {
		addr = m.config.ListenAddress
	}

	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Str("path", m.config.Path).Msg("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
