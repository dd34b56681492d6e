package monitoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector holds the per-invocation platform call metrics. It uses its
// own registry so a CLI run can be exported as a node_exporter textfile.
type MetricsCollector struct {
	namespace string
	registry  *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	fanoutTotal        *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec
	buildInfo          *prometheus.GaugeVec
}

// NewMetricsCollector creates a collector whose metric names start with namespace.
func NewMetricsCollector(namespace, version, commit string) *MetricsCollector {
	ns := strings.ReplaceAll(namespace, "-", "_")
	mc := &MetricsCollector{
		namespace: ns,
		registry:  prometheus.NewRegistry(),
	}

	mc.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: ns + "_platform_requests_total",
			Help: "Total number of platform API requests",
		},
		[]string{"platform", "operation", "status"},
	)

	mc.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    ns + "_platform_request_duration_seconds",
			Help:    "Platform API request duration in seconds, retries included",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"platform", "operation"},
	)

	mc.fanoutTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: ns + "_fanout_outcomes_total",
			Help: "Per-platform outcomes of aggregated operations",
		},
		[]string{"platform", "operation", "outcome"},
	)

	// Values: 0=closed, 1=half-open, 2=open
	mc.breakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: ns + "_circuit_breaker_state",
			Help: "Current state of circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	mc.breakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: ns + "_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	mc.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: ns + "_build_info",
			Help: "Build information",
		},
		[]string{"version", "commit"},
	)

	mc.registry.MustRegister(
		mc.requestsTotal,
		mc.requestDuration,
		mc.fanoutTotal,
		mc.breakerState,
		mc.breakerTransitions,
		mc.buildInfo,
	)
	mc.buildInfo.WithLabelValues(version, commit).Set(1)

	return mc
}

// Registry exposes the underlying registry, e.g. for testutil or gathering.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// ObserveRequest records one platform API request.
func (mc *MetricsCollector) ObserveRequest(platform, operation, outcome string, elapsed time.Duration) {
	platform = strings.ToLower(platform)
	mc.requestsTotal.WithLabelValues(platform, operation, outcome).Inc()
	mc.requestDuration.WithLabelValues(platform, operation).Observe(elapsed.Seconds())
}

// ObserveBreakerTransition records a circuit breaker state change.
func (mc *MetricsCollector) ObserveBreakerTransition(name, from, to string) {
	name = strings.ToLower(name)
	mc.breakerTransitions.WithLabelValues(name, from, to).Inc()
	mc.breakerState.WithLabelValues(name).Set(breakerStateValue(to))
}

// ObserveOutcome records the settled result of one platform inside a fan-out.
func (mc *MetricsCollector) ObserveOutcome(platform, operation, outcome string) {
	mc.fanoutTotal.WithLabelValues(strings.ToLower(platform), operation, outcome).Inc()
}

// WriteTextfile writes all metrics in the Prometheus text exposition format.
func (mc *MetricsCollector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, mc.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func breakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}
