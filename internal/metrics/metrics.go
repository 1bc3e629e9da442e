package metrics

import (
	"context"
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for one scanner run.
type Metrics struct {
	Registry *prometheus.Registry

	AssetsAnalyzed      prometheus.Counter
	AnalysisErrors      *prometheus.CounterVec // labels: kind
	SetupsMatched       *prometheus.CounterVec // labels: setup
	AlertsSent          prometheus.Counter
	AlertsSuppressed    prometheus.Counter
	NotifyFailures      prometheus.Counter
	ThrottleErrors      prometheus.Counter
	SupertrendFallbacks prometheus.Counter
	AnalysisDur         prometheus.Histogram
	LastScore           *prometheus.GaugeVec // labels: asset

	// Circuit breaker (redis throttle backend)
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=open, 2=half-open
	RedisCircuitBreakerTrips prometheus.Counter
}

// NewMetrics creates the scanner metrics on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		AssetsAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_assets_analyzed_total",
			Help: "Assets whose indicator frame was computed",
		}),
		AnalysisErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_analysis_errors_total",
			Help: "Per-asset analysis failures (by kind)",
		}, []string{"kind"}),
		SetupsMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scanner_setups_matched_total",
			Help: "Setup matches (by setup id)",
		}, []string{"setup"}),
		AlertsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_alerts_sent_total",
			Help: "Alerts delivered to the notifier",
		}),
		AlertsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_alerts_suppressed_total",
			Help: "Alerts suppressed by the throttle cooldown",
		}),
		NotifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_notification_failures_total",
			Help: "Notifier delivery failures",
		}),
		ThrottleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_throttle_errors_total",
			Help: "Throttle store read/write failures",
		}),
		SupertrendFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_supertrend_fallbacks_total",
			Help: "Frames computed with the Supertrend all-up fallback",
		}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scanner_analysis_duration_seconds",
			Help:    "Per-asset analysis latency including fetch and notify",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		LastScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scanner_last_score",
			Help: "Score of the last matched setup (by asset)",
		}, []string{"asset"}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scanner_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=open, 2=half-open)",
		}),
		RedisCircuitBreakerTrips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scanner_redis_circuit_breaker_trips_total",
			Help: "Times the Redis circuit breaker tripped open",
		}),
	}

	m.Registry.MustRegister(
		m.AssetsAnalyzed,
		m.AnalysisErrors,
		m.SetupsMatched,
		m.AlertsSent,
		m.AlertsSuppressed,
		m.NotifyFailures,
		m.ThrottleErrors,
		m.SupertrendFallbacks,
		m.AnalysisDur,
		m.LastScore,
		m.RedisCircuitBreakerState,
		m.RedisCircuitBreakerTrips,
	)

	return m
}

// ObserveBreaker records a circuit breaker transition. States are passed as
// their numeric gauge value; entering 1 (open) counts a trip.
func (m *Metrics) ObserveBreaker(to int) {
	m.RedisCircuitBreakerState.Set(float64(to))
	if to == 1 {
		m.RedisCircuitBreakerTrips.Inc()
	}
}

// Push sends the registry to a Prometheus Pushgateway under job, grouped by
// instance. An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url, job, instance string) error {
	if url == "" {
		return nil
	}
	p := push.New(url, job).Gatherer(m.Registry)
	if instance != "" {
		p = p.Grouping("instance", instance)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("metrics: push to %s: %w", url, err)
	}
	log.Printf("[metrics] pushed to %s (job=%s)", url, job)
	return nil
}
