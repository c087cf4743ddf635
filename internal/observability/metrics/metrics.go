package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SweepMetrics counts staleness sweep activity.
type SweepMetrics struct {
	runs        prometheus.Counter
	skips       prometheus.Counter
	errors      prometheus.Counter
	transitions prometheus.Counter
	duration    prometheus.Histogram
}

var (
	sweepOnce sync.Once
	sweep     *SweepMetrics
)

// Sweep returns the process-wide sweep metrics.
func Sweep() *SweepMetrics {
	sweepOnce.Do(func() {
		sweep = &SweepMetrics{
			runs: promauto.NewCounter(prometheus.CounterOpts{
				Name: "fleetwatch_sweep_runs_total",
				Help: "Number of staleness sweep executions.",
			}),
			skips: promauto.NewCounter(prometheus.CounterOpts{
				Name: "fleetwatch_sweep_skips_total",
				Help: "Sweep ticks skipped because a sweep was already running.",
			}),
			errors: promauto.NewCounter(prometheus.CounterOpts{
				Name: "fleetwatch_sweep_errors_total",
				Help: "Sweep executions that failed.",
			}),
			transitions: promauto.NewCounter(prometheus.CounterOpts{
				Name: "fleetwatch_sweep_transitions_total",
				Help: "Devices demoted to inactive by the sweep.",
			}),
			duration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "fleetwatch_sweep_duration_seconds",
				Help:    "Duration of sweep executions.",
				Buckets: prometheus.DefBuckets,
			}),
		}
	})
	return sweep
}

func (m *SweepMetrics) IncRun()  { m.runs.Inc() }
func (m *SweepMetrics) IncSkip() { m.skips.Inc() }
func (m *SweepMetrics) IncError() {
	m.errors.Inc()
}

func (m *SweepMetrics) AddTransitions(n int64) {
	if n > 0 {
		m.transitions.Add(float64(n))
	}
}

func (m *SweepMetrics) ObserveDuration(d time.Duration) {
	m.duration.Observe(d.Seconds())
}

// HTTPMetrics tracks request counts and latencies by route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetwatch_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fleetwatch_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *HTTPMetrics) Observe(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}
