// Package metrics exposes the process's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors tracked by the planner.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	schedulerRuns    *prometheus.CounterVec
	blocksCreated    prometheus.Counter
	shortfallMinutes prometheus.Counter
}

// New builds a registry with the planner's collectors plus the standard Go
// and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests processed, by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "planner",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		schedulerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "scheduler",
			Name:      "runs_total",
			Help:      "Auto-scheduling runs, by outcome (complete or shortfall).",
		}, []string{"outcome"}),
		blocksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "scheduler",
			Name:      "blocks_created_total",
			Help:      "Time blocks committed by the auto-scheduler.",
		}),
		shortfallMinutes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "planner",
			Subsystem: "scheduler",
			Name:      "shortfall_minutes_total",
			Help:      "Minutes left unplaced when runs exhaust their horizon.",
		}),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.schedulerRuns,
		m.blocksCreated,
		m.shortfallMinutes,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveSchedulerRun records one finished scheduling run.
func (m *Metrics) ObserveSchedulerRun(blocksCreated, remainingMinutes int) {
	if m == nil {
		return
	}
	outcome := "complete"
	if remainingMinutes > 0 {
		outcome = "shortfall"
		m.shortfallMinutes.Add(float64(remainingMinutes))
	}
	m.schedulerRuns.WithLabelValues(outcome).Inc()
	m.blocksCreated.Add(float64(blocksCreated))
}
