// Package metrics exposes Prometheus counters for trading activity.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Trade outcomes
const (
	OutcomeExecuted = "executed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Collector records trading metrics on its own registry
type Collector struct {
	registry          *prometheus.Registry
	trades            *prometheus.CounterVec
	priceFetches      *prometheus.CounterVec
	priceFetchLatency prometheus.Histogram
	accountOps        *prometheus.CounterVec
	activeSessions    prometheus.Gauge
	logger            *slog.Logger
}

// NewCollector creates a collector with all metrics registered
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		trades: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrade_trades_total",
			Help: "Trades attempted, by side and outcome",
		}, []string{"side", "outcome"}),
		priceFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrade_price_fetches_total",
			Help: "Price lookups, by result",
		}, []string{"result"}),
		priceFetchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "papertrade_price_fetch_duration_seconds",
			Help:    "Time taken to fetch a quote",
			Buckets: prometheus.DefBuckets,
		}),
		accountOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "papertrade_account_operations_total",
			Help: "Account operations, by operation and outcome",
		}, []string{"operation", "outcome"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "papertrade_active_sessions",
			Help: "Sessions currently logged in",
		}),
		logger: logger,
	}
}

// RecordTrade counts one buy or sell attempt
func (c *Collector) RecordTrade(side, outcome string) {
	if c == nil {
		return
	}
	c.trades.WithLabelValues(side, outcome).Inc()
}

// RecordPriceFetch observes one quote lookup
func (c *Collector) RecordPriceFetch(duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.priceFetches.WithLabelValues(result).Inc()
	c.priceFetchLatency.Observe(duration.Seconds())
}

// RecordAccountOperation counts register, login, or delete attempts
func (c *Collector) RecordAccountOperation(operation string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.accountOps.WithLabelValues(operation, outcome).Inc()
}

// SessionOpened increments the active session gauge
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.activeSessions.Inc()
}

// SessionClosed decrements the active session gauge
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.activeSessions.Dec()
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(c.logger.Handler(), slog.LevelError),
	})
}
