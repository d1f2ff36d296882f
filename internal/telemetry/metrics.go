// Package telemetry exposes Prometheus collectors behind a small
// Collector interface so services can be tested with the noop
// implementation.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanpay_scan_duration_seconds",
		Help:    "Duration of completed scan attempts",
		Buckets: prometheus.DefBuckets,
	})

	scanAdvisories = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanpay_scan_advisories_total",
		Help: "Performance threshold advisories by kind",
	}, []string{"kind"})

	rateLimitDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanpay_rate_limit_denied_total",
		Help: "Scan submissions denied by the rate limiter",
	}, []string{"reason"})

	securityEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanpay_security_events_total",
		Help: "Security events by type",
	}, []string{"event"})

	transactionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanpay_transactions_total",
		Help: "Processed transactions by type and status",
	}, []string{"type", "status"})

	transactionAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanpay_transaction_amount_idr_total",
		Help: "Total completed transaction amount in IDR",
	})

	gatewayLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanpay_gateway_latency_seconds",
		Help:    "Latency of gateway calls",
		Buckets: prometheus.DefBuckets,
	})
)

// Collector records service-level metrics.
type Collector interface {
	RecordScanDuration(d time.Duration)
	RecordScanAdvisory(kind string)
	RecordRateLimitDenied(reason string)
	RecordSecurityEvent(event string)
	RecordTransactionOutcome(txType, status string)
	RecordTransactionAmount(amount float64)
	RecordGatewayLatency(d time.Duration)
}

// PrometheusCollector writes to the package collectors.
type PrometheusCollector struct{}

func NewPrometheusCollector() *PrometheusCollector { return &PrometheusCollector{} }

func (p *PrometheusCollector) RecordScanDuration(d time.Duration) {
	scanDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordScanAdvisory(kind string) {
	scanAdvisories.WithLabelValues(kind).Inc()
}

func (p *PrometheusCollector) RecordRateLimitDenied(reason string) {
	rateLimitDenied.WithLabelValues(reason).Inc()
}

func (p *PrometheusCollector) RecordSecurityEvent(event string) {
	securityEvents.WithLabelValues(event).Inc()
}

func (p *PrometheusCollector) RecordTransactionOutcome(txType, status string) {
	transactionOutcomes.WithLabelValues(txType, status).Inc()
}

func (p *PrometheusCollector) RecordTransactionAmount(amount float64) {
	transactionAmount.Add(amount)
}

func (p *PrometheusCollector) RecordGatewayLatency(d time.Duration) {
	gatewayLatency.Observe(d.Seconds())
}

// NoopCollector is a no-op implementation of Collector.
type NoopCollector struct{}

func (n *NoopCollector) RecordScanDuration(time.Duration) {}
func (n *NoopCollector) RecordScanAdvisory(string)        {}
func (n *NoopCollector) RecordRateLimitDenied(string)     {}
func (n *NoopCollector) RecordSecurityEvent(string)       {}

func (n *NoopCollector) RecordTransactionOutcome(string, string) {}
func (n *NoopCollector) RecordTransactionAmount(float64)         {}
func (n *NoopCollector) RecordGatewayLatency(time.Duration)      {}
