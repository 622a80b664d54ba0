package prometheus

import (
	"strconv"
	"time"

	"github.com/turtacn/foia-tracker/internal/application/ports"
	"github.com/turtacn/foia-tracker/internal/domain/request"
)

// AppMetrics holds all tracker metrics and implements ports.Metrics.
type AppMetrics struct {
	// HTTP Layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Tracking
	RequestsCreatedTotal CounterVec
	StatusChangesTotal   CounterVec
	RequestsByStatus     GaugeVec
	RequestsOverdue      GaugeVec

	// Alerting
	AlertsEmittedTotal CounterVec
	ScanDuration       HistogramVec
	ScanRequestsTotal  CounterVec
	ScanWarningsTotal  CounterVec

	// Appeals
	AppealsGeneratedTotal CounterVec

	// Infrastructure
	CacheAccessTotal      CounterVec
	MessagesHandledTotal  CounterVec
	MessageHandleDuration HistogramVec
}

var _ ports.Metrics = (*AppMetrics)(nil)

var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultScanDurationBuckets = []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	// HTTP
	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "Active HTTP requests", "method")

	// Tracking
	m.RequestsCreatedTotal = collector.RegisterCounter("requests_created_total", "Requests registered", "jurisdiction")
	m.StatusChangesTotal = collector.RegisterCounter("request_status_changes_total", "Request status transitions", "from", "to")
	m.RequestsByStatus = collector.RegisterGauge("requests", "Requests by stored status at the last snapshot", "status")
	m.RequestsOverdue = collector.RegisterGauge("requests_overdue", "Requests past their overdue instant at the last snapshot")

	// Alerting
	m.AlertsEmittedTotal = collector.RegisterCounter("alerts_emitted_total", "Alerts emitted", "kind", "threshold")
	m.ScanDuration = collector.RegisterHistogram("alert_scan_duration_seconds", "Alert scan duration", DefaultScanDurationBuckets)
	m.ScanRequestsTotal = collector.RegisterCounter("alert_scan_requests_total", "Requests examined by alert scans")
	m.ScanWarningsTotal = collector.RegisterCounter("alert_scan_warnings_total", "Per-request failures skipped by alert scans")

	// Appeals
	m.AppealsGeneratedTotal = collector.RegisterCounter("appeals_generated_total", "Appeals generated", "type")

	// Infrastructure
	m.CacheAccessTotal = collector.RegisterCounter("cache_access_total", "Record cache lookups", "result")
	m.MessagesHandledTotal = collector.RegisterCounter("messages_handled_total", "Inbound messages handled", "topic", "outcome")
	m.MessageHandleDuration = collector.RegisterHistogram("message_handle_duration_seconds", "Inbound message handling duration", DefaultHTTPDurationBuckets, "topic")

	return m
}

func (m *AppMetrics) RequestCreated(jurisdiction string) {
	m.RequestsCreatedTotal.WithLabelValues(jurisdiction).Inc()
}

func (m *AppMetrics) StatusChanged(from, to string) {
	m.StatusChangesTotal.WithLabelValues(from, to).Inc()
}

func (m *AppMetrics) AlertEmitted(kind, thresholdID string) {
	m.AlertsEmittedTotal.WithLabelValues(kind, thresholdID).Inc()
}

func (m *AppMetrics) ScanCompleted(d time.Duration, scanned, warnings int) {
	m.ScanDuration.WithLabelValues().Observe(d.Seconds())
	m.ScanRequestsTotal.WithLabelValues().Add(float64(scanned))
	m.ScanWarningsTotal.WithLabelValues().Add(float64(warnings))
}

func (m *AppMetrics) AppealGenerated(appealType string) {
	m.AppealsGeneratedTotal.WithLabelValues(appealType).Inc()
}

// ObserveStats replaces the status gauges with a fresh snapshot.
func (m *AppMetrics) ObserveStats(st request.Stats) {
	m.RequestsByStatus.Reset()
	for status, n := range st.ByStatus {
		m.RequestsByStatus.WithLabelValues(string(status)).Set(float64(n))
	}
	m.RequestsOverdue.WithLabelValues().Set(float64(st.Overdue))
}

// Helpers

func RecordHTTPRequest(metrics *AppMetrics, method, route string, statusCode int, duration time.Duration) {
	metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordCacheAccess(metrics *AppMetrics, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.CacheAccessTotal.WithLabelValues(result).Inc()
}

func RecordMessage(metrics *AppMetrics, topic string, err error, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.MessagesHandledTotal.WithLabelValues(topic, outcome).Inc()
	metrics.MessageHandleDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

//Personal.AI order the ending
