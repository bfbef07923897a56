// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers counters for the admin engine.
type Collector struct {
	httpStatus        *prometheus.CounterVec
	requestLatency    prometheus.Histogram
	statusTransitions *prometheus.CounterVec
	cascadeDeletes    prometheus.Counter
	cascadePartial    prometheus.Counter
	thumbnails        prometheus.Counter
	orphansReclaimed  prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medexpense_http_status_total",
			Help: "Responses by HTTP status code.",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "medexpense_request_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medexpense_status_transitions_total",
			Help: "Expense approval decisions by resulting status.",
		}, []string{"status"}),
		cascadeDeletes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medexpense_cascade_deletes_total",
			Help: "Completed employee cascade deletions.",
		}),
		cascadePartial: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medexpense_cascade_partial_total",
			Help: "Cascade deletions that completed partially, leaving orphans.",
		}),
		thumbnails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medexpense_thumbnails_generated_total",
			Help: "Avatar thumbnails derived (cache misses).",
		}),
		orphansReclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medexpense_orphan_expenses_reclaimed_total",
			Help: "Orphan expense records removed by reconciliation.",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.statusTransitions,
		c.cascadeDeletes,
		c.cascadePartial,
		c.thumbnails,
		c.orphansReclaimed,
	)

	return c
}

// Nil receivers are tolerated so components can run without metrics wired.

func (c *Collector) RecordHTTPStatus(statusCode int) {
	if c == nil {
		return
	}
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

func (c *Collector) RecordRequestLatency(d time.Duration) {
	if c == nil {
		return
	}
	c.requestLatency.Observe(d.Seconds())
}

func (c *Collector) RecordStatusTransition(status string) {
	if c == nil {
		return
	}
	c.statusTransitions.WithLabelValues(status).Inc()
}

func (c *Collector) RecordCascadeDelete(partial bool) {
	if c == nil {
		return
	}
	if partial {
		c.cascadePartial.Inc()
		return
	}
	c.cascadeDeletes.Inc()
}

func (c *Collector) RecordThumbnailGenerated() {
	if c == nil {
		return
	}
	c.thumbnails.Inc()
}

func (c *Collector) RecordOrphansReclaimed(count int64) {
	if c == nil {
		return
	}
	c.orphansReclaimed.Add(float64(count))
}

// Handler returns the HTTP handler for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
