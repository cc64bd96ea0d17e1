// Package metrics exposes the pipeline's operational counters: queue
// depth, describer-lock wait time, and per-outcome processing counts.
// Grounded on the teacher's
// promauto-based registration style (internal/metrics/ai_metrics.go) and
// its Registry+promhttp.Handler exposure shape (internal/metrics/collector.go),
// rebuilt around this pipeline's own concerns rather than the teacher's
// gRPC media-plane/SFU polling, which has no equivalent component here.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

// QueueDepth tracks how many artifacts are currently admitted to the
// Processor's bounded queue but not yet drained.
var QueueDepth = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
	Name: "foscam_ingest_queue_depth",
	Help: "Current number of artifacts admitted to the processor queue awaiting a worker",
})

// DescriberLockWaitSeconds observes how long a worker waited to acquire
// the single describer-serializer lock before a describe call.
var DescriberLockWaitSeconds = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
	Name:    "foscam_ingest_describer_lock_wait_seconds",
	Help:    "Time spent waiting to acquire the describer-serializer lock",
	Buckets: prometheus.DefBuckets,
})

// ProcessedTotal counts terminal processing outcomes by kind: ingested,
// skipped_known, skipped_unrecognized, failed_transient, failed_permanent.
var ProcessedTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
	Name: "foscam_ingest_processed_total",
	Help: "Total artifacts reaching a terminal outcome, by outcome",
}, []string{"outcome"})

// CrawlFilesSeen counts files observed by bulk crawl runs, by the
// CrawlReport counter bucket they landed in.
var CrawlFilesSeen = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
	Name: "foscam_ingest_crawl_files_seen_total",
	Help: "Total files observed during crawl runs, by outcome bucket",
}, []string{"bucket"})

// Handler exposes the registry for mounting under /metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
