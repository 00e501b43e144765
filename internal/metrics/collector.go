package metrics

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"thumbnail-service/internal/domain"
)

const MAX_SAMPLES = 1000

// Latency goal behind thumbnail_performance_status.
const PERFORMANCE_GOAL_MS = 50.0

// Collector owns the request counters and the two timing series. Counters
// are updated lock free; both rings share one mutex so appends and snapshot
// reads always see the series at the same length.
type Collector struct {
	totalRequests      atomic.Int64
	successfulRequests atomic.Int64
	failedRequests     atomic.Int64

	mu              sync.Mutex
	totalTimes      *Ring
	processingTimes *Ring
}

func NewCollector() *Collector {
	return NewCollectorWithCapacity(MAX_SAMPLES)
}

func NewCollectorWithCapacity(capacity int) *Collector {
	return &Collector{
		totalTimes:      NewRing(capacity),
		processingTimes: NewRing(capacity),
	}
}

// RecordRequest counts one successful upload and stores its timings.
func (c *Collector) RecordRequest(totalMicros, processingMicros int64) {
	c.totalRequests.Add(1)
	c.successfulRequests.Add(1)

	c.mu.Lock()
	c.totalTimes.Push(totalMicros)
	c.processingTimes.Push(processingMicros)
	c.mu.Unlock()
}

func (c *Collector) TotalRequests() int64 {
	return c.totalRequests.Load()
}

func (c *Collector) SuccessfulRequests() int64 {
	return c.successfulRequests.Load()
}

// FailedRequests is exported for completeness. Nothing increments it: failed
// uploads are answered but never recorded.
func (c *Collector) FailedRequests() int64 {
	return c.failedRequests.Load()
}

// Percentile returns the nearest-rank value at floor(p*(n-1)) of the sorted
// samples, or 0 for an empty series. samples is not modified.
func Percentile(samples []int64, p float64) float64 {
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	return percentileOfSorted(sorted, p)
}

func percentileOfSorted(sorted []int64, p float64) float64 {
	if len(sorted) == 0 {
		return 0.0
	}
	return float64(sorted[int(p*float64(len(sorted)-1))])
}

type seriesStats struct {
	p50, p95, p99 float64
	sum           float64
	count         int
}

// statsOf sorts one copy of the ring and reads all three quantiles from it.
func statsOf(r *Ring) seriesStats {
	values := r.Values()
	if len(values) == 0 {
		return seriesStats{}
	}
	slices.Sort(values)
	return seriesStats{
		p50:   percentileOfSorted(values, 0.5),
		p95:   percentileOfSorted(values, 0.95),
		p99:   percentileOfSorted(values, 0.99),
		sum:   r.Sum(),
		count: len(values),
	}
}

// Render returns the exposition text scraped from GET /metrics.
func (c *Collector) Render() string {
	var sb strings.Builder
	c.WriteTo(&sb)
	return sb.String()
}

func (c *Collector) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	writeCounter(&sb, "thumbnail_requests_total", "Total number of thumbnail requests", c.totalRequests.Load())
	writeCounter(&sb, "thumbnail_requests_successful_total", "Total number of successful thumbnail requests", c.successfulRequests.Load())
	writeCounter(&sb, "thumbnail_requests_failed_total", "Total number of failed thumbnail requests", c.failedRequests.Load())

	c.mu.Lock()
	total := statsOf(c.totalTimes)
	processing := statsOf(c.processingTimes)
	c.mu.Unlock()

	if total.count > 0 {
		writeSummary(&sb, "thumbnail_request_duration_microseconds", "Total request duration in microseconds", total)
	}
	if processing.count > 0 {
		writeSummary(&sb, "thumbnail_processing_duration_microseconds", "Image processing duration in microseconds", processing)
	}

	if total.count > 0 {
		p99ms := total.p99 / 1000.0
		status := 0.0
		if p99ms < PERFORMANCE_GOAL_MS {
			status = 1.0
		}
		sb.WriteString("# HELP thumbnail_performance_status Current performance status (1 = meeting <50ms goal)\n")
		sb.WriteString("# TYPE thumbnail_performance_status gauge\n")
		fmt.Fprintf(&sb, "thumbnail_performance_status %.2f\n\n", status)

		sb.WriteString("# HELP thumbnail_p99_latency_ms 99th percentile latency in milliseconds\n")
		sb.WriteString("# TYPE thumbnail_p99_latency_ms gauge\n")
		fmt.Fprintf(&sb, "thumbnail_p99_latency_ms %.2f\n", p99ms)
	}

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func writeCounter(sb *strings.Builder, name, help string, value int64) {
	fmt.Fprintf(sb, "# HELP %s %s\n", name, help)
	fmt.Fprintf(sb, "# TYPE %s counter\n", name)
	fmt.Fprintf(sb, "%s %d\n\n", name, value)
}

func writeSummary(sb *strings.Builder, name, help string, s seriesStats) {
	fmt.Fprintf(sb, "# HELP %s %s\n", name, help)
	fmt.Fprintf(sb, "# TYPE %s histogram\n", name)
	fmt.Fprintf(sb, "%s{quantile=\"0.5\"} %.2f\n", name, s.p50)
	fmt.Fprintf(sb, "%s{quantile=\"0.95\"} %.2f\n", name, s.p95)
	fmt.Fprintf(sb, "%s{quantile=\"0.99\"} %.2f\n", name, s.p99)
	fmt.Fprintf(sb, "%s_sum %.2f\n", name, s.sum)
	fmt.Fprintf(sb, "%s_count %d\n\n", name, s.count)
}

// Snapshot copies the counters and percentiles for persistence.
func (c *Collector) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		Timestamp:          time.Now().Unix(),
		TotalRequests:      c.totalRequests.Load(),
		SuccessfulRequests: c.successfulRequests.Load(),
		FailedRequests:     c.failedRequests.Load(),
	}

	c.mu.Lock()
	total := statsOf(c.totalTimes)
	processing := statsOf(c.processingTimes)
	c.mu.Unlock()

	snap.SampleCount = total.count
	snap.TotalP50, snap.TotalP95, snap.TotalP99 = total.p50, total.p95, total.p99
	snap.ProcessingP50, snap.ProcessingP95, snap.ProcessingP99 = processing.p50, processing.p95, processing.p99
	return snap
}
