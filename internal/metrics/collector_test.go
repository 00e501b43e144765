package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_Eviction(t *testing.T) {
	ring := NewRing(MAX_SAMPLES)

	for i := 1; i <= MAX_SAMPLES+1; i++ {
		ring.Push(int64(i))
	}

	assert.Equal(t, MAX_SAMPLES, ring.Len(), "ring must never exceed its capacity")

	values := ring.Values()
	assert.Len(t, values, MAX_SAMPLES)
	assert.NotContains(t, values, int64(1), "oldest sample should have been evicted")
	assert.Contains(t, values, int64(MAX_SAMPLES+1), "newest sample should be present")
	assert.Equal(t, int64(2), values[0], "values are returned oldest first")
	assert.Equal(t, int64(MAX_SAMPLES+1), values[len(values)-1])
}

func TestRing_PartialFill(t *testing.T) {
	ring := NewRing(4)
	ring.Push(10)
	ring.Push(20)

	assert.Equal(t, 2, ring.Len())
	assert.Equal(t, 4, ring.Cap())
	assert.Equal(t, []int64{10, 20}, ring.Values())
	assert.Equal(t, 30.0, ring.Sum())

	ring.Push(30)
	ring.Push(40)
	ring.Push(50)
	assert.Equal(t, []int64{20, 30, 40, 50}, ring.Values())
	assert.Equal(t, 140.0, ring.Sum())
}

func TestPercentile(t *testing.T) {
	// case 1: empty series
	assert.Equal(t, 0.0, Percentile(nil, 0.5))

	// case 2: nearest rank, no interpolation
	samples := []int64{40, 10, 30, 20}
	assert.Equal(t, 20.0, Percentile(samples, 0.5), "floor(0.5*3) = 1")
	assert.Equal(t, 30.0, Percentile(samples, 0.95), "floor(0.95*3) = 2")
	assert.Equal(t, 30.0, Percentile(samples, 0.99), "floor(0.99*3) = 2")
	assert.Equal(t, []int64{40, 10, 30, 20}, samples, "input must not be reordered")

	// case 3: idempotent and ordered over 1..1000
	series := make([]int64, 0, 1000)
	for i := 1000; i >= 1; i-- {
		series = append(series, int64(i))
	}
	p50 := Percentile(series, 0.5)
	p95 := Percentile(series, 0.95)
	p99 := Percentile(series, 0.99)
	assert.Equal(t, 500.0, p50)
	assert.Equal(t, 950.0, p95)
	assert.Equal(t, 990.0, p99)
	assert.Equal(t, p99, Percentile(series, 0.99))
	assert.LessOrEqual(t, p50, p95)
	assert.LessOrEqual(t, p95, p99)
}

func TestStatsOf_MatchesPercentile(t *testing.T) {
	ring := NewRing(100)
	for i := 0; i < 250; i++ {
		ring.Push(int64((i * 37) % 101))
	}
	values := ring.Values()

	stats := statsOf(ring)
	assert.Equal(t, Percentile(values, 0.5), stats.p50)
	assert.Equal(t, Percentile(values, 0.95), stats.p95)
	assert.Equal(t, Percentile(values, 0.99), stats.p99)
	assert.Equal(t, 100, stats.count)
	assert.LessOrEqual(t, stats.p50, stats.p95)
	assert.LessOrEqual(t, stats.p95, stats.p99)
	assert.Equal(t, values, ring.Values(), "ring order must survive the sort")

	// case 2: empty ring
	assert.Equal(t, seriesStats{}, statsOf(NewRing(10)))
}

func TestCollector_RenderEmpty(t *testing.T) {
	c := NewCollector()

	expected := "# HELP thumbnail_requests_total Total number of thumbnail requests\n" +
		"# TYPE thumbnail_requests_total counter\n" +
		"thumbnail_requests_total 0\n\n" +
		"# HELP thumbnail_requests_successful_total Total number of successful thumbnail requests\n" +
		"# TYPE thumbnail_requests_successful_total counter\n" +
		"thumbnail_requests_successful_total 0\n\n" +
		"# HELP thumbnail_requests_failed_total Total number of failed thumbnail requests\n" +
		"# TYPE thumbnail_requests_failed_total counter\n" +
		"thumbnail_requests_failed_total 0\n\n"

	assert.Equal(t, expected, c.Render())
	assert.NotContains(t, c.Render(), "thumbnail_request_duration_microseconds", "empty series must be omitted")
}

func TestCollector_RenderWithSamples(t *testing.T) {
	c := NewCollector()
	c.RecordRequest(1000, 400)
	c.RecordRequest(3000, 600)

	expected := "# HELP thumbnail_requests_total Total number of thumbnail requests\n" +
		"# TYPE thumbnail_requests_total counter\n" +
		"thumbnail_requests_total 2\n\n" +
		"# HELP thumbnail_requests_successful_total Total number of successful thumbnail requests\n" +
		"# TYPE thumbnail_requests_successful_total counter\n" +
		"thumbnail_requests_successful_total 2\n\n" +
		"# HELP thumbnail_requests_failed_total Total number of failed thumbnail requests\n" +
		"# TYPE thumbnail_requests_failed_total counter\n" +
		"thumbnail_requests_failed_total 0\n\n" +
		"# HELP thumbnail_request_duration_microseconds Total request duration in microseconds\n" +
		"# TYPE thumbnail_request_duration_microseconds histogram\n" +
		"thumbnail_request_duration_microseconds{quantile=\"0.5\"} 1000.00\n" +
		"thumbnail_request_duration_microseconds{quantile=\"0.95\"} 1000.00\n" +
		"thumbnail_request_duration_microseconds{quantile=\"0.99\"} 1000.00\n" +
		"thumbnail_request_duration_microseconds_sum 4000.00\n" +
		"thumbnail_request_duration_microseconds_count 2\n\n" +
		"# HELP thumbnail_processing_duration_microseconds Image processing duration in microseconds\n" +
		"# TYPE thumbnail_processing_duration_microseconds histogram\n" +
		"thumbnail_processing_duration_microseconds{quantile=\"0.5\"} 400.00\n" +
		"thumbnail_processing_duration_microseconds{quantile=\"0.95\"} 400.00\n" +
		"thumbnail_processing_duration_microseconds{quantile=\"0.99\"} 400.00\n" +
		"thumbnail_processing_duration_microseconds_sum 1000.00\n" +
		"thumbnail_processing_duration_microseconds_count 2\n\n" +
		"# HELP thumbnail_performance_status Current performance status (1 = meeting <50ms goal)\n" +
		"# TYPE thumbnail_performance_status gauge\n" +
		"thumbnail_performance_status 1.00\n\n" +
		"# HELP thumbnail_p99_latency_ms 99th percentile latency in milliseconds\n" +
		"# TYPE thumbnail_p99_latency_ms gauge\n" +
		"thumbnail_p99_latency_ms 1.00\n"

	assert.Equal(t, expected, c.Render())
}

func TestCollector_PerformanceStatusMissed(t *testing.T) {
	c := NewCollector()
	c.RecordRequest(75000, 70000)

	out := c.Render()
	assert.Contains(t, out, "thumbnail_performance_status 0.00\n")
	assert.Contains(t, out, "thumbnail_p99_latency_ms 75.00\n")
}

func TestCollector_ConcurrentRecord(t *testing.T) {
	c := NewCollector()

	const sessions = 64
	const perSession = 50

	var wg sync.WaitGroup
	for i := 0; i < sessions; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perSession; j++ {
				c.RecordRequest(int64(i*perSession+j), int64(j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(sessions*perSession), c.TotalRequests())
	assert.Equal(t, int64(sessions*perSession), c.SuccessfulRequests())
	assert.Equal(t, int64(0), c.FailedRequests())

	snap := c.Snapshot()
	assert.Equal(t, MAX_SAMPLES, snap.SampleCount, "ring keeps only the most recent samples")
	assert.LessOrEqual(t, snap.TotalP50, snap.TotalP95)
	assert.LessOrEqual(t, snap.TotalP95, snap.TotalP99)
}

func TestCollector_WriteTo(t *testing.T) {
	c := NewCollectorWithCapacity(3)
	for i := 1; i <= 4; i++ {
		c.RecordRequest(int64(i*100), int64(i*10))
	}

	var sb strings.Builder
	n, err := c.WriteTo(&sb)
	require.NoError(t, err)
	assert.Equal(t, int64(sb.Len()), n)
	assert.Contains(t, sb.String(), "thumbnail_request_duration_microseconds_count 3\n")
	assert.Contains(t, sb.String(), "thumbnail_request_duration_microseconds_sum 900.00\n")
	assert.Contains(t, sb.String(), "thumbnail_requests_total 4\n")
}
