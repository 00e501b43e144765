package domain

import "context"

// Snapshot is a point-in-time copy of the collector's counters and latency
// percentiles. Percentiles are in microseconds.
type Snapshot struct {
	Timestamp          int64   `json:"timestamp"`
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	SampleCount        int     `json:"sample_count"`
	TotalP50           float64 `json:"total_p50_us"`
	TotalP95           float64 `json:"total_p95_us"`
	TotalP99           float64 `json:"total_p99_us"`
	ProcessingP50      float64 `json:"processing_p50_us"`
	ProcessingP95      float64 `json:"processing_p95_us"`
	ProcessingP99      float64 `json:"processing_p99_us"`
}

type SnapshotStore interface {
	Init() error
	StoreSnapshot(ctx context.Context, snapshot Snapshot) error
	GetSnapshots(ctx context.Context, startTime, endTime int64, limit, offset int) ([]Snapshot, error)
	Close() error
}
