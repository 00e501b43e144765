package history

import (
	"context"
	"time"

	"thumbnail-service/internal/domain"
	"thumbnail-service/internal/util"
)

type SnapshotSource interface {
	Snapshot() domain.Snapshot
}

// Recorder periodically persists collector snapshots so latency can be
// inspected after the in-memory sample ring has rolled over.
type Recorder struct {
	source   SnapshotSource
	store    domain.SnapshotStore
	interval time.Duration
	logger   *util.ServiceLogger
}

func NewRecorder(source SnapshotSource, store domain.SnapshotStore, interval time.Duration, logger *util.ServiceLogger) *Recorder {
	return &Recorder{source: source, store: store, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled. A failed write is logged and retried on
// the next tick.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.RecordOnce(ctx)
		}
	}
}

func (r *Recorder) RecordOnce(ctx context.Context) {
	snap := r.source.Snapshot()
	if err := r.store.StoreSnapshot(ctx, snap); err != nil {
		r.logger.LogEvent(util.LOG_LEVEL_ERROR, "Failed to persist metrics snapshot. Err -", err)
		return
	}
	r.logger.LogEvent(util.LOG_LEVEL_DEBUG, "Persisted metrics snapshot. total requests -", snap.TotalRequests)
}
