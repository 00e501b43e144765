package main

import (
	"context"
	"log"
	"math/rand"
	"path/filepath"
	"time"

	"thumbnail-service/internal/config"
	"thumbnail-service/internal/domain"
	"thumbnail-service/internal/metrics"
	"thumbnail-service/internal/repository"
	"thumbnail-service/internal/util"
)

// ingest seeds the snapshot history with five minutes of synthetic traffic so
// /metrics/history has something to show on a fresh install.
func main() {

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	util.CheckAndCreateLogFolder(filepath.Dir(cfg.History.DBPath))

	sqliteStore := repository.NewSQLiteStore(cfg.History.DBPath)
	if err := sqliteStore.Init(); err != nil {
		log.Fatalf("Failed to initialize SQLite store for ingestion: %v", err)
	}
	defer sqliteStore.Close()

	generateAndIngest(sqliteStore)
}

func generateAndIngest(s domain.SnapshotStore) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	endTime := time.Now()
	startTime := endTime.Add(-5 * time.Minute)

	log.Printf("Ingesting snapshots from %s to %s (past 5 minutes)...", startTime.Format(time.RFC3339), endTime.Format(time.RFC3339))

	ctx := context.Background()
	collector := metrics.NewCollector()

	for t := startTime; t.Before(endTime) || t.Equal(endTime); t = t.Add(10 * time.Second) {

		uploads := rng.Intn(50)
		for i := 0; i < uploads; i++ {
			processing := 2000 + rng.Int63n(60000)
			total := processing + rng.Int63n(5000)
			collector.RecordRequest(total, processing)
		}

		snap := collector.Snapshot()
		snap.Timestamp = t.Unix()

		if err := s.StoreSnapshot(ctx, snap); err != nil {
			log.Printf("Error inserting snapshot for timestamp %d: %v", snap.Timestamp, err)
			continue
		}
	}

	log.Println("Snapshot ingestion complete.")
}
