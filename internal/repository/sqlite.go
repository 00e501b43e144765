package repository

import (
	"context"
	"database/sql"
	"fmt"

	"thumbnail-service/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{dbPath: path}
}

func (s *SQLiteStore) Init() error {
	var err error

	s.db, err = sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS snapshots (
		timestamp INTEGER PRIMARY KEY,
		total_requests INTEGER,
		successful_requests INTEGER,
		failed_requests INTEGER,
		sample_count INTEGER,
		total_p50 REAL,
		total_p95 REAL,
		total_p99 REAL,
		processing_p50 REAL,
		processing_p95 REAL,
		processing_p99 REAL
	);`

	_, err = s.db.Exec(createTableSQL)
	if err != nil {
		return fmt.Errorf("error creating table: %w", err)
	}
	return nil
}

// StoreSnapshot replaces any snapshot already stored for the same second.
func (s *SQLiteStore) StoreSnapshot(ctx context.Context, snap domain.Snapshot) error {
	stmt, err := s.db.PrepareContext(ctx, `INSERT OR REPLACE INTO snapshots(
		timestamp, total_requests, successful_requests, failed_requests, sample_count,
		total_p50, total_p95, total_p99, processing_p50, processing_p95, processing_p99
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		snap.Timestamp, snap.TotalRequests, snap.SuccessfulRequests, snap.FailedRequests, snap.SampleCount,
		snap.TotalP50, snap.TotalP95, snap.TotalP99,
		snap.ProcessingP50, snap.ProcessingP95, snap.ProcessingP99,
	)
	if err != nil {
		return fmt.Errorf("error inserting snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSnapshots(ctx context.Context, startTime, endTime int64, limit, offset int) ([]domain.Snapshot, error) {
	query := `SELECT timestamp, total_requests, successful_requests, failed_requests, sample_count,
		total_p50, total_p95, total_p99, processing_p50, processing_p95, processing_p99
		FROM snapshots WHERE timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC`
	args := []interface{}{startTime, endTime}

	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ?"
	args = append(args, limit)

	if offset < 0 {
		offset = 0
	}
	query += " OFFSET ?"
	args = append(args, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.Snapshot

	for rows.Next() {
		var snap domain.Snapshot

		if err := rows.Scan(
			&snap.Timestamp, &snap.TotalRequests, &snap.SuccessfulRequests, &snap.FailedRequests, &snap.SampleCount,
			&snap.TotalP50, &snap.TotalP95, &snap.TotalP99,
			&snap.ProcessingP50, &snap.ProcessingP95, &snap.ProcessingP99,
		); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		snapshots = append(snapshots, snap)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return snapshots, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
