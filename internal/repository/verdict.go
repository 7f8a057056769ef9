// Package repository persists completed bias verdicts for audit.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fairtrial-bias-server/internal/domain"
)

// SQLiteVerdictStore implements domain.VerdictRepository on a local
// SQLite database.
type SQLiteVerdictStore struct {
	db     *sql.DB
	dbPath string
}

var _ domain.VerdictRepository = (*SQLiteVerdictStore)(nil)

// NewSQLiteVerdictStore opens (creating if needed) the verdict database
// at dbPath and ensures the schema exists.
func NewSQLiteVerdictStore(dbPath string) (*SQLiteVerdictStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteVerdictStore{db: db, dbPath: dbPath}, nil
}

// NewVerdictStoreWithDB wraps an existing database handle. Used by tests
// that inject a mock connection.
func NewVerdictStoreWithDB(db *sql.DB) *SQLiteVerdictStore {
	return &SQLiteVerdictStore{db: db}
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS verdicts (
		id TEXT PRIMARY KEY,
		trial_id TEXT NOT NULL,
		filename TEXT DEFAULT '',
		raw_data_hash TEXT NOT NULL,
		decision TEXT NOT NULL,
		fairness_score REAL NOT NULL,
		verdict_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_verdicts_trial_id ON verdicts(trial_id);
	CREATE INDEX IF NOT EXISTS idx_verdicts_raw_data_hash ON verdicts(raw_data_hash);
	CREATE INDEX IF NOT EXISTS idx_verdicts_created_at ON verdicts(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Save inserts an audit record. A missing ID or timestamp is filled in
// and written back to the record.
func (s *SQLiteVerdictStore) Save(ctx context.Context, record *domain.VerdictRecord) error {
	if !record.Verdict.Decision.IsValid() {
		return domain.ErrInvalidDecision
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	verdictJSON, err := json.Marshal(record.Verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts (
			id, trial_id, filename, raw_data_hash,
			decision, fairness_score, verdict_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.TrialID,
		record.Filename,
		record.RawDataHash,
		record.Verdict.Decision.String(),
		record.Verdict.FairnessScore,
		string(verdictJSON),
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert verdict: %w", err)
	}
	return nil
}

// GetByID retrieves a single verdict record, or domain.ErrNotFound.
func (s *SQLiteVerdictStore) GetByID(ctx context.Context, id string) (*domain.VerdictRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, trial_id, filename, raw_data_hash, verdict_json, created_at
		FROM verdicts
		WHERE id = ?
		LIMIT 1
	`, id)

	record, err := scanVerdict(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan verdict: %w", err)
	}
	return record, nil
}

// ListRecent returns up to limit records, newest first.
func (s *SQLiteVerdictStore) ListRecent(ctx context.Context, limit int) ([]*domain.VerdictRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trial_id, filename, raw_data_hash, verdict_json, created_at
		FROM verdicts
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var records []*domain.VerdictRecord
	for rows.Next() {
		record, err := scanVerdict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verdict: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteVerdictStore) Close() error {
	return s.db.Close()
}

// scanner covers sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVerdict(s scanner) (*domain.VerdictRecord, error) {
	record := &domain.VerdictRecord{}
	var verdictJSON string

	err := s.Scan(
		&record.ID, &record.TrialID, &record.Filename,
		&record.RawDataHash, &verdictJSON, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(verdictJSON), &record.Verdict); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verdict: %w", err)
	}
	return record, nil
}
