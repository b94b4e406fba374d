package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"trendsync/submission"
)

// Store persists terminal submission records, so reruns can skip products
// that already went through and operators can inspect failures.
type Store struct {
	conn *sql.DB
}

// Config tunes the connection pool.
type Config struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens (and creates if needed) the sqlite database at dbPath.
func Open(dbPath string, config Config) (*Store, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		conn.SetMaxOpenConns(25)
	}

	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		conn.SetMaxIdleConns(5)
	}

	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{conn: conn}
	if err := store.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS submission_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			product_key TEXT NOT NULL UNIQUE,
			state TEXT NOT NULL,
			category_id INTEGER NOT NULL DEFAULT 0,
			brand_id INTEGER NOT NULL DEFAULT 0,
			batch_id TEXT NOT NULL DEFAULT '',
			attempt_count INTEGER NOT NULL DEFAULT 0,
			last_missing TEXT NOT NULL DEFAULT '',
			terminal_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_submission_records_state ON submission_records(state);

		CREATE TABLE IF NOT EXISTS taxonomy_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			node_count INTEGER NOT NULL,
			leaf_count INTEGER NOT NULL,
			fetched_at TIMESTAMP NOT NULL
		);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// RecordSnapshot logs one loaded taxonomy snapshot for audit, so failed runs
// can be correlated with the tree they matched against.
func (s *Store) RecordSnapshot(nodeCount, leafCount int, fetchedAt time.Time) error {
	_, err := s.conn.Exec(
		"INSERT INTO taxonomy_snapshots (node_count, leaf_count, fetched_at) VALUES (?, ?, ?)",
		nodeCount, leafCount, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}
	return nil
}

// SaveRecord upserts one record keyed by product key.
func (s *Store) SaveRecord(rec *submission.Record) error {
	query := `
		INSERT INTO submission_records
			(product_key, state, category_id, brand_id, batch_id, attempt_count, last_missing, terminal_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_key) DO UPDATE SET
			state = excluded.state,
			category_id = excluded.category_id,
			brand_id = excluded.brand_id,
			batch_id = excluded.batch_id,
			attempt_count = excluded.attempt_count,
			last_missing = excluded.last_missing,
			terminal_reason = excluded.terminal_reason,
			updated_at = excluded.updated_at
	`

	_, err := s.conn.Exec(query,
		rec.ProductKey, string(rec.State), rec.CategoryID, rec.BrandID, rec.BatchID,
		rec.AttemptCount, strings.Join(rec.LastMissing, "|"), rec.TerminalReason,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record for %s: %w", rec.ProductKey, err)
	}

	return nil
}

// RecordByKey loads one record. Returns sql.ErrNoRows when absent.
func (s *Store) RecordByKey(productKey string) (*submission.Record, error) {
	query := `
		SELECT product_key, state, category_id, brand_id, batch_id, attempt_count, last_missing, terminal_reason, created_at, updated_at
		FROM submission_records WHERE product_key = ?
	`

	rec := &submission.Record{}
	var state, lastMissing string
	err := s.conn.QueryRow(query, productKey).Scan(
		&rec.ProductKey, &state, &rec.CategoryID, &rec.BrandID, &rec.BatchID,
		&rec.AttemptCount, &lastMissing, &rec.TerminalReason,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.State = submission.State(state)
	if lastMissing != "" {
		rec.LastMissing = strings.Split(lastMissing, "|")
	}

	return rec, nil
}

// RecordsByState lists records in one state, newest first.
func (s *Store) RecordsByState(state submission.State) ([]*submission.Record, error) {
	query := `
		SELECT product_key, state, category_id, brand_id, batch_id, attempt_count, last_missing, terminal_reason, created_at, updated_at
		FROM submission_records
		WHERE state = ?
		ORDER BY updated_at DESC
	`

	rows, err := s.conn.Query(query, string(state))
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer rows.Close()

	var records []*submission.Record
	for rows.Next() {
		rec := &submission.Record{}
		var recState, lastMissing string
		err := rows.Scan(
			&rec.ProductKey, &recState, &rec.CategoryID, &rec.BrandID, &rec.BatchID,
			&rec.AttemptCount, &lastMissing, &rec.TerminalReason,
			&rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.State = submission.State(recState)
		if lastMissing != "" {
			rec.LastMissing = strings.Split(lastMissing, "|")
		}
		records = append(records, rec)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// Stats summarizes how many records sit in each state.
func (s *Store) Stats() (map[string]int, error) {
	rows, err := s.conn.Query("SELECT state, COUNT(*) FROM submission_records GROUP BY state")
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		stats[state] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats: %w", err)
	}

	return stats, nil
}
