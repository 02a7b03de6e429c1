package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/modelindex/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

var _ Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS passes (
		id TEXT PRIMARY KEY,
		generation INTEGER NOT NULL,
		built_at TIMESTAMP NOT NULL,
		saved_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS entries (
		uri TEXT PRIMARY KEY,
		path TEXT,
		processor TEXT NOT NULL,
		type TEXT NOT NULL,
		metadata TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type);

	CREATE TABLE IF NOT EXISTS failures (
		uri TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		error TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveSnapshot replaces the stored snapshot in a single transaction.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"entries", "failures", "passes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO passes (id, generation, built_at) VALUES (?, ?, ?)`,
		snap.PassID, int64(snap.Generation), snap.BuiltAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert pass: %w", err)
	}

	entryStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (uri, path, processor, type, metadata) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer entryStmt.Close()

	for _, e := range snap.Entries {
		if e.Metadata == nil {
			continue
		}
		metadataJSON, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", e.URI, err)
		}
		if _, err := entryStmt.ExecContext(ctx, e.URI, e.Path, e.Processor, e.Metadata.Type, string(metadataJSON)); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.URI, err)
		}
	}

	for _, f := range snap.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO failures (uri, type, error) VALUES (?, ?, ?)`,
			f.URI, f.Type, f.Error,
		); err != nil {
			return fmt.Errorf("failed to insert failure %s: %w", f.URI, err)
		}
	}
	return tx.Commit()
}

// LoadSnapshot returns the stored snapshot with entries and failures sorted by URI.
func (s *SQLiteStorage) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	var generation int64
	var builtAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT id, generation, built_at FROM passes ORDER BY saved_at DESC LIMIT 1`,
	).Scan(&snap.PassID, &generation, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	snap.Generation = uint64(generation)
	snap.BuiltAt = builtAt

	rows, err := s.db.QueryContext(ctx,
		`SELECT uri, path, processor, metadata FROM entries ORDER BY uri`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	snap.Entries = []models.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		snap.Entries = append(snap.Entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := s.db.QueryContext(ctx, `SELECT uri, type, error FROM failures ORDER BY uri`)
	if err != nil {
		return nil, err
	}
	defer frows.Close()
	snap.Failures = []models.Failure{}
	for frows.Next() {
		var f models.Failure
		if err := frows.Scan(&f.URI, &f.Type, &f.Error); err != nil {
			return nil, err
		}
		snap.Failures = append(snap.Failures, f)
	}
	return &snap, frows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var e models.Entry
	var path sql.NullString
	var metadataJSON string
	if err := row.Scan(&e.URI, &path, &e.Processor, &metadataJSON); err != nil {
		return nil, err
	}
	e.Path = path.String
	e.Metadata = &models.Metadata{}
	if err := json.Unmarshal([]byte(metadataJSON), e.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata for %s: %w", e.URI, err)
	}
	return &e, nil
}

// CountEntries returns the number of stored entries.
func (s *SQLiteStorage) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&count)
	return count, err
}

// CountFailures returns the number of stored failures.
func (s *SQLiteStorage) CountFailures(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failures`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
