package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mkorolev/callcue/internal/domain"
	_ "modernc.org/sqlite"
)

// settingsKey is the primary key of the single settings row. The app is
// single-user; one row holds the whole configuration as JSON.
const settingsKey = "default"

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS settings (
		id TEXT PRIMARY KEY,
		payload_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSettings retrieves the saved settings. A missing row yields the
// defaults without creating one; the row appears on the first save.
func (s *SQLiteStore) GetSettings(ctx context.Context) (domain.Settings, error) {
	query := `SELECT payload_json FROM settings WHERE id = ?`
	row := s.db.QueryRowContext(ctx, query, settingsKey)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return domain.DefaultSettings(), nil
	}
	if err != nil {
		return domain.Settings{}, fmt.Errorf("scan settings row: %w", err)
	}

	var settings domain.Settings
	if err := json.Unmarshal([]byte(payload), &settings); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings payload: %w", err)
	}
	return settings, nil
}

// SaveSettings replaces the saved settings.
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings domain.Settings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings payload: %w", err)
	}

	query := `
	INSERT INTO settings (id, payload_json, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		payload_json = excluded.payload_json,
		updated_at = excluded.updated_at`

	now := time.Now().Unix()
	if _, err := s.db.ExecContext(ctx, query, settingsKey, string(payload), now, now); err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
