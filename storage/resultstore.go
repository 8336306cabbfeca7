// Package storage provides SQLite-backed persistence for large tool
// results, so oversized outputs can be parked out of the conversation
// and fetched back by key.
//
// Information Hiding:
// - SQLite connection management hidden behind the store
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Result is one stored tool output.
type Result struct {
	SessionID string
	Key       string
	Content   string
	Summary   string
	LineCount int
	ByteSize  int
	CreatedAt time.Time
}

// ResultStore persists tool results in a SQLite database.
type ResultStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func Open(path string) (*ResultStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &ResultStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// OpenInMemory creates an in-memory store (useful for testing).
func OpenInMemory() (*ResultStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &ResultStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

func (s *ResultStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS results (
			session_id TEXT NOT NULL,
			key TEXT NOT NULL,
			content TEXT NOT NULL,
			summary TEXT NOT NULL,
			line_count INTEGER NOT NULL,
			byte_size INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (session_id, key)
		);

		CREATE INDEX IF NOT EXISTS idx_results_session
		ON results(session_id, created_at DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save stores content under (sessionID, key), replacing any prior
// value for the same key.
func (s *ResultStore) Save(ctx context.Context, sessionID, key, content, summary string) (Result, error) {
	if sessionID == "" {
		return Result{}, fmt.Errorf("session id cannot be empty")
	}
	if key == "" {
		return Result{}, fmt.Errorf("result key cannot be empty")
	}

	result := Result{
		SessionID: sessionID,
		Key:       key,
		Content:   content,
		Summary:   summary,
		LineCount: strings.Count(content, "\n") + 1,
		ByteSize:  len(content),
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (session_id, key, content, summary, line_count, byte_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, key) DO UPDATE SET
			content = excluded.content,
			summary = excluded.summary,
			line_count = excluded.line_count,
			byte_size = excluded.byte_size,
			created_at = excluded.created_at
	`, result.SessionID, result.Key, result.Content, result.Summary,
		result.LineCount, result.ByteSize, result.CreatedAt.Unix())
	if err != nil {
		return Result{}, fmt.Errorf("failed to save result: %w", err)
	}
	return result, nil
}

// Get retrieves one stored result. Returns sql.ErrNoRows via the
// wrapped error if the key does not exist.
func (s *ResultStore) Get(ctx context.Context, sessionID, key string) (*Result, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT content, summary, line_count, byte_size, created_at
		FROM results WHERE session_id = ? AND key = ?
	`, sessionID, key)

	result := Result{SessionID: sessionID, Key: key}
	var createdAt int64
	err := row.Scan(&result.Content, &result.Summary, &result.LineCount, &result.ByteSize, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to load result '%s': %w", key, err)
	}
	result.CreatedAt = time.Unix(createdAt, 0)
	return &result, nil
}

// List returns metadata for all results in a session, newest first.
// Content is not loaded.
func (s *ResultStore) List(ctx context.Context, sessionID string) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, summary, line_count, byte_size, created_at
		FROM results WHERE session_id = ?
		ORDER BY created_at DESC, key
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		result := Result{SessionID: sessionID}
		var createdAt int64
		if err := rows.Scan(&result.Key, &result.Summary, &result.LineCount, &result.ByteSize, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		result.CreatedAt = time.Unix(createdAt, 0)
		results = append(results, result)
	}
	return results, rows.Err()
}

// DeleteSession removes all results for a session.
func (s *ResultStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM results WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session results: %w", err)
	}
	return nil
}
