// Package sqlite provides the SQLite-backed local store: sample user records,
// the typed settings key/value table, tracked files and an application log.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStorage is the local application database.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// Stats reports row counts per table.
type Stats struct {
	Users        int    `json:"users"`
	Files        int    `json:"files"`
	Logs         int    `json:"logs"`
	Settings     int    `json:"settings"`
	DatabasePath string `json:"databasePath"`
}

// Open creates or opens the database at dbPath, creates the schema and seeds
// the sample users on first use.
func Open(dbPath string) (*SQLiteStorage, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite storage: db path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite storage: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open db: %w", err)
	}
	// One connection keeps the pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db, path: dbPath}
	if err := storage.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return storage, nil
}

// Close closes the underlying SQLite connection.
func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *SQLiteStorage) Path() string {
	return s.path
}

func (s *SQLiteStorage) init() error {
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("sqlite storage: set busy timeout: %w", err)
	}
	if _, err := s.db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return fmt.Errorf("sqlite storage: enable wal: %w", err)
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite storage: create schema: %w", err)
	}

	return s.seed(context.Background())
}

func (s *SQLiteStorage) seed(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite storage: begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("sqlite storage: count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, u := range seedUsers {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO users (name, email, avatar) VALUES (?, ?, ?)",
			u.Name, u.Email, u.Avatar)
		if err != nil {
			return fmt.Errorf("sqlite storage: seed users: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite storage: commit seed: %w", err)
	}
	return nil
}

// AppendLog stores an application log line. data is JSON encoded when not nil.
func (s *SQLiteStorage) AppendLog(ctx context.Context, level, message string, data any) error {
	var encoded sql.NullString
	if data != nil {
		raw, err := marshalJSON(data)
		if err != nil {
			return fmt.Errorf("sqlite storage: encode log data: %w", err)
		}
		encoded = sql.NullString{String: raw, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO logs (level, message, data) VALUES (?, ?, ?)",
		level, message, encoded)
	if err != nil {
		return fmt.Errorf("sqlite storage: append log: %w", err)
	}
	return nil
}

// Stats counts the rows of every table.
func (s *SQLiteStorage) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{DatabasePath: s.path}
	counts := []struct {
		table string
		dst   *int
	}{
		{"users", &stats.Users},
		{"files", &stats.Files},
		{"logs", &stats.Logs},
		{"settings", &stats.Settings},
	}
	for _, c := range counts {
		// Table names come from the fixed list above.
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("sqlite storage: count %s: %w", c.table, err)
		}
	}
	return stats, nil
}

// Backup writes a consistent copy of the database to dest, replacing any
// file already there.
func (s *SQLiteStorage) Backup(ctx context.Context, dest string) error {
	if strings.TrimSpace(dest) == "" {
		return fmt.Errorf("sqlite storage: backup path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("sqlite storage: create backup directory: %w", err)
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("sqlite storage: replace backup: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("sqlite storage: backup: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
