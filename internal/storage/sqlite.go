package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every record file as one row of the records table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Read(ctx context.Context, p string) (string, error) {
	c, ok := cleanPath(p)
	if !ok {
		return "", fmt.Errorf("invalid record path %q", p)
	}
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM records WHERE path = ?`, c).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read record %s: %w", p, err)
	}
	return content, nil
}

func (s *SQLiteStore) Write(ctx context.Context, p, content string) error {
	c, ok := cleanPath(p)
	if !ok {
		return fmt.Errorf("invalid record path %q", p)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (path, content, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET content = excluded.content, updated_at = CURRENT_TIMESTAMP`,
		c, content)
	if err != nil {
		return fmt.Errorf("write record %s: %w", p, err)
	}
	return nil
}

// EnsureDirectory is a no-op: rows have no parent directories.
func (s *SQLiteStore) EnsureDirectory(ctx context.Context, p string) error {
	if _, ok := cleanPath(p); !ok {
		return fmt.Errorf("invalid record path %q", p)
	}
	return ctx.Err()
}
