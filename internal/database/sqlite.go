package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

// SQLiteBackend keeps the document as a single row of the documents table.
// Saves are conditional updates on the revision column.
type SQLiteBackend struct {
	db   *sql.DB
	name string
}

func NewSQLiteBackend(path, name string) (*SQLiteBackend, error) {
	if path == "" {
		return nil, errors.New("sqlite backend: path is required")
	}
	if name == "" {
		name = "default"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS documents (
            name TEXT PRIMARY KEY,
            body TEXT NOT NULL,
            revision INTEGER NOT NULL,
            updated_at DATETIME NOT NULL
        )`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &SQLiteBackend{db: db, name: name}, nil
}

func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, Revision, error) {
	var (
		body     string
		revision int64
	)
	err := b.db.QueryRowContext(ctx,
		`SELECT body, revision FROM documents WHERE name = ?`, b.name).Scan(&body, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNoDocument
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load document %q: %w", b.name, err)
	}
	return []byte(body), Revision(revision), nil
}

func (b *SQLiteBackend) Save(ctx context.Context, data []byte, expected Revision) (Revision, error) {
	now := time.Now()

	switch expected {
	case AnyRevision:
		var revision int64
		err := b.db.QueryRowContext(ctx, `
            INSERT INTO documents (name, body, revision, updated_at)
            VALUES (?, ?, 1, ?)
            ON CONFLICT(name) DO UPDATE SET
                body = excluded.body,
                revision = documents.revision + 1,
                updated_at = excluded.updated_at
            RETURNING revision`, b.name, string(data), now).Scan(&revision)
		if err != nil {
			return 0, fmt.Errorf("failed to save document %q: %w", b.name, err)
		}
		return Revision(revision), nil

	case 0:
		res, err := b.db.ExecContext(ctx, `
            INSERT INTO documents (name, body, revision, updated_at)
            VALUES (?, ?, 1, ?)
            ON CONFLICT(name) DO NOTHING`, b.name, string(data), now)
		if err != nil {
			return 0, fmt.Errorf("failed to create document %q: %w", b.name, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return 0, ErrRevisionConflict
		}
		return 1, nil

	default:
		res, err := b.db.ExecContext(ctx, `
            UPDATE documents
            SET body = ?, revision = revision + 1, updated_at = ?
            WHERE name = ? AND revision = ?`, string(data), now, b.name, int64(expected))
		if err != nil {
			return 0, fmt.Errorf("failed to update document %q: %w", b.name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return 0, ErrRevisionConflict
		}
		return expected + 1, nil
	}
}

func (b *SQLiteBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
