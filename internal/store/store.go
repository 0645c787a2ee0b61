// Package store provides the SQLite-backed ingestion ledger: one row per
// ingested PDF with its page and chunk counts. The vector store stays the
// source of truth for retrieval; the ledger answers "what has been loaded".
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register "sqlite" driver
)

// Disabled is the RAGMANUAL_LEDGER_DB value that turns the ledger off.
const Disabled = "disabled"

// Ingestion is one recorded ingestion.
type Ingestion struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Pages     int       `json:"pages"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger records and lists ingestions. Implementations must be safe for
// concurrent use.
type Ledger interface {
	// Record persists a new ingestion and returns it with ID and timestamp set.
	Record(ctx context.Context, source string, pages, chunks int) (Ingestion, error)
	// List returns up to limit ingestions, newest first.
	List(ctx context.Context, limit int) ([]Ingestion, error)
	// Close releases any resources held by the ledger.
	Close() error
}

// SQLiteLedger is a Ledger backed by a local SQLite database.
type SQLiteLedger struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultDBPath returns ~/.ragmanual/ledger.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("store: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".ragmanual")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("store: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "ledger.db"), nil
}

// Open opens (or creates) the ledger at path and runs the schema migration.
// Use ":memory:" for an in-memory database in tests.
func Open(path string) (*SQLiteLedger, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// One connection: serialises writers and keeps ":memory:" a single database.
	db.SetMaxOpenConns(1)

	l := &SQLiteLedger{db: db, now: time.Now}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ingestions (
    id          TEXT    PRIMARY KEY,
    source      TEXT    NOT NULL,
    pages       INTEGER NOT NULL,
    chunks      INTEGER NOT NULL,
    created_at  INTEGER NOT NULL  -- Unix timestamp (milliseconds)
);
CREATE INDEX IF NOT EXISTS idx_ingestions_created ON ingestions (created_at);
`
	if _, err := l.db.Exec(ddl); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Record persists a new ingestion.
func (l *SQLiteLedger) Record(ctx context.Context, source string, pages, chunks int) (Ingestion, error) {
	in := Ingestion{
		ID:        uuid.NewString(),
		Source:    source,
		Pages:     pages,
		Chunks:    chunks,
		CreatedAt: l.now().UTC().Truncate(time.Millisecond),
	}
	const q = `INSERT INTO ingestions (id, source, pages, chunks, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := l.db.ExecContext(ctx, q, in.ID, in.Source, in.Pages, in.Chunks, in.CreatedAt.UnixMilli()); err != nil {
		return Ingestion{}, fmt.Errorf("store: record: %w", err)
	}
	return in, nil
}

// List returns up to limit ingestions, newest first. A limit below 1
// returns every row.
func (l *SQLiteLedger) List(ctx context.Context, limit int) ([]Ingestion, error) {
	if limit < 1 {
		limit = -1
	}
	const q = `
SELECT id, source, pages, chunks, created_at
FROM   ingestions
ORDER  BY created_at DESC, rowid DESC
LIMIT  ?`

	rows, err := l.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	out := []Ingestion{}
	for rows.Next() {
		var in Ingestion
		var ms int64
		if err := rows.Scan(&in.ID, &in.Source, &in.Pages, &in.Chunks, &ms); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		in.CreatedAt = time.UnixMilli(ms).UTC()
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list rows: %w", err)
	}
	return out, nil
}

// Close releases the database connection pool.
func (l *SQLiteLedger) Close() error {
	if err := l.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}
