// Package store persists hexagram texts in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"hexcast/internal/reading"
)

// Open opens (creating if needed) the SQLite database at path and returns
// a shared handle. WAL mode and a busy timeout are set through the DSN so
// every connection in the pool gets them.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Texts is the SQLite-backed text store. Writes go through an internal
// mutex so concurrent importer workers cannot race the check-then-write
// in Upsert into duplicate rows.
type Texts struct {
	db *sql.DB
	mu sync.Mutex
}

// NewTexts prepares the hexagram_texts schema and returns the store.
func NewTexts(db *sql.DB) (*Texts, error) {
	t := &Texts{db: db}
	if err := t.initialize(); err != nil {
		return nil, err
	}
	return t, nil
}

// initialize creates the required tables.
func (t *Texts) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hexagram_texts (
		id TEXT PRIMARY KEY,
		parent_coord TEXT NOT NULL,
		child_coord TEXT NOT NULL,
		parent_text TEXT NOT NULL DEFAULT '',
		child_text TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(parent_coord, child_coord)
	);
	CREATE INDEX IF NOT EXISTS idx_texts_parent ON hexagram_texts(parent_coord);
	`
	if _, err := t.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create hexagram_texts schema: %w", err)
	}
	return nil
}

// Get implements reading.TextStore. A missing record comes back with
// Found false and no error.
func (t *Texts) Get(ctx context.Context, parent, child string) (reading.TextRecord, error) {
	var rec reading.TextRecord
	row := t.db.QueryRowContext(ctx,
		`SELECT parent_text, child_text FROM hexagram_texts WHERE parent_coord = ? AND child_coord = ?`,
		parent, child)

	err := row.Scan(&rec.ParentText, &rec.ChildText)
	if err == sql.ErrNoRows {
		return reading.TextRecord{}, nil
	}
	if err != nil {
		return reading.TextRecord{}, fmt.Errorf("failed to query text record: %w", err)
	}
	rec.Found = true
	return rec, nil
}

// Upsert inserts or updates the record for a coordinate. The whole
// check-then-write runs under the store mutex.
func (t *Texts) Upsert(ctx context.Context, parent, child, parentText, childText string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var id string
	err := t.db.QueryRowContext(ctx,
		`SELECT id FROM hexagram_texts WHERE parent_coord = ? AND child_coord = ?`,
		parent, child).Scan(&id)

	now := time.Now().UTC()
	switch {
	case err == sql.ErrNoRows:
		_, err = t.db.ExecContext(ctx,
			`INSERT INTO hexagram_texts (id, parent_coord, child_coord, parent_text, child_text, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), parent, child, parentText, childText, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert text record: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check for existing record: %w", err)
	default:
		_, err = t.db.ExecContext(ctx,
			`UPDATE hexagram_texts SET parent_text = ?, child_text = ?, updated_at = ? WHERE id = ?`,
			parentText, childText, now, id)
		if err != nil {
			return fmt.Errorf("failed to update text record: %w", err)
		}
	}
	return nil
}

// Count returns the number of stored records.
func (t *Texts) Count(ctx context.Context) (int, error) {
	var n int
	if err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hexagram_texts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count text records: %w", err)
	}
	return n, nil
}
