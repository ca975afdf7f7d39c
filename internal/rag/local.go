package rag

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// OpenMode selects how OpenLocalStore treats a missing collection.
type OpenMode int

const (
	// ModeRead requires an existing, readable collection.
	ModeRead OpenMode = iota
	// ModeCreate creates the directory and collection file when absent.
	ModeCreate
)

// LocalStore is a VectorStore persisted as a single SQLite file per
// collection under a directory. Search is an exact cosine scan, which is
// adequate for a catalog of a few thousand courses.
type LocalStore struct {
	db   *sql.DB
	path string
}

// OpenLocalStore opens the collection stored at <dir>/<collection>.db.
// In ModeRead a missing directory, missing file or unreadable schema fails
// with an error wrapping ErrIndexUnavailable.
func OpenLocalStore(dir, collection string, mode OpenMode) (*LocalStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("rag: collection name must not be empty")
	}
	path := filepath.Join(dir, collection+".db")

	switch mode {
	case ModeRead:
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("rag: open %s: %w: %v", path, ErrIndexUnavailable, err)
		}
	case ModeCreate:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("rag: create %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("rag: open %s: %w: %v", path, ErrIndexUnavailable, err)
	}
	db.SetMaxOpenConns(1)

	s := &LocalStore{db: db, path: path}
	if mode == ModeCreate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	}
	if err := s.Ping(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

const chunksDDL = `
CREATE TABLE IF NOT EXISTS chunks (
    seq       INTEGER PRIMARY KEY AUTOINCREMENT,
    id        TEXT NOT NULL UNIQUE,
    content   TEXT NOT NULL,
    metadata  TEXT NOT NULL,
    vector    BLOB NOT NULL
);`

func (s *LocalStore) migrate() error {
	if _, err := s.db.Exec(chunksDDL); err != nil {
		return fmt.Errorf("rag: migrate %s: %w", s.path, err)
	}
	return nil
}

// Path returns the collection file path.
func (s *LocalStore) Path() string { return s.path }

// Add appends entries in a single transaction. Either every entry is stored
// or none is.
func (s *LocalStore) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertChunks(ctx, tx, entries)
	})
}

// Replace swaps the whole collection for entries in one transaction, so a
// failed rebuild leaves the previous chunks in place. Insertion order
// restarts.
func (s *LocalStore) Replace(ctx context.Context, entries []Entry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS chunks`); err != nil {
			return fmt.Errorf("rag: replace %s: %w", s.path, err)
		}
		if _, err := tx.ExecContext(ctx, chunksDDL); err != nil {
			return fmt.Errorf("rag: replace %s: %w", s.path, err)
		}
		return insertChunks(ctx, tx, entries)
	})
}

func (s *LocalStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rag: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rag: commit: %w", err)
	}
	return nil
}

func insertChunks(ctx context.Context, tx *sql.Tx, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (id, content, metadata, vector) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("rag: prepare add: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("rag: entry %d (%s) has an empty vector", i, e.ID)
		}
		meta, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("rag: entry %d metadata: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Text, string(meta), vectorToBlob(e.Vector)); err != nil {
			return fmt.Errorf("rag: add entry %d (%s): %w", i, e.ID, err)
		}
	}
	return nil
}

// Search scans every stored vector and returns the k most similar. Ties keep
// insertion order.
func (s *LocalStore) Search(ctx context.Context, query []float32, k int) ([]Candidate, error) {
	if k <= 0 {
		return []Candidate{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, content, metadata, vector FROM chunks ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("rag: search %s: %w: %v", s.path, ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var (
			c    Candidate
			meta string
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Content, &meta, &blob); err != nil {
			return nil, fmt.Errorf("rag: search scan: %w: %v", ErrIndexUnavailable, err)
		}
		if err := json.Unmarshal([]byte(meta), &c.Metadata); err != nil {
			return nil, fmt.Errorf("rag: chunk %s metadata: %w: %v", c.ID, ErrIndexUnavailable, err)
		}
		vec, err := blobToVector(blob)
		if err != nil {
			return nil, fmt.Errorf("rag: chunk %s: %w: %v", c.ID, ErrIndexUnavailable, err)
		}
		c.Score = cosine(query, vec)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rag: search rows: %w: %v", ErrIndexUnavailable, err)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > k {
		out = out[:k]
	}
	if out == nil {
		out = []Candidate{}
	}
	return out, nil
}

// Reset deletes every chunk and restarts insertion order.
func (s *LocalStore) Reset(ctx context.Context) error {
	return s.Replace(ctx, nil)
}

// Count returns the number of stored chunks.
func (s *LocalStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("rag: count %s: %w: %v", s.path, ErrIndexUnavailable, err)
	}
	return n, nil
}

// Ping verifies the collection schema is readable.
func (s *LocalStore) Ping(ctx context.Context) error {
	_, err := s.Count(ctx)
	return err
}

// Close releases the database connection pool.
func (s *LocalStore) Close() error {
	if err := s.db.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("rag: close: %w", err)
	}
	return nil
}
