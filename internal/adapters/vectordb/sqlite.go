package vectordb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/0xcro3dile/docqa-go/internal/domain/entities"
)

// DefaultSQLiteDSN keeps the database in process memory.
const DefaultSQLiteDSN = ":memory:"

// SQLiteIndex implements ports.FragmentIndex on a SQLite table.
// Load writes the rows and reads them back once, in position order; Nearest
// scans that decoded snapshot without touching the database.
type SQLiteIndex struct {
	mu     sync.Mutex // guards sealed
	db     *sql.DB
	opts   Options
	sealed bool

	loaded atomic.Pointer[sqliteSnapshot]
}

type sqliteSnapshot struct {
	fragments  []entities.Fragment
	embeddings []entities.Embedding
}

// NewSQLiteIndex opens the database at dsn and creates the schema.
func NewSQLiteIndex(dsn string, opts Options) (*SQLiteIndex, error) {
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// a memory database lives as long as its single connection
	db.SetMaxOpenConns(1)

	store := &SQLiteIndex{db: db, opts: opts}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

// initSchema creates the fragments table.
func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS fragments (
		position INTEGER PRIMARY KEY,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
	DELETE FROM fragments;
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load stores fragments and embeddings in one transaction. Only the first call succeeds.
func (s *SQLiteIndex) Load(ctx context.Context, fragments []entities.Fragment, embeddings []entities.Embedding) error {
	if len(fragments) != len(embeddings) {
		return fmt.Errorf("%d fragments and %d embeddings: %w", len(fragments), len(embeddings), entities.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return entities.ErrIndexSealed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO fragments (position, content, embedding) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i, f := range fragments {
		embeddingJSON, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("encoding embedding: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, f.Index, f.Text, embeddingJSON); err != nil {
			return fmt.Errorf("inserting fragment %d: %w", f.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing fragments: %w", err)
	}
	s.sealed = true

	snap, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	s.loaded.Store(snap)
	return nil
}

// readAll decodes every stored fragment in position order.
func (s *SQLiteIndex) readAll(ctx context.Context) (*sqliteSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT position, content, embedding FROM fragments ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying fragments: %w", err)
	}
	defer rows.Close()

	snap := &sqliteSnapshot{}
	for rows.Next() {
		var f entities.Fragment
		var embeddingJSON []byte
		if err := rows.Scan(&f.Index, &f.Text, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		var e entities.Embedding
		if err := json.Unmarshal(embeddingJSON, &e); err != nil {
			return nil, fmt.Errorf("decoding embedding %d: %w", f.Index, err)
		}
		snap.fragments = append(snap.fragments, f)
		snap.embeddings = append(snap.embeddings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading fragments: %w", err)
	}
	return snap, nil
}

// Nearest scans the loaded fragments in position order.
func (s *SQLiteIndex) Nearest(ctx context.Context, query entities.Embedding) (entities.Match, error) {
	snap := s.loaded.Load()
	if snap == nil || len(snap.fragments) == 0 {
		return entities.Match{}, entities.ErrEmptyIndex
	}

	m := s.opts.metric()
	idx, score := best(m, query, snap.embeddings)
	if s.opts.Cutoff != nil && !m.Passes(score, *s.opts.Cutoff) {
		return entities.Match{}, fmt.Errorf("best %s score %.4f vs cutoff %.4f: %w",
			m.Name(), score, *s.opts.Cutoff, entities.ErrNoRelevantMatch)
	}
	return entities.Match{Fragment: snap.fragments[idx], Score: score}, nil
}

// Len returns the number of stored fragments.
func (s *SQLiteIndex) Len(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fragments").Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}
