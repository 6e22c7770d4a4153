package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	apperrors "github.com/Aman-CERP/appledocs-mcp/internal/errors"
)

// CurrentSchemaVersion is the on-disk index schema version.
// A mismatch refuses to open: the index must be rebuilt, never
// partially read.
const CurrentSchemaVersion = 1

// Store owns the SQLite index. All mutations funnel through a single
// writer; readers observe either the pre- or post-state of a write.
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	path     string
	lock     *flock.Flock
	readOnly bool
	closed   bool

	defaultLimit  int
	maxLimit      int
	summaryBudget int
}

// Option adjusts store tunables at open time.
type Option func(*Store)

// WithSearchLimits overrides the default and maximum search result
// counts. Non-positive values keep the built-in defaults.
func WithSearchLimits(defaultLimit, maxLimit int) Option {
	return func(s *Store) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// WithSummaryBudget overrides the character budget for derived
// summaries. Non-positive values keep the built-in default.
func WithSummaryBudget(budget int) Option {
	return func(s *Store) {
		if budget > 0 {
			s.summaryBudget = budget
		}
	}
}

// Open opens (or creates) the index at path and acquires exclusive
// process ownership via a lock file. An empty path opens an in-memory
// index for testing.
func Open(path string, opts ...Option) (*Store, error) {
	return open(path, false, opts)
}

// OpenReadOnly opens an existing index without taking the ownership
// lock. Multiple read-only processes may share a stable snapshot.
func OpenReadOnly(path string, opts ...Option) (*Store, error) {
	return open(path, true, opts)
}

func open(path string, readOnly bool, opts []Option) (*Store, error) {
	var dsn string
	var lock *flock.Flock

	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
		}

		if readOnly {
			dsn = "file:" + path + "?mode=ro"
		} else {
			// One process owns the on-disk index at a time.
			lock = flock.New(path + ".lock")
			acquired, err := lock.TryLock()
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrCodeIndexLocked, err)
			}
			if !acquired {
				return nil, apperrors.New(apperrors.ErrCodeIndexLocked,
					"index is owned by another process", nil).
					WithDetail("path", path).
					WithSuggestion("stop the other appledocs-mcp process or use a read-only command")
			}
			dsn = path
		}
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		releaseLock(lock)
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}

	// Single writer; WAL lets readers run against a stable snapshot.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			releaseLock(lock)
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen,
				fmt.Errorf("set pragma: %w", err))
		}
	}

	s := &Store{
		db:            db,
		path:          path,
		lock:          lock,
		readOnly:      readOnly,
		defaultLimit:  DefaultSearchLimit,
		maxLimit:      MaxSearchLimit,
		summaryBudget: DefaultSummaryBudget,
	}
	for _, opt := range opts {
		opt(s)
	}

	if readOnly {
		if err := s.checkSchemaVersion(); err != nil {
			_ = db.Close()
			return nil, err
		}
	} else {
		if err := s.initSchema(); err != nil {
			_ = db.Close()
			releaseLock(lock)
			return nil, err
		}
	}

	return s, nil
}

// Close releases the database handle and the ownership lock.
// It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	err := s.db.Close()
	releaseLock(s.lock)
	return err
}

func releaseLock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}

// initSchema creates tables on first open and verifies the schema
// version on subsequent opens.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS documents (
		uri               TEXT PRIMARY KEY,
		source            TEXT NOT NULL,
		framework         TEXT,
		title             TEXT NOT NULL,
		summary           TEXT NOT NULL,
		summary_truncated INTEGER NOT NULL DEFAULT 0,
		file_path         TEXT,
		content_hash      TEXT NOT NULL,
		last_indexed      TIMESTAMP NOT NULL,
		source_type       TEXT,
		language          TEXT,
		word_count        INTEGER NOT NULL,
		kind              TEXT NOT NULL,
		min_ios           TEXT,
		min_macos         TEXT,
		min_tvos          TEXT,
		min_watchos       TEXT,
		min_visionos      TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
	CREATE INDEX IF NOT EXISTS idx_documents_framework ON documents(framework);

	CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
		uri UNINDEXED,
		title,
		content,
		summary,
		framework,
		tokenize='unicode61'
	);

	CREATE TABLE IF NOT EXISTS sample_projects (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		framework   TEXT,
		description TEXT,
		url         TEXT
	);

	CREATE TABLE IF NOT EXISTS sample_files (
		project_id TEXT NOT NULL,
		path       TEXT NOT NULL,
		content    TEXT NOT NULL,
		PRIMARY KEY (project_id, path),
		FOREIGN KEY (project_id) REFERENCES sample_projects(id) ON DELETE CASCADE
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}

	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, CurrentSchemaVersion); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
		}
	case err != nil:
		return apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	case version != CurrentSchemaVersion:
		return schemaMismatch(version)
	}

	return nil
}

// checkSchemaVersion verifies the version marker without mutating the
// database (read-only opens).
func (s *Store) checkSchemaVersion() error {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	if version != CurrentSchemaVersion {
		return schemaMismatch(version)
	}
	return nil
}

func schemaMismatch(found int) error {
	return apperrors.New(apperrors.ErrCodeSchemaMismatch,
		fmt.Sprintf("index schema version %d, expected %d", found, CurrentSchemaVersion), nil).
		WithSuggestion("rebuild the index with 'appledocs-mcp sync --fresh'")
}

// Rebuild drops all indexed content, keeping the schema.
func (s *Store) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM fts_documents`,
		`DELETE FROM documents`,
		`DELETE FROM sample_files`,
		`DELETE FROM sample_projects`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexWrite, err)
	}

	slog.Info("index_rebuilt", slog.String("path", s.path))
	return nil
}

// ListFrameworks returns a framework -> document count mapping.
func (s *Store) ListFrameworks(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT framework, COUNT(*)
		FROM documents
		WHERE framework IS NOT NULL AND framework != ''
		GROUP BY framework`)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
		}
		out[name] = count
	}
	return out, rows.Err()
}

// Stats returns index statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, errClosed()
	}

	st := &Stats{SchemaVersion: CurrentSchemaVersion}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&st.DocumentCount); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sample_projects`).Scan(&st.SampleCount); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT framework) FROM documents WHERE framework IS NOT NULL AND framework != ''`).
		Scan(&st.FrameworkCount); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexOpen, err)
	}
	return st, nil
}

// writable checks the store accepts mutations. Callers hold s.mu.
func (s *Store) writable() error {
	if s.closed {
		return errClosed()
	}
	if s.readOnly {
		return apperrors.New(apperrors.ErrCodeIndexWrite, "store is read-only", nil)
	}
	return nil
}

func errClosed() error {
	return apperrors.New(apperrors.ErrCodeIndexOpen, "store is closed", nil)
}
