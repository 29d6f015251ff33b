package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/formforge/formforge/pkg/schema"
)

// LibSQLStore implements Store and RevisionLogger using libSQL (embedded
// SQLite fork). This is the default durable backend.
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Snapshots ---

func (s *LibSQLStore) SaveSnapshot(ctx context.Context, key string, p *schema.Project) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "marshal snapshot").WithCause(err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, document, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET document=excluded.document, updated_at=excluded.updated_at`,
		key, string(doc), time.Now().UTC(),
	)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "save snapshot").WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) LoadSnapshot(ctx context.Context, key string) (*schema.Project, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM snapshots WHERE key = ?`, key,
	).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, notFound(key)
	}
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "load snapshot").WithCause(err)
	}

	p := &schema.Project{}
	if err := json.Unmarshal([]byte(doc), p); err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "unmarshal snapshot").WithCause(err)
	}
	return p, nil
}

func (s *LibSQLStore) DeleteSnapshot(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = ?`, key)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "delete snapshot").WithCause(err)
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM revisions WHERE key = ?`, key)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "delete revisions").WithCause(err)
	}
	return nil
}

func (s *LibSQLStore) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM snapshots ORDER BY key`)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "list keys").WithCause(err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "scan key").WithCause(err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// --- Revisions ---

// AppendRevision appends a revision with a monotonically increasing
// per-key sequence. The sequence read and insert run in one transaction
// so concurrent writers cannot interleave.
func (s *LibSQLStore) AppendRevision(ctx context.Context, rev *Revision) error {
	doc, err := json.Marshal(rev.Snapshot)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "marshal revision").WithCause(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "begin revision tx").WithCause(err)
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) + 1 FROM revisions WHERE key = ?`, rev.Key,
	).Scan(&seq)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "next revision sequence").WithCause(err)
	}
	rev.Sequence = seq

	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO revisions (key, sequence, event_type, command, document, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rev.Key, seq, rev.EventType, rev.Command, string(doc), rev.CreatedAt,
	)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "insert revision").WithCause(err)
	}

	if err := tx.Commit(); err != nil {
		return schema.NewError(schema.ErrCodeStore, "commit revision").WithCause(err)
	}
	return nil
}

// ListRevisions returns revisions for a key with sequence > since, ordered
// by sequence ASC.
func (s *LibSQLStore) ListRevisions(ctx context.Context, key string, since int64) ([]*Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, sequence, event_type, command, document, created_at
		 FROM revisions WHERE key = ? AND sequence > ? ORDER BY sequence ASC`,
		key, since,
	)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "list revisions").WithCause(err)
	}
	defer rows.Close()

	var revs []*Revision
	for rows.Next() {
		r := &Revision{}
		var doc string
		var command sql.NullString
		if err := rows.Scan(&r.Key, &r.Sequence, &r.EventType, &command, &doc, &r.CreatedAt); err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "scan revision").WithCause(err)
		}
		r.Command = command.String
		r.Snapshot = &schema.Project{}
		if err := json.Unmarshal([]byte(doc), r.Snapshot); err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "unmarshal revision").WithCause(err)
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

// PruneRevisions keeps the newest keep revisions for a key and deletes the
// rest, returning the number deleted.
func (s *LibSQLStore) PruneRevisions(ctx context.Context, key string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM revisions WHERE key = ? AND sequence <= (
			SELECT COALESCE(MAX(sequence), 0) - ? FROM revisions WHERE key = ?
		)`,
		key, keep, key,
	)
	if err != nil {
		return 0, schema.NewError(schema.ErrCodeStore, "prune revisions").WithCause(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, schema.NewError(schema.ErrCodeStore, "prune rows affected").WithCause(err)
	}
	return n, nil
}
