// Package store is the persistence layer for builder documents. A Store
// holds at most one snapshot per key; writes replace the previous
// snapshot atomically so a reader never observes a partial document.
package store

import (
	"context"
	"time"

	"github.com/formforge/formforge/pkg/schema"
)

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// SaveSnapshot replaces the snapshot stored under key.
	SaveSnapshot(ctx context.Context, key string, p *schema.Project) error
	// LoadSnapshot returns the snapshot stored under key, or a NOT_FOUND
	// error when nothing has been saved yet.
	LoadSnapshot(ctx context.Context, key string) (*schema.Project, error)
	// DeleteSnapshot removes the snapshot stored under key. Deleting a
	// missing key is not an error.
	DeleteSnapshot(ctx context.Context, key string) error
	// ListKeys returns every key with a stored snapshot.
	ListKeys(ctx context.Context) ([]string, error)
	// Lifecycle
	Close() error
}

// Revision is one entry in the append-only revision log kept alongside
// the live snapshot. Revisions are written on commit and pruned by the
// backup scheduler; they are never read on the hot path.
type Revision struct {
	Key       string          `json:"key"`
	Sequence  int64           `json:"sequence"`
	EventType string          `json:"event_type"`
	Command   string          `json:"command,omitempty"`
	Snapshot  *schema.Project `json:"snapshot"`
	CreatedAt time.Time       `json:"created_at"`
}

// RevisionLogger is implemented by stores that keep a revision history in
// addition to the live snapshot.
type RevisionLogger interface {
	AppendRevision(ctx context.Context, rev *Revision) error
	ListRevisions(ctx context.Context, key string, since int64) ([]*Revision, error)
	PruneRevisions(ctx context.Context, key string, keep int) (int64, error)
}

func notFound(key string) error {
	return schema.NewErrorf(schema.ErrCodeNotFound, "no snapshot stored under %q", key)
}
