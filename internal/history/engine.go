// Package history implements the snapshot history behind undo/redo.
// The engine keeps a bounded window of immutable snapshots with a cursor;
// committing while undone truncates the redo tail, and committing at
// capacity slides the window forward by dropping the oldest entry.
package history

import (
	"context"
	"log/slog"
	"sync"

	"github.com/formforge/formforge/internal/store"
	"github.com/formforge/formforge/internal/streaming"
	"github.com/formforge/formforge/pkg/schema"
)

// DefaultCapacity is the number of snapshots kept in the undo window.
const DefaultCapacity = 50

// Engine is the history ring. All methods are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	entries  []*schema.Project
	cursor   int
	capacity int

	hub       streaming.EventHub
	store     store.Store
	revisions store.RevisionLogger
	key       string
	projectID string
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCapacity bounds the undo window. Values below 1 fall back to the
// default.
func WithCapacity(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.capacity = n
		}
	}
}

// WithHub attaches the event hub notified on every state transition.
func WithHub(hub streaming.EventHub) Option {
	return func(e *Engine) {
		e.hub = hub
	}
}

// WithStore attaches the persistence backend. The current snapshot is
// written under key after every transition; failures are logged and never
// block the in-memory state.
func WithStore(s store.Store, key string) Option {
	return func(e *Engine) {
		e.store = s
		e.key = key
		if rl, ok := s.(store.RevisionLogger); ok {
			e.revisions = rl
		}
	}
}

// WithProjectID tags published events with a project id.
func WithProjectID(id string) Option {
	return func(e *Engine) {
		e.projectID = id
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an engine seeded with the initial snapshot. The seed
// occupies the first history slot, so the first commit is undoable back
// to it.
func NewEngine(initial *schema.Project, opts ...Option) *Engine {
	e := &Engine{
		entries:  []*schema.Project{initial},
		cursor:   0,
		capacity: DefaultCapacity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Current returns the snapshot at the cursor.
func (e *Engine) Current() *schema.Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entries[e.cursor]
}

// CanUndo reports whether an older snapshot exists.
func (e *Engine) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor > 0
}

// CanRedo reports whether an undone snapshot can be reapplied.
func (e *Engine) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor < len(e.entries)-1
}

// Len returns the number of snapshots currently held.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.entries)
}

// Commit appends a new snapshot at the cursor, discarding any redo tail.
// When the window is full the oldest entry is dropped. Subscribers are
// notified synchronously and the snapshot is persisted best-effort.
func (e *Engine) Commit(ctx context.Context, command string, next *schema.Project) {
	e.mu.Lock()
	// committing while undone makes the redo tail unreachable
	e.entries = append(e.entries[:e.cursor+1], next)
	if len(e.entries) > e.capacity {
		drop := len(e.entries) - e.capacity
		e.entries = append([]*schema.Project(nil), e.entries[drop:]...)
	}
	e.cursor = len(e.entries) - 1
	e.mu.Unlock()

	e.emit(ctx, schema.EventCommit, command, next)
	e.persist(ctx, schema.EventCommit, command, next)
}

// ReplaceCurrent swaps the snapshot at the cursor without creating a
// history entry. Selection changes use this so they never pollute undo.
func (e *Engine) ReplaceCurrent(ctx context.Context, next *schema.Project) {
	e.mu.Lock()
	e.entries[e.cursor] = next
	e.mu.Unlock()

	e.emit(ctx, schema.EventSelect, "", next)
	e.persistSnapshot(ctx, next)
}

// Undo moves the cursor one entry back and returns that snapshot.
func (e *Engine) Undo(ctx context.Context) (*schema.Project, error) {
	e.mu.Lock()
	if e.cursor == 0 {
		e.mu.Unlock()
		return nil, schema.NewError(schema.ErrCodeNothingToUndo, "already at the oldest snapshot")
	}
	e.cursor--
	snap := e.entries[e.cursor]
	e.mu.Unlock()

	e.emit(ctx, schema.EventUndo, "", snap)
	e.persistSnapshot(ctx, snap)
	return snap, nil
}

// Redo moves the cursor one entry forward and returns that snapshot.
func (e *Engine) Redo(ctx context.Context) (*schema.Project, error) {
	e.mu.Lock()
	if e.cursor >= len(e.entries)-1 {
		e.mu.Unlock()
		return nil, schema.NewError(schema.ErrCodeNothingToRedo, "already at the newest snapshot")
	}
	e.cursor++
	snap := e.entries[e.cursor]
	e.mu.Unlock()

	e.emit(ctx, schema.EventRedo, "", snap)
	e.persistSnapshot(ctx, snap)
	return snap, nil
}

// Rewind discards the whole history and reseeds it with a single
// snapshot. Reset and import go through this: neither is undoable.
func (e *Engine) Rewind(ctx context.Context, eventType string, snapshot *schema.Project) {
	e.mu.Lock()
	e.entries = []*schema.Project{snapshot}
	e.cursor = 0
	e.mu.Unlock()

	e.emit(ctx, eventType, "", snapshot)
	e.persist(ctx, eventType, "", snapshot)
}

func (e *Engine) emit(ctx context.Context, eventType, command string, snap *schema.Project) {
	if e.hub == nil {
		return
	}
	err := e.hub.Publish(ctx, streaming.BuilderEvent{
		ProjectID: e.projectID,
		EventType: eventType,
		Command:   command,
		Snapshot:  snap,
	})
	if err != nil {
		e.logger.Warn("event publish failed", "event_type", eventType, "error", err)
	}
}

// persist writes the live snapshot and appends a revision log entry.
func (e *Engine) persist(ctx context.Context, eventType, command string, snap *schema.Project) {
	e.persistSnapshot(ctx, snap)
	if e.revisions == nil {
		return
	}
	rev := &store.Revision{
		Key:       e.key,
		EventType: eventType,
		Command:   command,
		Snapshot:  snap,
	}
	if err := e.revisions.AppendRevision(ctx, rev); err != nil {
		e.logger.Warn("revision append failed", "key", e.key, "error", err)
	}
}

// persistSnapshot writes the live snapshot only. Persistence is
// best-effort: a failing store degrades durability, not editing.
func (e *Engine) persistSnapshot(ctx context.Context, snap *schema.Project) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveSnapshot(ctx, e.key, snap); err != nil {
		e.logger.Warn("snapshot persist failed", "key", e.key, "error", err)
	}
}
