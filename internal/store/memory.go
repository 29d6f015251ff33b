package store

import (
	"context"
	"sort"
	"sync"

	"github.com/formforge/formforge/pkg/schema"
)

// MemoryStore is an in-process Store used by tests and by builders that
// opt out of durability. Snapshots are deep-copied on the way in and out
// so callers can never mutate stored state.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*schema.Project
	revisions map[string][]*Revision
	lastSeq   map[string]int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*schema.Project),
		revisions: make(map[string][]*Revision),
		lastSeq:   make(map[string]int64),
	}
}

func (m *MemoryStore) SaveSnapshot(ctx context.Context, key string, p *schema.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[key] = p.Clone()
	return nil
}

func (m *MemoryStore) LoadSnapshot(ctx context.Context, key string) (*schema.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.snapshots[key]
	if !ok {
		return nil, notFound(key)
	}
	return p.Clone(), nil
}

func (m *MemoryStore) DeleteSnapshot(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, key)
	delete(m.revisions, key)
	return nil
}

func (m *MemoryStore) ListKeys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.snapshots))
	for k := range m.snapshots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) AppendRevision(ctx context.Context, rev *Revision) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rev
	cp.Snapshot = rev.Snapshot.Clone()
	// Sequences must stay monotonic after pruning, so track the
	// high-water mark per key instead of counting surviving entries.
	m.lastSeq[rev.Key]++
	cp.Sequence = m.lastSeq[rev.Key]
	rev.Sequence = cp.Sequence
	m.revisions[rev.Key] = append(m.revisions[rev.Key], &cp)
	return nil
}

func (m *MemoryStore) ListRevisions(ctx context.Context, key string, since int64) ([]*Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Revision
	for _, r := range m.revisions[key] {
		if r.Sequence > since {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) PruneRevisions(ctx context.Context, key string, keep int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	revs := m.revisions[key]
	if keep < 0 {
		keep = 0
	}
	if len(revs) <= keep {
		return 0, nil
	}
	dropped := len(revs) - keep
	m.revisions[key] = append([]*Revision(nil), revs[dropped:]...)
	return int64(dropped), nil
}

func (m *MemoryStore) Close() error { return nil }
