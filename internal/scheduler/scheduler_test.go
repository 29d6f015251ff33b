package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formforge/formforge/internal/store"
	"github.com/formforge/formforge/pkg/schema"
)

// countingJob tracks how many times a job function ran.
type countingJob struct {
	mu    sync.Mutex
	count int
	err   error
}

func (c *countingJob) run(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return c.err
}

func (c *countingJob) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// fixedSource serves a fixed snapshot.
type fixedSource struct {
	p *schema.Project
}

func (f *fixedSource) Snapshot() *schema.Project { return f.p }

func newTestScheduler() *Scheduler {
	return NewScheduler(slog.Default())
}

// markDue rewinds a registered job's next run so the next tick picks it up.
func markDue(t *testing.T, s *Scheduler, name string) {
	t.Helper()
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	job, ok := s.jobs[name]
	require.True(t, ok)
	job.nextRunAt = time.Now().UTC().Add(-time.Hour)
}

// --- Tests ---

func TestCalculateNextRun(t *testing.T) {
	sched := newTestScheduler()
	from := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	// Every hour at minute 0.
	next, err := sched.CalculateNextRun("0 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 10, 13, 0, 0, 0, time.UTC), next)

	// Every 15 minutes.
	next, err = sched.CalculateNextRun("*/15 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 10, 12, 15, 0, 0, time.UTC), next)

	// Daily at midnight.
	next, err = sched.CalculateNextRun("0 0 * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC), next)

	// Invalid expression.
	_, err = sched.CalculateNextRun("invalid cron", from)
	require.Error(t, err)
}

func TestAddJobRejectsBadCron(t *testing.T) {
	sched := newTestScheduler()
	err := sched.AddJob("broken", "not a cron", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Empty(t, sched.Jobs())
}

func TestTickRunsDueJobs(t *testing.T) {
	sched := newTestScheduler()
	job := &countingJob{}
	require.NoError(t, sched.AddJob("autosave", "* * * * *", job.run))
	markDue(t, sched, "autosave")

	sched.tick(context.Background())

	assert.Equal(t, 1, job.callCount())

	// The job was rescheduled into the future.
	got := sched.Jobs()[0]
	assert.Equal(t, "success", got.lastState)
	assert.False(t, got.lastRunAt.IsZero())
	assert.True(t, got.nextRunAt.After(time.Now().UTC().Add(-time.Second)))
}

func TestTickSkipsNotDueJobs(t *testing.T) {
	sched := newTestScheduler()
	job := &countingJob{}
	// Registered just now; first run is at least a minute away.
	require.NoError(t, sched.AddJob("backup", "0 0 * * *", job.run))

	sched.tick(context.Background())

	assert.Equal(t, 0, job.callCount())
}

func TestJobRunFailure(t *testing.T) {
	sched := newTestScheduler()
	job := &countingJob{err: assert.AnError}
	require.NoError(t, sched.AddJob("flaky", "* * * * *", job.run))
	markDue(t, sched, "flaky")

	sched.tick(context.Background())

	got := sched.Jobs()[0]
	assert.Equal(t, "error", got.lastState)
	// A failing job is still rescheduled.
	assert.True(t, got.nextRunAt.After(time.Now().UTC().Add(-time.Second)))
}

func TestRunNow(t *testing.T) {
	sched := newTestScheduler()
	job := &countingJob{}
	require.NoError(t, sched.AddJob("vacuum", "0 3 * * *", job.run))

	// Runs immediately regardless of schedule.
	require.NoError(t, sched.RunNow(context.Background(), "vacuum"))
	assert.Equal(t, 1, job.callCount())

	// Unknown job name.
	require.Error(t, sched.RunNow(context.Background(), "missing"))
}

func TestInflightDedup(t *testing.T) {
	sched := newTestScheduler()

	assert.True(t, sched.tryAcquire("autosave"))
	assert.False(t, sched.tryAcquire("autosave"))
	sched.releaseJob("autosave")
	assert.True(t, sched.tryAcquire("autosave"))
}

func TestRemoveJob(t *testing.T) {
	sched := newTestScheduler()
	job := &countingJob{}
	require.NoError(t, sched.AddJob("autosave", "* * * * *", job.run))
	require.Len(t, sched.Jobs(), 1)

	sched.RemoveJob("autosave")
	assert.Empty(t, sched.Jobs())

	// Removing again is a no-op.
	sched.RemoveJob("autosave")
}

func TestStartStop(t *testing.T) {
	sched := newTestScheduler()

	require.NoError(t, sched.Start(context.Background()))

	// Double start is rejected.
	require.Error(t, sched.Start(context.Background()))

	require.NoError(t, sched.Stop())

	// Stop is idempotent.
	require.NoError(t, sched.Stop())

	// Can be restarted after a clean stop.
	require.NoError(t, sched.Start(context.Background()))
	require.NoError(t, sched.Stop())
}

// --- Job helpers ---

func TestAutosaveJob(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	src := &fixedSource{p: schema.NewProject()}
	src.p.Name = "Quote Form"

	run := AutosaveJob(src, ms, "proj-1")
	require.NoError(t, run(ctx))

	got, err := ms.LoadSnapshot(ctx, "proj-1")
	require.NoError(t, err)
	assert.Equal(t, "Quote Form", got.Name)
}

func TestBackupJob(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	defer ms.Close()

	src := &fixedSource{p: schema.NewProject()}
	run := BackupJob(src, ms, "proj-1", 2)

	// Three backups with keep=2 leaves the newest two revisions.
	require.NoError(t, run(ctx))
	require.NoError(t, run(ctx))
	require.NoError(t, run(ctx))

	revs, err := ms.ListRevisions(ctx, "proj-1", 0)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	for _, rev := range revs {
		assert.Equal(t, schema.EventCommit, rev.EventType)
		assert.Equal(t, "backup", rev.Command)
	}
}
