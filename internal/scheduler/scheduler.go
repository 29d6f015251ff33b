// Package scheduler runs periodic maintenance jobs over a form project:
// autosave, revision backups, and storage compaction. Jobs are registered
// in memory with a cron expression and checked on a fixed tick.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/formforge/formforge/internal/store"
	"github.com/formforge/formforge/pkg/schema"
)

// SnapshotSource provides the current project snapshot. Satisfied by the
// builder (avoids import cycle).
type SnapshotSource interface {
	Snapshot() *schema.Project
}

// Job is a registered periodic task.
type Job struct {
	Name           string
	CronExpression string
	Run            func(ctx context.Context) error

	schedule  cron.Schedule
	nextRunAt time.Time
	lastRunAt time.Time
	lastState string
}

// Scheduler checks registered jobs on a 60s tick and runs those that are due.
type Scheduler struct {
	parser cron.Parser
	logger *slog.Logger
	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex

	jobsMu sync.Mutex
	jobs   map[string]*Job

	inflightMu sync.Mutex
	inflight   map[string]struct{} // job names currently executing (dedup)
}

// NewScheduler creates a new Scheduler with no jobs registered.
func NewScheduler(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		parser:   cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		logger:   logger,
		jobs:     make(map[string]*Job),
		inflight: make(map[string]struct{}),
	}
}

// AddJob registers a named job with a five-field cron expression.
// Registering an existing name replaces the previous job.
func (s *Scheduler) AddJob(name, cronExpr string, run func(ctx context.Context) error) error {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	s.jobs[name] = &Job{
		Name:           name,
		CronExpression: cronExpr,
		Run:            run,
		schedule:       schedule,
		nextRunAt:      schedule.Next(time.Now().UTC()),
	}
	return nil
}

// RemoveJob unregisters a job. Removing an unknown name is a no-op.
func (s *Scheduler) RemoveJob(name string) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	delete(s.jobs, name)
}

// Jobs returns the registered jobs in no particular order.
func (s *Scheduler) Jobs() []*Job {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	return out
}

// Start launches the background scheduling loop with a 60s ticker.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("scheduler started")
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	// Run an initial tick immediately.
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs every due job and advances its next run time.
func (s *Scheduler) tick(ctx context.Context) {
	now := time.Now().UTC()
	for _, job := range s.dueJobs(now) {
		if !s.tryAcquire(job.Name) {
			continue // already running (dedup)
		}
		if err := s.runJob(ctx, job, now); err != nil {
			s.logger.Error("scheduled job failed",
				slog.String("job", job.Name),
				slog.String("error", err.Error()),
			)
		}
		s.releaseJob(job.Name)
	}
}

func (s *Scheduler) dueJobs(now time.Time) []*Job {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	var due []*Job
	for _, job := range s.jobs {
		if !job.nextRunAt.After(now) {
			due = append(due, job)
		}
	}
	return due
}

// runJob executes a job and updates its timestamps.
func (s *Scheduler) runJob(ctx context.Context, job *Job, now time.Time) error {
	s.logger.Info("running scheduled job", slog.String("job", job.Name))

	err := job.Run(ctx)
	status := "success"
	if err != nil {
		status = "error"
	}

	s.jobsMu.Lock()
	job.lastRunAt = now
	job.lastState = status
	job.nextRunAt = job.schedule.Next(now)
	s.jobsMu.Unlock()

	return err
}

// tryAcquire returns true and marks the job as in-flight if it is not already running.
func (s *Scheduler) tryAcquire(name string) bool {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	if _, ok := s.inflight[name]; ok {
		return false
	}
	s.inflight[name] = struct{}{}
	return true
}

// releaseJob removes the job from the in-flight set.
func (s *Scheduler) releaseJob(name string) {
	s.inflightMu.Lock()
	defer s.inflightMu.Unlock()
	delete(s.inflight, name)
}

// CalculateNextRun computes the next run time for a cron expression.
func (s *Scheduler) CalculateNextRun(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// RunNow executes a registered job immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.jobsMu.Lock()
	job, ok := s.jobs[name]
	s.jobsMu.Unlock()
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	if !s.tryAcquire(name) {
		return fmt.Errorf("job %q already running", name)
	}
	defer s.releaseJob(name)

	return s.runJob(ctx, job, time.Now().UTC())
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return nil
	}

	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped")
	return nil
}

// AutosaveJob returns a job function that writes the current snapshot
// under the given key.
func AutosaveJob(src SnapshotSource, st store.Store, key string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return st.SaveSnapshot(ctx, key, src.Snapshot())
	}
}

// BackupJob returns a job function that appends the current snapshot to
// the revision log and prunes the log down to keep entries.
func BackupJob(src SnapshotSource, log store.RevisionLogger, key string, keep int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := log.AppendRevision(ctx, &store.Revision{
			Key:       key,
			EventType: schema.EventCommit,
			Command:   "backup",
			Snapshot:  src.Snapshot(),
		}); err != nil {
			return err
		}
		_, err := log.PruneRevisions(ctx, key, keep)
		return err
	}
}

// VacuumJob returns a job function that compacts the libsql database.
func VacuumJob(st *store.LibSQLStore) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return st.Vacuum(ctx)
	}
}
