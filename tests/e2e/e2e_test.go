package e2e

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formforge/formforge/internal/builder"
	"github.com/formforge/formforge/internal/scheduler"
	"github.com/formforge/formforge/internal/store"
	"github.com/formforge/formforge/internal/streaming"
	"github.com/formforge/formforge/pkg/schema"
)

// --- Test harness ---

type harness struct {
	t       *testing.T
	store   *store.LibSQLStore
	hub     *streaming.MemoryHub
	builder *builder.Builder
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "e2e.db")
	s, err := store.NewLibSQLStore("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })

	hub := streaming.NewMemoryHub()

	b, err := builder.New(context.Background(),
		builder.WithStore(s),
		builder.WithStorageKey("e2e"),
		builder.WithHub(hub),
		builder.WithProjectID("proj-e2e"),
	)
	require.NoError(t, err)

	return &harness{t: t, store: s, hub: hub, builder: b}
}

// reopen builds a fresh Builder over the same store, as a process restart would.
func (h *harness) reopen() *builder.Builder {
	h.t.Helper()
	b, err := builder.New(context.Background(),
		builder.WithStore(h.store),
		builder.WithStorageKey("e2e"),
	)
	require.NoError(h.t, err)
	return b
}

func collectEvents(t *testing.T, ch <-chan streaming.BuilderEvent, n int) []streaming.BuilderEvent {
	t.Helper()
	events := make([]streaming.BuilderEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(events) < n {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-timeout:
			t.Fatalf("timed out waiting for events, got %d of %d", len(events), n)
		}
	}
	return events
}

// --- Scenarios ---

func TestEditSessionSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.builder.AddStep(ctx, "Contact Details")
	email, err := h.builder.AddField(ctx, schema.FieldEmail, nil)
	require.NoError(t, err)
	require.NoError(t, h.builder.UpdateField(ctx, email.ID, &schema.FieldPatch{
		Label: ptr("Work Email"),
	}))

	// A fresh builder over the same store sees the committed state.
	reopened := h.reopen()
	snapshot := reopened.Snapshot()
	require.Len(t, snapshot.Steps, 2)

	restored := reopened.FieldByID(email.ID)
	require.NotNil(t, restored)
	assert.Equal(t, "Work Email", restored.Label)
	assert.Equal(t, schema.FieldEmail, restored.Type)
}

func TestUndoRedoAcrossCommandsAndPersistence(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	field, err := h.builder.AddField(ctx, schema.FieldText, nil)
	require.NoError(t, err)
	require.NoError(t, h.builder.UpdateField(ctx, field.ID, &schema.FieldPatch{Label: ptr("Company")}))

	_, err = h.builder.Undo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Text Field", h.builder.FieldByID(field.ID).Label)

	// The undone state is what a restart restores.
	assert.Equal(t, "Text Field", h.reopen().FieldByID(field.ID).Label)

	_, err = h.builder.Redo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Company", h.builder.FieldByID(field.ID).Label)
	assert.Equal(t, "Company", h.reopen().FieldByID(field.ID).Label)
}

func TestEventStreamDuringEditing(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	ch, cancel, err := h.builder.Subscribe(ctx, streaming.EventFilter{ProjectID: "proj-e2e"})
	require.NoError(t, err)
	defer cancel()

	h.builder.AddStep(ctx, "Shipping")
	_, err = h.builder.Undo(ctx)
	require.NoError(t, err)
	_, err = h.builder.Redo(ctx)
	require.NoError(t, err)

	events := collectEvents(t, ch, 3)
	assert.Equal(t, schema.EventCommit, events[0].EventType)
	assert.Equal(t, "addStep", events[0].Command)
	assert.Equal(t, schema.EventUndo, events[1].EventType)
	assert.Equal(t, schema.EventRedo, events[2].EventType)

	// Every event carries a usable snapshot.
	for _, ev := range events {
		require.NotNil(t, ev.Snapshot)
		assert.Equal(t, "proj-e2e", ev.ProjectID)
	}
	assert.Len(t, events[2].Snapshot.Steps, 2)
}

func TestExportImportBetweenSessions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.builder.AddField(ctx, schema.FieldDropdown, &schema.FieldPatch{
		Label: ptr("Plan"),
		Options: &[]schema.Option{
			{Value: "basic", Label: "Basic"},
			{Value: "premium", Label: "Premium"},
		},
	})
	require.NoError(t, err)

	exported, err := h.builder.ExportJSON()
	require.NoError(t, err)

	other := newHarness(t)
	require.NoError(t, other.builder.ImportJSON(ctx, exported))

	fields := other.builder.AllFields()
	require.Len(t, fields, 1)
	assert.Equal(t, "Plan", fields[0].Label)
	require.Len(t, fields[0].Options, 2)
	assert.Equal(t, "premium", fields[0].Options[1].Value)

	// Import clears history.
	assert.False(t, other.builder.CanUndo())
}

func TestConditionalVisibilityAndValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	trigger, err := h.builder.AddField(ctx, schema.FieldDropdown, &schema.FieldPatch{
		Options: &[]schema.Option{
			{Value: "yes", Label: "Yes"},
			{Value: "no", Label: "No"},
		},
	})
	require.NoError(t, err)

	detail, err := h.builder.AddField(ctx, schema.FieldTextarea, &schema.FieldPatch{
		Required: ptr(true),
		ConditionalLogic: &schema.ConditionalLogic{
			Enabled:  true,
			Field:    trigger.ID,
			Operator: schema.OpEquals,
			Value:    "yes",
		},
	})
	require.NoError(t, err)

	// Hidden while the trigger says no; its required rule is skipped.
	values := map[string]any{trigger.ID: "no"}
	assert.False(t, h.builder.FieldVisible(detail.ID, values))
	result := h.builder.ValidateForm(values)
	assert.True(t, result.Valid)

	// Visible and enforced once the trigger matches.
	values[trigger.ID] = "yes"
	assert.True(t, h.builder.FieldVisible(detail.ID, values))
	result = h.builder.ValidateForm(values)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, detail.ID)
}

func TestScheduledBackupOverLiveSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.builder.AddStep(ctx, "Payment")

	sched := scheduler.NewScheduler(slog.Default())
	require.NoError(t, sched.AddJob("backup", "0 * * * *",
		scheduler.BackupJob(h.builder, h.store, "e2e", 5)))
	require.NoError(t, sched.RunNow(ctx, "backup"))

	revs, err := h.store.ListRevisions(ctx, "e2e", 0)
	require.NoError(t, err)
	require.NotEmpty(t, revs)
	last := revs[len(revs)-1]
	assert.Equal(t, "backup", last.Command)
	assert.Len(t, last.Snapshot.Steps, 2)
}

func ptr[T any](v T) *T { return &v }
