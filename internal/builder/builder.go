// Package builder is the headless form-builder core: it owns the live
// document, routes commands through the history engine, and answers
// queries. One Builder edits one project; dispatch is serialized, so
// callers on any goroutine observe commands applied in order.
package builder

import (
	"context"
	"log/slog"
	"sync"

	"github.com/formforge/formforge/internal/commands"
	"github.com/formforge/formforge/internal/conditions"
	"github.com/formforge/formforge/internal/exchange"
	"github.com/formforge/formforge/internal/expressions"
	"github.com/formforge/formforge/internal/history"
	"github.com/formforge/formforge/internal/store"
	"github.com/formforge/formforge/internal/streaming"
	"github.com/formforge/formforge/internal/validation"
	"github.com/formforge/formforge/pkg/schema"
)

// Builder binds the document model, command layer, history engine,
// evaluator and validator into one editing session.
type Builder struct {
	mu sync.Mutex

	engine    *history.Engine
	hub       streaming.EventHub
	store     store.Store
	evaluator *conditions.Evaluator
	validator *validation.Validator
	queries   *expressions.GoJQEngine
	logger    *slog.Logger

	key       string
	projectID string
	capacity  int
	exprName  string
}

// Option configures a Builder.
type Option func(*Builder)

// WithStore sets the persistence backend. The stored snapshot is loaded
// on construction and every transition is written back.
func WithStore(s store.Store) Option {
	return func(b *Builder) {
		b.store = s
	}
}

// WithStorageKey overrides the snapshot storage key.
func WithStorageKey(key string) Option {
	return func(b *Builder) {
		b.key = key
	}
}

// WithHub sets the event hub for change notifications.
func WithHub(hub streaming.EventHub) Option {
	return func(b *Builder) {
		b.hub = hub
	}
}

// WithProjectID tags published events.
func WithProjectID(id string) Option {
	return func(b *Builder) {
		b.projectID = id
	}
}

// WithHistoryCapacity bounds the undo window.
func WithHistoryCapacity(n int) Option {
	return func(b *Builder) {
		b.capacity = n
	}
}

// WithExpressionEngine selects the engine for expression conditions
// ("expr" or "cel").
func WithExpressionEngine(name string) Option {
	return func(b *Builder) {
		b.exprName = name
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// New creates a Builder. When a store is configured and holds a snapshot
// under the storage key, that snapshot is merged over seeded defaults;
// otherwise editing starts from the seeded project.
func New(ctx context.Context, opts ...Option) (*Builder, error) {
	b := &Builder{
		key:      schema.StorageKey,
		capacity: history.DefaultCapacity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}

	engine, err := expressions.ForName(b.exprName)
	if err != nil {
		return nil, err
	}
	b.evaluator = conditions.New(
		conditions.WithExpressionEngine(engine),
		conditions.WithLogger(b.logger),
	)
	b.validator = validation.New(
		validation.WithConditionEvaluator(b.evaluator),
		validation.WithLogger(b.logger),
	)
	b.queries = expressions.NewGoJQEngine()

	initial := schema.NewProject()
	if b.store != nil {
		stored, err := b.store.LoadSnapshot(ctx, b.key)
		switch {
		case err == nil:
			initial = mergeOverDefaults(stored)
		case schema.CodeOf(err) == schema.ErrCodeNotFound:
			// first run, keep the seeded project
		default:
			return nil, err
		}
	}

	histOpts := []history.Option{
		history.WithCapacity(b.capacity),
		history.WithProjectID(b.projectID),
		history.WithLogger(b.logger),
	}
	if b.hub != nil {
		histOpts = append(histOpts, history.WithHub(b.hub))
	}
	if b.store != nil {
		histOpts = append(histOpts, history.WithStore(b.store, b.key))
	}
	b.engine = history.NewEngine(initial, histOpts...)

	return b, nil
}

// Snapshot returns the current document. Snapshots are immutable; callers
// must not modify the returned tree.
func (b *Builder) Snapshot() *schema.Project {
	return b.engine.Current()
}

// Subscribe registers for change events. Requires a configured hub.
func (b *Builder) Subscribe(ctx context.Context, filter streaming.EventFilter) (<-chan streaming.BuilderEvent, func(), error) {
	if b.hub == nil {
		return nil, nil, schema.NewError(schema.ErrCodeValidation, "no event hub configured")
	}
	return b.hub.Subscribe(ctx, filter)
}

// --- step commands ---

// AddStep appends a step and returns its id.
func (b *Builder) AddStep(ctx context.Context, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, id := commands.AddStep(b.engine.Current(), name)
	b.engine.Commit(ctx, "addStep", next)
	return id
}

// UpdateStep merges a partial update into the step at index.
func (b *Builder) UpdateStep(ctx context.Context, index int, patch *schema.StepPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := commands.UpdateStep(b.engine.Current(), index, patch)
	if err != nil {
		return b.reject("updateStep", err)
	}
	b.engine.Commit(ctx, "updateStep", next)
	return nil
}

// DeleteStep removes the step at index.
func (b *Builder) DeleteStep(ctx context.Context, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := commands.DeleteStep(b.engine.Current(), index)
	if err != nil {
		return b.reject("deleteStep", err)
	}
	b.engine.Commit(ctx, "deleteStep", next)
	return nil
}

// SetCurrentStep activates the step at index.
func (b *Builder) SetCurrentStep(ctx context.Context, index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := commands.SetCurrentStep(b.engine.Current(), index)
	if err != nil {
		return b.reject("setCurrentStep", err)
	}
	b.engine.Commit(ctx, "setCurrentStep", next)
	return nil
}

// ReorderSteps moves a step between positions, clamping both indices.
func (b *Builder) ReorderSteps(ctx context.Context, from, to int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := commands.ReorderSteps(b.engine.Current(), from, to)
	b.engine.Commit(ctx, "reorderSteps", next)
}

// --- field commands ---

// AddField appends a field of the given type to the active step.
func (b *Builder) AddField(ctx context.Context, t schema.FieldType, patch *schema.FieldPatch) (*schema.Field, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, field, err := commands.AddField(b.engine.Current(), t, patch)
	if err != nil {
		return nil, b.reject("addField", err)
	}
	b.engine.Commit(ctx, "addField", next)
	return field, nil
}

// AddFieldAt inserts a field at index within the active step.
func (b *Builder) AddFieldAt(ctx context.Context, t schema.FieldType, index int, patch *schema.FieldPatch) (*schema.Field, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, field, err := commands.AddFieldAt(b.engine.Current(), t, index, patch)
	if err != nil {
		return nil, b.reject("addFieldAt", err)
	}
	b.engine.Commit(ctx, "addFieldAt", next)
	return field, nil
}

// DuplicateField clones a field in place.
func (b *Builder) DuplicateField(ctx context.Context, fieldID string) (*schema.Field, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, field, err := commands.DuplicateField(b.engine.Current(), fieldID)
	if err != nil {
		return nil, b.reject("duplicateField", err)
	}
	b.engine.Commit(ctx, "duplicateField", next)
	return field, nil
}

// UpdateField merges a partial update into a field.
func (b *Builder) UpdateField(ctx context.Context, fieldID string, patch *schema.FieldPatch) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := commands.UpdateField(b.engine.Current(), fieldID, patch)
	if err != nil {
		return b.reject("updateField", err)
	}
	b.engine.Commit(ctx, "updateField", next)
	return nil
}

// DeleteField removes a field.
func (b *Builder) DeleteField(ctx context.Context, fieldID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, err := commands.DeleteField(b.engine.Current(), fieldID)
	if err != nil {
		return b.reject("deleteField", err)
	}
	b.engine.Commit(ctx, "deleteField", next)
	return nil
}

// ReorderFields moves a field within the active step, clamping indices.
func (b *Builder) ReorderFields(ctx context.Context, from, to int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := commands.ReorderFields(b.engine.Current(), from, to)
	b.engine.Commit(ctx, "reorderFields", next)
}

// --- header, settings, selection ---

// UpdateHeaderImage merges a partial header-image update.
func (b *Builder) UpdateHeaderImage(ctx context.Context, patch *schema.HeaderImagePatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.Commit(ctx, "updateHeaderImage", commands.UpdateHeaderImage(b.engine.Current(), patch))
}

// UpdateHeaderTitle merges a partial header-title update.
func (b *Builder) UpdateHeaderTitle(ctx context.Context, patch *schema.HeaderTitlePatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.Commit(ctx, "updateHeaderTitle", commands.UpdateHeaderTitle(b.engine.Current(), patch))
}

// UpdateHeaderDescription merges a partial header-description update.
func (b *Builder) UpdateHeaderDescription(ctx context.Context, patch *schema.HeaderDescriptionPatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.Commit(ctx, "updateHeaderDescription", commands.UpdateHeaderDescription(b.engine.Current(), patch))
}

// UpdateSettings merges a partial settings update.
func (b *Builder) UpdateSettings(ctx context.Context, patch *schema.SettingsPatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.Commit(ctx, "updateSettings", commands.UpdateSettings(b.engine.Current(), patch))
}

// ToggleTheme flips between light and dark.
func (b *Builder) ToggleTheme(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.Commit(ctx, "toggleTheme", commands.ToggleTheme(b.engine.Current()))
}

// SelectElement records the selection without creating a history entry.
// An empty id clears the selection.
func (b *Builder) SelectElement(ctx context.Context, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.ReplaceCurrent(ctx, commands.SelectElement(b.engine.Current(), id))
}

// --- history ---

// Undo steps back one snapshot.
func (b *Builder) Undo(ctx context.Context) (*schema.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Undo(ctx)
}

// Redo reapplies an undone snapshot.
func (b *Builder) Redo(ctx context.Context) (*schema.Project, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.engine.Redo(ctx)
}

// CanUndo reports whether undo is possible.
func (b *Builder) CanUndo() bool { return b.engine.CanUndo() }

// CanRedo reports whether redo is possible.
func (b *Builder) CanRedo() bool { return b.engine.CanRedo() }

// Reset discards the document and history and reseeds the defaults.
// Reset is not undoable.
func (b *Builder) Reset(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.engine.Rewind(ctx, schema.EventReset, schema.NewProject())
}

// --- exchange ---

// ExportJSON serializes the current document in the exchange shape.
func (b *Builder) ExportJSON() ([]byte, error) {
	return exchange.ExportJSON(b.engine.Current())
}

// ImportJSON replaces the document with an imported one. The history is
// cleared; malformed input leaves the current state untouched.
func (b *Builder) ImportJSON(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := exchange.Import(data)
	if err != nil {
		b.logger.Warn("import rejected", "error", err)
		return err
	}
	b.engine.Rewind(ctx, schema.EventImport, p)
	return nil
}

// --- evaluation ---

// FieldVisible reports whether a field's conditional logic leaves it
// visible for the given value map.
func (b *Builder) FieldVisible(fieldID string, values map[string]any) bool {
	f := b.engine.Current().FieldByID(fieldID)
	if f == nil {
		return false
	}
	return b.evaluator.Evaluate(f.ConditionalLogic, values)
}

// ValidateField checks one value against a field's rules.
func (b *Builder) ValidateField(fieldID string, value any, allValues map[string]any) validation.Result {
	f := b.engine.Current().FieldByID(fieldID)
	if f == nil {
		return validation.Result{Valid: true}
	}
	return b.validator.Validate(value, f, allValues)
}

// ValidateForm checks a full submission against every field.
func (b *Builder) ValidateForm(values map[string]any) validation.FormResult {
	return b.validator.ValidateForm(values, b.engine.Current().AllFields())
}

// reject logs a rejected command and returns its error; state stays
// unchanged.
func (b *Builder) reject(command string, err error) error {
	b.logger.Info("command rejected",
		"command", command,
		"code", schema.CodeOf(err),
		"error", err)
	return err
}
