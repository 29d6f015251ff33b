package commands

import (
	"github.com/formforge/formforge/pkg/schema"
)

// AddField appends a field of the given type to the active step and
// selects it. The optional patch overrides the type defaults.
func AddField(p *schema.Project, t schema.FieldType, patch *schema.FieldPatch) (*schema.Project, *schema.Field, error) {
	return AddFieldAt(p, t, len(p.Steps[p.CurrentStep].Fields), patch)
}

// AddFieldAt inserts a field of the given type at index within the active
// step and selects it. The index is clamped into the valid insertion
// range.
func AddFieldAt(p *schema.Project, t schema.FieldType, index int, patch *schema.FieldPatch) (*schema.Project, *schema.Field, error) {
	field := schema.NewField(t)
	if patch != nil {
		applyFieldPatch(field, patch)
	}

	step := p.Steps[p.CurrentStep].ShallowCopy()
	index = clamp(index, 0, len(step.Fields))

	fields := make([]*schema.Field, 0, len(step.Fields)+1)
	fields = append(fields, step.Fields[:index]...)
	fields = append(fields, field)
	fields = append(fields, step.Fields[index:]...)
	step.Fields = fields

	next := p.ShallowCopy()
	next.Steps[p.CurrentStep] = step
	next.SelectedElement = field.ID

	return next, field, nil
}

// DuplicateField deep-copies the field with the given id, assigns the copy
// a fresh id and a "(copy)" label suffix, inserts it directly after the
// original, and selects it.
func DuplicateField(p *schema.Project, fieldID string) (*schema.Project, *schema.Field, error) {
	stepIdx, fieldIdx := locateField(p, fieldID)
	if stepIdx < 0 {
		return p, nil, schema.NewErrorf(schema.ErrCodeOutOfRange,
			"field %q not found", fieldID)
	}

	dup := p.Steps[stepIdx].Fields[fieldIdx].Clone()
	dup.ID = schema.NewFieldID()
	dup.Label = dup.Label + " (copy)"

	step := p.Steps[stepIdx].ShallowCopy()
	fields := make([]*schema.Field, 0, len(step.Fields)+1)
	fields = append(fields, step.Fields[:fieldIdx+1]...)
	fields = append(fields, dup)
	fields = append(fields, step.Fields[fieldIdx+1:]...)
	step.Fields = fields

	next := p.ShallowCopy()
	next.Steps[stepIdx] = step
	next.SelectedElement = dup.ID

	return next, dup, nil
}

// UpdateField merges a partial update into the field with the given id,
// wherever it lives. An empty patch still produces a fresh snapshot whose
// serialized form is identical to the input.
func UpdateField(p *schema.Project, fieldID string, patch *schema.FieldPatch) (*schema.Project, error) {
	stepIdx, fieldIdx := locateField(p, fieldID)
	if stepIdx < 0 {
		return p, schema.NewErrorf(schema.ErrCodeOutOfRange,
			"field %q not found", fieldID)
	}

	next := p.ShallowCopy()
	if patch == nil || patch.IsZero() {
		return next, nil
	}

	step := p.Steps[stepIdx].ShallowCopy()
	field := p.Steps[stepIdx].Fields[fieldIdx].Clone()
	applyFieldPatch(field, patch)
	step.Fields[fieldIdx] = field
	next.Steps[stepIdx] = step

	return next, nil
}

// DeleteField removes the field with the given id and clears the selection
// if it pointed at the removed field.
func DeleteField(p *schema.Project, fieldID string) (*schema.Project, error) {
	stepIdx, fieldIdx := locateField(p, fieldID)
	if stepIdx < 0 {
		return p, schema.NewErrorf(schema.ErrCodeOutOfRange,
			"field %q not found", fieldID)
	}

	step := p.Steps[stepIdx].ShallowCopy()
	step.Fields = append(step.Fields[:fieldIdx], step.Fields[fieldIdx+1:]...)

	next := p.ShallowCopy()
	next.Steps[stepIdx] = step
	if next.SelectedElement == fieldID {
		next.SelectedElement = ""
	}

	return next, nil
}

// ReorderFields moves a field within the active step from one position to
// another. Out-of-range indices are clamped rather than rejected.
func ReorderFields(p *schema.Project, from, to int) *schema.Project {
	src := p.Steps[p.CurrentStep]
	n := len(src.Fields)
	if n < 2 {
		return p.ShallowCopy()
	}
	from = clamp(from, 0, n-1)
	to = clamp(to, 0, n-1)

	next := p.ShallowCopy()
	if from == to {
		return next
	}

	step := src.ShallowCopy()
	moved := step.Fields[from]
	step.Fields = append(step.Fields[:from], step.Fields[from+1:]...)
	fields := make([]*schema.Field, 0, n)
	fields = append(fields, step.Fields[:to]...)
	fields = append(fields, moved)
	fields = append(fields, step.Fields[to:]...)
	step.Fields = fields

	next.Steps[p.CurrentStep] = step
	return next
}

// SelectElement records the selection. Selection is presentation state:
// callers route it around the history so it never creates an undo entry.
// An empty id clears the selection.
func SelectElement(p *schema.Project, id string) *schema.Project {
	next := p.ShallowCopy()
	next.SelectedElement = id
	return next
}

func locateField(p *schema.Project, fieldID string) (stepIdx, fieldIdx int) {
	for si, step := range p.Steps {
		for fi, f := range step.Fields {
			if f.ID == fieldID {
				return si, fi
			}
		}
	}
	return -1, -1
}

func applyFieldPatch(f *schema.Field, patch *schema.FieldPatch) {
	if patch.Type != nil {
		f.Type = *patch.Type
	}
	if patch.Label != nil {
		f.Label = *patch.Label
	}
	if patch.Placeholder != nil {
		f.Placeholder = *patch.Placeholder
	}
	if patch.Required != nil {
		f.Required = *patch.Required
	}
	if patch.Options != nil {
		f.Options = make([]schema.Option, len(*patch.Options))
		copy(f.Options, *patch.Options)
	}
	if patch.Accept != nil {
		f.Accept = *patch.Accept
	}
	if patch.MaxSize != nil {
		f.MaxSize = *patch.MaxSize
	}
	if patch.Validation != nil {
		f.Validation = patch.Validation
	}
	if patch.ConditionalLogic != nil {
		f.ConditionalLogic = patch.ConditionalLogic
	}
}
