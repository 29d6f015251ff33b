// Package commands implements the mutation layer of the document model.
// Every command takes the current snapshot plus typed parameters and
// returns a brand-new root; unchanged branches are shared between the old
// and new trees, so published snapshots are never mutated. A command that
// returns an error returns the input snapshot untouched.
package commands

import (
	"fmt"

	"github.com/formforge/formforge/pkg/schema"
)

// AddStep appends a new empty step and returns its id. An empty name gets
// the positional default ("Step N").
func AddStep(p *schema.Project, name string) (*schema.Project, string) {
	next := p.ShallowCopy()

	if name == "" {
		name = fmt.Sprintf("Step %d", len(p.Steps)+1)
	}
	step := &schema.Step{ID: schema.NewStepID(), Name: name, Fields: []*schema.Field{}}
	next.Steps = append(next.Steps, step)

	return next, step.ID
}

// UpdateStep merges a partial update into the step at index.
func UpdateStep(p *schema.Project, index int, patch *schema.StepPatch) (*schema.Project, error) {
	if index < 0 || index >= len(p.Steps) {
		return p, schema.NewErrorf(schema.ErrCodeOutOfRange,
			"step index %d out of range [0,%d)", index, len(p.Steps))
	}
	if patch == nil || patch.Name == nil {
		return p.ShallowCopy(), nil
	}

	next := p.ShallowCopy()
	step := p.Steps[index].ShallowCopy()
	step.Name = *patch.Name
	next.Steps[index] = step

	return next, nil
}

// DeleteStep removes the step at index. Deleting the last remaining step
// violates the ≥1-step invariant and is rejected. The current step index
// is clamped afterward and selection is cleared if it pointed into the
// removed step.
func DeleteStep(p *schema.Project, index int) (*schema.Project, error) {
	if index < 0 || index >= len(p.Steps) {
		return p, schema.NewErrorf(schema.ErrCodeOutOfRange,
			"step index %d out of range [0,%d)", index, len(p.Steps))
	}
	if len(p.Steps) == 1 {
		return p, schema.NewError(schema.ErrCodeInvariantViolation,
			"a project must keep at least one step")
	}

	removed := p.Steps[index]

	next := p.ShallowCopy()
	next.Steps = append(next.Steps[:index], next.Steps[index+1:]...)

	if next.CurrentStep >= len(next.Steps) {
		next.CurrentStep = len(next.Steps) - 1
	}
	for _, f := range removed.Fields {
		if next.SelectedElement == f.ID {
			next.SelectedElement = ""
			break
		}
	}

	return next, nil
}

// SetCurrentStep activates the step at index. Out-of-range indices are
// rejected without touching the snapshot.
func SetCurrentStep(p *schema.Project, index int) (*schema.Project, error) {
	if index < 0 || index >= len(p.Steps) {
		return p, schema.NewErrorf(schema.ErrCodeOutOfRange,
			"step index %d out of range [0,%d)", index, len(p.Steps))
	}

	next := p.ShallowCopy()
	next.CurrentStep = index
	return next, nil
}

// ReorderSteps moves a step from one position to another. Out-of-range
// indices are clamped rather than rejected; the current step index follows
// the step it pointed at.
func ReorderSteps(p *schema.Project, from, to int) *schema.Project {
	n := len(p.Steps)
	if n < 2 {
		return p.ShallowCopy()
	}
	from = clamp(from, 0, n-1)
	to = clamp(to, 0, n-1)

	next := p.ShallowCopy()
	if from == to {
		return next
	}

	current := next.Steps[next.CurrentStep]

	moved := next.Steps[from]
	next.Steps = append(next.Steps[:from], next.Steps[from+1:]...)
	rest := make([]*schema.Step, 0, n)
	rest = append(rest, next.Steps[:to]...)
	rest = append(rest, moved)
	rest = append(rest, next.Steps[to:]...)
	next.Steps = rest

	for i, s := range next.Steps {
		if s == current {
			next.CurrentStep = i
			break
		}
	}

	return next
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
