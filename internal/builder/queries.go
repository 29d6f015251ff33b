package builder

import (
	"context"

	"github.com/formforge/formforge/internal/expressions"
	"github.com/formforge/formforge/pkg/schema"
)

// Selection kinds returned by SelectedElement.
const (
	SelectionNone        = "none"
	SelectionField       = "field"
	SelectionHeader      = "header"
	SelectionTitle       = "title"
	SelectionDescription = "description"
)

// Selection resolves the selected-element id against the document.
type Selection struct {
	Kind  string        `json:"kind"`
	Field *schema.Field `json:"field,omitempty"`
}

// GetPath looks up a dotted path in the serialized snapshot, e.g.
// "steps.0.fields.2.label". The default is returned for missing paths.
func (b *Builder) GetPath(ctx context.Context, path string, def any) any {
	doc, err := expressions.SnapshotDocument(b.engine.Current())
	if err != nil {
		b.logger.Warn("snapshot serialization failed", "error", err)
		return def
	}
	return b.queries.QueryPath(ctx, doc, path, def)
}

// FieldByID returns the field with the given id, or nil.
func (b *Builder) FieldByID(id string) *schema.Field {
	return b.engine.Current().FieldByID(id)
}

// AllFields returns every field across all steps in document order.
func (b *Builder) AllFields() []*schema.Field {
	return b.engine.Current().AllFields()
}

// EligibleTriggers returns the fields that may drive conditional logic on
// the target: every value-bearing field except the target itself.
func (b *Builder) EligibleTriggers(targetID string) []*schema.Field {
	var out []*schema.Field
	for _, f := range b.engine.Current().AllFields() {
		if f.ID == targetID {
			continue
		}
		if !f.Type.ValueBearing() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// SelectedElement resolves the current selection. A selected id that no
// longer exists resolves to none.
func (b *Builder) SelectedElement() Selection {
	p := b.engine.Current()
	switch p.SelectedElement {
	case "":
		return Selection{Kind: SelectionNone}
	case schema.SelectHeader:
		return Selection{Kind: SelectionHeader}
	case schema.SelectTitle:
		return Selection{Kind: SelectionTitle}
	case schema.SelectDescription:
		return Selection{Kind: SelectionDescription}
	}
	if f := p.FieldByID(p.SelectedElement); f != nil {
		return Selection{Kind: SelectionField, Field: f}
	}
	return Selection{Kind: SelectionNone}
}
