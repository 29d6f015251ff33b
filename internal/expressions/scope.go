package expressions

import (
	"encoding/json"

	"github.com/formforge/formforge/pkg/schema"
)

// SnapshotDocument converts a project snapshot to its generic JSON form
// for path queries and expression scopes. The round trip also guarantees
// evaluators can never mutate the snapshot itself.
func SnapshotDocument(p *schema.Project) (map[string]any, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation,
			"cannot serialize snapshot").WithCause(err)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation,
			"cannot deserialize snapshot").WithCause(err)
	}
	return doc, nil
}

// ValueScope builds the environment for expression-operator conditions:
// submitted values under "values", the trigger field's value under
// "trigger". The value map is deep-copied so programs see a frozen scope.
func ValueScope(values map[string]any, triggerField string) map[string]any {
	frozen := deepCopyMap(values)
	var trigger any
	if frozen != nil {
		trigger = frozen[triggerField]
	}
	return map[string]any{
		"values":  frozen,
		"trigger": trigger,
	}
}

// deepCopyMap creates a deep copy of a map[string]any.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cp := make(map[string]any, len(m))
	for k, v := range m {
		cp[k] = deepCopyAny(v)
	}
	return cp
}

// deepCopyAny recursively deep-copies a value. Handles maps, slices, and
// primitives (which are inherently immutable).
func deepCopyAny(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyAny(item)
		}
		return cp
	default:
		return v
	}
}
