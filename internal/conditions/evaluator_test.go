package conditions

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/formforge/formforge/pkg/schema"
)

func cond(field string, op schema.Operator, value any) *schema.ConditionalLogic {
	return &schema.ConditionalLogic{Enabled: true, Field: field, Operator: op, Value: value}
}

func TestEvaluate_DisabledOrAbsent(t *testing.T) {
	e := New()

	assert.True(t, e.Evaluate(nil, nil))
	assert.True(t, e.Evaluate(&schema.ConditionalLogic{Enabled: false}, nil))
	assert.True(t, e.Evaluate(cond("", schema.OpEquals, "x"), nil))
}

func TestEvaluate_Equals(t *testing.T) {
	e := New()
	values := map[string]any{"f1": "x"}

	assert.True(t, e.Evaluate(cond("f1", schema.OpEquals, "x"), values))
	assert.False(t, e.Evaluate(cond("f1", schema.OpEquals, "x"), map[string]any{"f1": "y"}))
	assert.True(t, e.Evaluate(cond("f1", schema.OpNotEquals, "x"), map[string]any{"f1": "y"}))
}

func TestEvaluate_EqualsNumericWidths(t *testing.T) {
	e := New()

	// JSON decoding produces float64; the model may hold int.
	assert.True(t, e.Evaluate(cond("n", schema.OpEquals, 5), map[string]any{"n": float64(5)}))
	assert.False(t, e.Evaluate(cond("n", schema.OpEquals, "5"), map[string]any{"n": float64(5)}))
}

func TestEvaluate_Contains(t *testing.T) {
	e := New()

	assert.True(t, e.Evaluate(cond("f", schema.OpContains, "ell"), map[string]any{"f": "hello"}))
	assert.False(t, e.Evaluate(cond("f", schema.OpContains, "xyz"), map[string]any{"f": "hello"}))
	assert.True(t, e.Evaluate(cond("f", schema.OpNotContains, "xyz"), map[string]any{"f": "hello"}))

	// Absent value coerces to the empty string.
	assert.False(t, e.Evaluate(cond("missing", schema.OpContains, "x"), map[string]any{}))
	assert.True(t, e.Evaluate(cond("missing", schema.OpContains, ""), map[string]any{}))
}

func TestEvaluate_Emptiness(t *testing.T) {
	e := New()

	assert.True(t, e.Evaluate(cond("f", schema.OpEmpty, nil), map[string]any{"f": "  "}))
	assert.True(t, e.Evaluate(cond("f", schema.OpEmpty, nil), map[string]any{}))
	assert.False(t, e.Evaluate(cond("f", schema.OpEmpty, nil), map[string]any{"f": 0}))
	assert.True(t, e.Evaluate(cond("f", schema.OpNotEmpty, nil), map[string]any{"f": false}))
	assert.False(t, e.Evaluate(cond("f", schema.OpNotEmpty, nil), map[string]any{"f": []any{}}))
}

func TestEvaluate_NumericComparison(t *testing.T) {
	e := New()

	assert.True(t, e.Evaluate(cond("age", schema.OpGreaterThan, 18), map[string]any{"age": "21"}))
	assert.False(t, e.Evaluate(cond("age", schema.OpGreaterThan, 18), map[string]any{"age": "18"}))
	assert.True(t, e.Evaluate(cond("age", schema.OpLessThan, 18), map[string]any{"age": 17.5}))

	// Non-numeric coerces to NaN, making the comparison false.
	assert.False(t, e.Evaluate(cond("age", schema.OpGreaterThan, 18), map[string]any{"age": "abc"}))
	assert.False(t, e.Evaluate(cond("age", schema.OpLessThan, 18), map[string]any{}))
}

func TestEvaluate_PrefixSuffix(t *testing.T) {
	e := New()
	values := map[string]any{"f": "formforge"}

	assert.True(t, e.Evaluate(cond("f", schema.OpStartsWith, "form"), values))
	assert.False(t, e.Evaluate(cond("f", schema.OpStartsWith, "forge"), values))
	assert.True(t, e.Evaluate(cond("f", schema.OpEndsWith, "forge"), values))
}

func TestEvaluate_UnknownOperatorFailsOpen(t *testing.T) {
	e := New()
	assert.True(t, e.Evaluate(cond("f", "bogus_op", "x"), map[string]any{"f": "y"}))
}

func TestEvaluate_DanglingTrigger(t *testing.T) {
	e := New()

	// Trigger referencing a deleted field evaluates against the absent value.
	assert.False(t, e.Evaluate(cond("gone", schema.OpEquals, "x"), map[string]any{}))
	assert.True(t, e.Evaluate(cond("gone", schema.OpEmpty, nil), map[string]any{}))
	assert.False(t, e.Evaluate(cond("gone", schema.OpNotEmpty, nil), map[string]any{}))
}

// stubEngine returns a fixed result or error for expression conditions.
type stubEngine struct {
	out any
	err error
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Evaluate(_ context.Context, _ string, _ map[string]any) (any, error) {
	return s.out, s.err
}

func TestEvaluate_ExpressionOperator(t *testing.T) {
	t.Run("truthy result shows field", func(t *testing.T) {
		e := New(WithExpressionEngine(&stubEngine{out: true}))
		assert.True(t, e.Evaluate(cond("f", schema.OpExpression, "values.f > 1"), map[string]any{"f": 2}))
	})

	t.Run("falsy result hides field", func(t *testing.T) {
		e := New(WithExpressionEngine(&stubEngine{out: false}))
		assert.False(t, e.Evaluate(cond("f", schema.OpExpression, "values.f > 1"), map[string]any{"f": 0}))
	})

	t.Run("engine error fails open", func(t *testing.T) {
		e := New(WithExpressionEngine(&stubEngine{err: errors.New("boom")}))
		assert.True(t, e.Evaluate(cond("f", schema.OpExpression, "bad(("), map[string]any{}))
	})

	t.Run("no engine configured fails open", func(t *testing.T) {
		e := New()
		assert.True(t, e.Evaluate(cond("f", schema.OpExpression, "values.f > 1"), map[string]any{"f": 0}))
	})

	t.Run("non-string program fails open", func(t *testing.T) {
		e := New(WithExpressionEngine(&stubEngine{out: false}))
		assert.True(t, e.Evaluate(cond("f", schema.OpExpression, 42), map[string]any{}))
	})

	t.Run("programs see a frozen scope", func(t *testing.T) {
		eng := &mutatingEngine{}
		e := New(WithExpressionEngine(eng))

		values := map[string]any{"f": "original", "tags": []any{"a"}}
		assert.True(t, e.Evaluate(cond("f", schema.OpExpression, "values.f"), values))

		// The engine scribbled on its scope; the caller's map is untouched.
		assert.Equal(t, "original", values["f"])
		assert.Equal(t, []any{"a"}, values["tags"])
		assert.Equal(t, "original", eng.trigger)
	})
}

// mutatingEngine mutates every scope it receives.
type mutatingEngine struct {
	trigger any
}

func (m *mutatingEngine) Name() string { return "mutating" }

func (m *mutatingEngine) Evaluate(_ context.Context, _ string, data map[string]any) (any, error) {
	m.trigger = data["trigger"]
	if values, ok := data["values"].(map[string]any); ok {
		values["f"] = "clobbered"
		if tags, ok := values["tags"].([]any); ok && len(tags) > 0 {
			tags[0] = "clobbered"
		}
	}
	return true, nil
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty([]any{}))
	assert.True(t, IsEmpty(map[string]any{}))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty(false))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty([]any{1}))
	assert.False(t, IsEmpty(map[string]any{"k": 1}))
}
