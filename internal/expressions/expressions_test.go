package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formforge/formforge/pkg/schema"
)

func TestExprEngine_ConditionScope(t *testing.T) {
	e := NewExprEngine()
	data := ValueScope(map[string]any{"country": "IN", "age": 21}, "country")

	out, err := e.Evaluate(context.Background(), `values.country == "IN" && values.age > 18`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = e.Evaluate(context.Background(), `trigger == "IN"`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExprEngine_UndefinedVariables(t *testing.T) {
	e := NewExprEngine()

	out, err := e.Evaluate(context.Background(), `missing == nil`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExprEngine_CompileError(t *testing.T) {
	e := NewExprEngine()

	_, err := e.Evaluate(context.Background(), `1 +`, map[string]any{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestExprEngine_EmptyExpression(t *testing.T) {
	e := NewExprEngine()
	_, err := e.Evaluate(context.Background(), "", nil)
	require.Error(t, err)
}

func TestExprEngine_CacheReuse(t *testing.T) {
	e := NewExprEngine()
	data := map[string]any{"a": 1}

	_, err := e.Evaluate(context.Background(), "a + 1", data)
	require.NoError(t, err)
	_, err = e.Evaluate(context.Background(), "a + 1", data)
	require.NoError(t, err)
	assert.Len(t, e.cache, 1)
}

func TestCELEngine_ConditionScope(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	data := ValueScope(map[string]any{"plan": "pro"}, "plan")
	out, err := e.Evaluate(context.Background(), `values.plan == "pro"`, data)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCELEngine_MissingActivationDefaults(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	out, err := e.Evaluate(context.Background(), `size(values) == 0`, nil)
	require.NoError(t, err)
	assert.EqualValues(t, true, out)
}

func TestCELEngine_CompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), `values.plan ==`, nil)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestForName(t *testing.T) {
	e, err := ForName("cel")
	require.NoError(t, err)
	assert.Equal(t, "cel", e.Name())

	e, err = ForName("anything-else")
	require.NoError(t, err)
	assert.Equal(t, "expr", e.Name())
}

func TestGoJQ_QueryPath(t *testing.T) {
	e := NewGoJQEngine()
	doc := map[string]any{
		"header": map[string]any{"title": map[string]any{"text": "Quote"}},
		"steps": []any{
			map[string]any{"fields": []any{
				map[string]any{"label": "Name"},
				map[string]any{"label": "Email"},
			}},
		},
	}

	ctx := context.Background()
	assert.Equal(t, "Quote", e.QueryPath(ctx, doc, "header.title.text", "fallback"))
	assert.Equal(t, "Email", e.QueryPath(ctx, doc, "steps.0.fields.1.label", ""))
	assert.Equal(t, "fallback", e.QueryPath(ctx, doc, "header.missing.deep", "fallback"))
	assert.Equal(t, "fallback", e.QueryPath(ctx, doc, "", "fallback"))
	assert.Equal(t, 42, e.QueryPath(ctx, doc, "steps.5.fields", 42))
}

func TestPathExpression(t *testing.T) {
	assert.Equal(t, `getpath(["header","title","text"])`, PathExpression("header.title.text"))
	assert.Equal(t, `getpath(["steps",0,"fields",2,"label"])`, PathExpression("steps.0.fields.2.label"))
	assert.Equal(t, "", PathExpression(""))
	assert.Equal(t, "", PathExpression("..."))
}

func TestSnapshotDocument(t *testing.T) {
	p := schema.NewProject()
	doc, err := SnapshotDocument(p)
	require.NoError(t, err)

	assert.Equal(t, p.Name, doc["name"])
	steps, ok := doc["steps"].([]any)
	require.True(t, ok)
	assert.Len(t, steps, 1)
}

func TestValueScope_Frozen(t *testing.T) {
	values := map[string]any{"a": []any{1, 2}}
	scope := ValueScope(values, "a")

	inner := scope["values"].(map[string]any)
	inner["a"].([]any)[0] = 99

	assert.Equal(t, 1, values["a"].([]any)[0])
	assert.Equal(t, []any{99, 2}, scope["trigger"])
}
